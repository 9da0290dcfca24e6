package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	netmail "net/mail"
	"strings"
	"time"
)

// DefaultBrevoEndpoint is the Brevo transactional email endpoint.
const DefaultBrevoEndpoint = "https://api.brevo.com/v3/smtp/email"

var (
	// ErrBrevoAPIKeyRequired is returned when no API key is configured.
	ErrBrevoAPIKeyRequired = errors.New("brevo api key is required")
	// ErrBrevoRejected is returned when Brevo answers with a non 2xx status.
	ErrBrevoRejected = errors.New("brevo rejected the message")
)

// BrevoConfig configures the Brevo implementation.
type BrevoConfig struct {
	// APIKey is sent in the api-key header.
	APIKey string
	// Endpoint overrides DefaultBrevoEndpoint.
	Endpoint string
	// SenderName is the display name of SenderEmail.
	SenderName string
	// SenderEmail is the default sender address.
	SenderEmail string
	// Timeout bounds each API call. Zero means 10 seconds.
	Timeout time.Duration
	// Client overrides the HTTP client.
	Client *http.Client
}

// Brevo is a Mail implementation backed by the Brevo HTTP API.
type Brevo struct {
	apiKey   string
	endpoint string
	sender   brevoContact
	client   *http.Client
}

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
}

// NewBrevo constructs a Brevo mail sender.
func NewBrevo(cfg BrevoConfig) (*Brevo, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrBrevoAPIKeyRequired
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultBrevoEndpoint
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Brevo{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		sender:   brevoContact{Name: cfg.SenderName, Email: cfg.SenderEmail},
		client:   client,
	}, nil
}

// Send delivers a message through the Brevo API.
func (b *Brevo) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if b.sender.Email == "" {
		return ErrNoSender
	}

	payload, err := json.Marshal(brevoRequest{
		Sender:      b.sender,
		To:          toBrevoContacts(msg.To),
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLBody,
		TextContent: msg.TextBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		//nolint:errcheck // best effort for the error message only
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrBrevoRejected, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}

// Close implements io.Closer.
func (b *Brevo) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

func toBrevoContact(v string) brevoContact {
	if addr, err := netmail.ParseAddress(v); err == nil {
		return brevoContact{Name: addr.Name, Email: addr.Address}
	}
	return brevoContact{Email: strings.TrimSpace(v)}
}

func toBrevoContacts(vs []string) []brevoContact {
	if len(vs) == 0 {
		return nil
	}

	out := make([]brevoContact, 0, len(vs))
	for _, v := range vs {
		out = append(out, toBrevoContact(v))
	}
	return out
}
