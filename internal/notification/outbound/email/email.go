// Package email renders and sends notification mails.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/notification/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const teamConfirmedSubject = "Registration Confirmed - DATASPRINT 3.0"

var teamConfirmedTemplate = template.Must(template.New("team_confirmed").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
}).Parse(`<div style="font-family: monospace; padding: 30px; background: #000; color: #16a34a; border: 2px solid #16a34a; border-radius: 8px;">
	<h1 style="color: #4ade80; border-bottom: 1px solid #16a34a; padding-bottom: 10px;">REGISTRATION_COMPLETE</h1>
	<p style="font-size: 1.2rem; color: #fff;">WELCOME TO THE GRID, <span style="color: #4ade80; font-weight: bold;">TEAM_{{upper .TeamName}}</span></p>
	<p style="margin-top: 20px;">Your access to {{.EventName}} has been authorized.</p>
	<div style="background: #052e16; padding: 15px; margin: 25px 0; border: 1px dashed #16a34a;">
		<p style="margin: 0;"><strong>SYSTEM_STATUS:</strong> <span style="color: #4ade80;">READY</span></p>
		<p style="margin: 5px 0 0 0;"><strong>AUTH_ID:</strong> {{.AuthID}}</p>
		{{- range .Members}}
		<p style="margin: 5px 0 0 0;"><strong>MEMBER:</strong> {{.}}</p>
		{{- end}}
	</div>
	<p>Prepare your tools. The sprint begins soon.</p>
	<hr style="border: 0; border-top: 1px solid #16a34a; margin: 30px 0;">
	<p style="font-size: 0.8rem; opacity: 0.7; text-align: center;">DATA_SPRINT_SECURE_NODE_AUTOMAIL {{.Year}}</p>
</div>`))

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

func (m *Mail) SendTeamConfirmed(ctx context.Context, in usecase.TeamConfirmedMail) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "SendTeamConfirmed")
	defer span.End()

	msg, err := composeTeamConfirmed(in)
	if err == nil {
		err = m.client.Send(ctx, msg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func composeTeamConfirmed(in usecase.TeamConfirmedMail) (mail.Message, error) {
	var html bytes.Buffer
	if err := teamConfirmedTemplate.Execute(&html, in); err != nil {
		return mail.Message{}, fmt.Errorf("render team confirmed mail: %w", err)
	}

	return mail.Message{
		To:       []string{in.To},
		Subject:  teamConfirmedSubject,
		TextBody: fmt.Sprintf("Welcome Team %s! Your registration for %s is confirmed.", in.TeamName, in.EventName),
		HTMLBody: html.String(),
	}, nil
}
