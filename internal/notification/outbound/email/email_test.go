package email

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/datasprint/internal/notification/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeMail) Close() error { return nil }

func TestMail_SendTeamConfirmed(t *testing.T) {
	in := usecase.TeamConfirmedMail{
		To:        "lead@alpha.dev",
		TeamName:  "Alpha <b>",
		AuthID:    "16",
		Members:   []string{"Budi", "Sari"},
		EventName: "Data Sprint 3.0",
		Year:      2026,
	}

	t.Run("renders and escapes", func(t *testing.T) {
		// Arrange
		client := &fakeMail{}
		m := New(client, instrument.NewNoop())

		// Act
		err := m.SendTeamConfirmed(context.Background(), in)

		// Assert
		require.NoError(t, err)
		require.Len(t, client.sent, 1)
		sent := client.sent[0]
		assert.Equal(t, []string{"lead@alpha.dev"}, sent.To)
		assert.Equal(t, "Registration Confirmed - DATASPRINT 3.0", sent.Subject)
		assert.Equal(t, "Welcome Team Alpha <b>! Your registration for Data Sprint 3.0 is confirmed.", sent.TextBody)
		assert.Contains(t, sent.HTMLBody, "TEAM_ALPHA &lt;B&gt;")
		assert.Contains(t, sent.HTMLBody, "AUTH_ID:</strong> 16")
		assert.Contains(t, sent.HTMLBody, "MEMBER:</strong> Sari")
		assert.Contains(t, sent.HTMLBody, "AUTOMAIL 2026")
	})

	t.Run("returns client error", func(t *testing.T) {
		client := &fakeMail{err: errors.New("smtp down")}

		err := New(client, instrument.NewNoop()).SendTeamConfirmed(context.Background(), in)

		assert.EqualError(t, err, "smtp down")
	})
}
