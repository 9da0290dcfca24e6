package inbound

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shandysiswandi/datasprint/internal/notification/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/goroutine"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/messaging"
	"github.com/shandysiswandi/datasprint/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	calls chan usecase.ConsumeTeamRegisteredInput
	cIDs  chan string
	err   error
}

func newFakeUC() *fakeUC {
	return &fakeUC{
		calls: make(chan usecase.ConsumeTeamRegisteredInput, 64),
		cIDs:  make(chan string, 64),
	}
}

func (f *fakeUC) ConsumeTeamRegistered(ctx context.Context, in usecase.ConsumeTeamRegisteredInput) error {
	select {
	case f.calls <- in:
		f.cIDs <- instrument.GetCorrelationID(ctx)
	default:
	}
	return f.err
}

type staticUUID string

func (s staticUUID) Generate() string { return string(s) }

type fakeMessage struct {
	messaging.Message
	body    []byte
	headers map[string]string
}

func (m fakeMessage) Body() []byte             { return m.body }
func (m fakeMessage) Header(key string) string { return m.headers[key] }
func (m fakeMessage) ID() string               { return "1" }

func teamRegisteredBody(t *testing.T) []byte {
	t.Helper()

	body, err := json.Marshal(event.TeamRegisteredMessage{
		UserID:   42,
		Username: "lead@datasprint",
		Email:    "lead@alpha.dev",
		Name:     "Lead Alpha",
		TeamName: "Alpha",
		Members: []event.TeamRegisteredMember{
			{Name: "Budi", Email: "budi@alpha.dev"},
			{Name: "Sari"},
		},
		RegisteredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return body
}

func TestMQHandler_TeamRegisteredNotification(t *testing.T) {
	t.Run("maps payload and keeps correlation id", func(t *testing.T) {
		// Arrange
		uc := newFakeUC()
		h := &MQHandler{uc: uc, uuid: staticUUID("generated"), ins: instrument.NewNoop()}
		msg := fakeMessage{
			body:    teamRegisteredBody(t),
			headers: map[string]string{event.HeaderCorrelationID: "cid-7"},
		}

		// Act
		err := h.TeamRegisteredNotification(context.Background(), msg)

		// Assert
		require.NoError(t, err)
		in := <-uc.calls
		assert.Equal(t, usecase.ConsumeTeamRegisteredInput{
			UserID:   42,
			Email:    "lead@alpha.dev",
			TeamName: "Alpha",
			Members:  []string{"Budi", "Sari"},
		}, in)
		assert.Equal(t, "cid-7", <-uc.cIDs)
	})

	t.Run("generates correlation id when header is missing", func(t *testing.T) {
		// Arrange
		uc := newFakeUC()
		h := &MQHandler{uc: uc, uuid: staticUUID("generated"), ins: instrument.NewNoop()}

		// Act
		err := h.TeamRegisteredNotification(context.Background(), fakeMessage{body: teamRegisteredBody(t)})

		// Assert
		require.NoError(t, err)
		<-uc.calls
		assert.Equal(t, "generated", <-uc.cIDs)
	})

	t.Run("drops malformed body", func(t *testing.T) {
		// Arrange
		uc := newFakeUC()
		h := &MQHandler{uc: uc, uuid: staticUUID("generated"), ins: instrument.NewNoop()}

		// Act
		err := h.TeamRegisteredNotification(context.Background(), fakeMessage{body: []byte("{")})

		// Assert
		require.NoError(t, err)
		assert.Empty(t, uc.calls)
	})
}

func TestRegisterMQConsumer(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  notification:
    consumer_names:
      - team_registered_notification
`))
	require.NoError(t, err)

	broker := messaging.NewMemory()
	defer broker.Close()

	routine := goroutine.NewManager(4)
	ctx, cancel := context.WithCancel(context.Background())

	uc := newFakeUC()
	RegisterMQConsumer(ctx, cfg, routine, broker, staticUUID("generated"), uc, instrument.NewNoop())

	// Act
	body := teamRegisteredBody(t)
	delivered := assert.Eventually(t, func() bool {
		if err := broker.Publish(ctx, event.TeamRegisteredDestination, messaging.Envelope{Body: body}); err != nil {
			return false
		}

		select {
		case <-uc.calls:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, routine.Wait())

	// Assert
	assert.True(t, delivered)
}
