package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledInstallsLogger(t *testing.T) {
	// Arrange
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	ins, err := New(context.Background(), Config{
		ServiceName: "datasprint",
		MaskFields:  []string{"Password", " otp ", ""},
		Output:      &buf,
	})
	require.NoError(t, err)

	ctx := SetCorrelationID(context.Background(), "cid-9")

	// Act
	slog.InfoContext(ctx, "login attempt",
		"username", "lead@datasprint",
		"password", "Secret1",
		"body", `{"email":"a@x.com","otp":"123456","members":[{"password":"x"}]}`,
		slog.Group("req", "otp", "654321", "path", "/api/auth/verify-otp"),
	)

	// Assert
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "login attempt", line["msg"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line, "ts")
	assert.Equal(t, "cid-9", line["_cID"])
	assert.Equal(t, "datasprint", line["service"])
	assert.Equal(t, "lead@datasprint", line["username"])
	assert.Equal(t, masked, line["password"])
	assert.JSONEq(t, `{"email":"a@x.com","otp":"***","members":[{"password":"***"}]}`, line["body"].(string))
	assert.Equal(t, map[string]any{"otp": masked, "path": "/api/auth/verify-otp"}, line["req"])

	assert.NoError(t, ins.Shutdown(context.Background()))
}

func TestRedactor_WithAttrsAndMaps(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(Config{ServiceName: "svc", MaskFields: []string{"token"}, Output: &buf}, nil)

	logger.With("token", "abc").Info("issued",
		"claims", map[string]any{"token": "abc", "sub": "42"},
		"headers", map[string]string{"Token": "abc"},
		"raw", []byte(`["plain"]`),
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, masked, line["token"])
	assert.Equal(t, map[string]any{"token": masked, "sub": "42"}, line["claims"])
	assert.Equal(t, map[string]any{"Token": masked}, line["headers"])
	assert.Equal(t, `["plain"]`, line["raw"])
	assert.NotContains(t, line, "_cID")
}

func TestNoop(t *testing.T) {
	ins := NewNoop()

	_, span := ins.Tracer("test").Start(context.Background(), "op")
	span.End()

	assert.NotNil(t, ins.Meter("test"))
	assert.NoError(t, ins.Shutdown(context.Background()))
}
