package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/jwt"
	"github.com/shandysiswandi/datasprint/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct{}

func (fakeVerifier) Generate(int64, string) (string, error) { return "", nil }

func (fakeVerifier) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 9, Username: "alpha"}, nil
}

type staticID string

func (s staticID) Generate() string { return string(s) }

type created struct {
	ID int64 `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }

func (created) Message() string { return "Registered" }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	return NewRouter(Config{
		Config:     cfg,
		UUID:       staticID("cid-1"),
		JWT:        fakeVerifier{},
		Instrument: instrument.NewNoop(),
	})
}

func serve(r *Router, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_PublicSuccess(t *testing.T) {
	// Arrange
	r := newTestRouter(t, "app:\n  env: development\n")
	r.POST("/api/auth/register", func(*Request) (any, error) { return created{ID: 1}, nil })

	// Act
	rec := serve(r, http.MethodPost, "/api/auth/register", "")

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "cid-1", rec.Header().Get(HeaderCorrelationID))

	var body struct {
		Message string  `json:"message"`
		Data    created `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Registered", body.Message)
	assert.Equal(t, int64(1), body.Data.ID)
}

func TestRouter_AuthRequired(t *testing.T) {
	r := newTestRouter(t, "app:\n  env: development\n")
	r.GET("/api/auth/me", func(req *Request) (any, error) {
		return map[string]string{"username": jwt.GetAuth(req.Context()).Username}, nil
	})

	t.Run("missing token", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/api/auth/me", "")

		body := decodeErr(t, rec)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, body.Success)
		assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
		assert.Equal(t, "Unauthorized", body.Error)
		assert.Equal(t, "/api/auth/me", body.Path)
		assert.Equal(t, http.MethodGet, body.Method)
		assert.False(t, body.Timestamp.IsZero())
	})

	t.Run("bad token", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/api/auth/me", "forged")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid or expired token", decodeErr(t, rec).Message)
	})

	t.Run("good token", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/api/auth/me", "good")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"username":"alpha"`)
	})
}

func TestRouter_ValidationDetails(t *testing.T) {
	r := newTestRouter(t, "app:\n  env: production\n")
	r.POST("/api/auth/send-otp", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(validator.V10ValidationError{"email": "email is a required field"})
	})

	rec := serve(r, http.MethodPost, "/api/auth/send-otp", "")

	body := decodeErr(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "Validation error", body.Message)
	assert.Equal(t, map[string]string{"email": "email is a required field"}, body.Details)
}

func TestRouter_ServerErrorCause(t *testing.T) {
	handler := func(*Request) (any, error) {
		return nil, goerror.NewServer(errors.New("smtp: connection refused"))
	}

	t.Run("development exposes cause", func(t *testing.T) {
		r := newTestRouter(t, "app:\n  env: development\n")
		r.POST("/api/auth/forgot-password", handler)

		rec := serve(r, http.MethodPost, "/api/auth/forgot-password", "")

		body := decodeErr(t, rec)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body.Message)
		assert.Equal(t, "smtp: connection refused", body.Details["cause"])
	})

	t.Run("production hides cause", func(t *testing.T) {
		r := newTestRouter(t, "app:\n  env: production\n")
		r.POST("/api/auth/forgot-password", handler)

		rec := serve(r, http.MethodPost, "/api/auth/forgot-password", "")

		body := decodeErr(t, rec)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, body.Details)
	})
}

func TestRouter_PlainErrorIsInternal(t *testing.T) {
	r := newTestRouter(t, "app:\n  env: production\n")
	r.POST("/api/auth/login", func(*Request) (any, error) { return nil, errors.New("boom") })

	rec := serve(r, http.MethodPost, "/api/auth/login", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeErr(t, rec).Error)
}

func TestRouter_Panic(t *testing.T) {
	r := newTestRouter(t, "app:\n  env: development\n")
	r.POST("/api/auth/login", func(*Request) (any, error) { panic("nil map") })

	rec := serve(r, http.MethodPost, "/api/auth/login", "")

	body := decodeErr(t, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "nil map", body.Details["cause"])
}

func TestRouter_File(t *testing.T) {
	r := newTestRouter(t, "app:\n  env: development\n")
	r.GET("/api/users/export", func(*Request) (any, error) {
		return &File{Name: "DATASPRINT_REGISTRATIONS.csv", ContentType: "text/csv", Body: []byte("ID\n1\n")}, nil
	})

	rec := serve(r, http.MethodGet, "/api/users/export", "good")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=DATASPRINT_REGISTRATIONS.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID\n1\n", rec.Body.String())
}

func TestRouter_NotFoundAndMaintenance(t *testing.T) {
	r := newTestRouter(t, "app:\n  env: development\n  maintenance:\n    endpoints:\n      - /api/auth/register\n")
	r.POST("/api/auth/register", func(*Request) (any, error) { return created{}, nil })

	rec := serve(r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/nope", decodeErr(t, rec).Path)

	rec = serve(r, http.MethodPost, "/api/auth/register", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Service is under maintenance", decodeErr(t, rec).Message)
}
