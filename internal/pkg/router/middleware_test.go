package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
)

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), tag("outer"), nil, tag("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "true client ip", headers: map[string]string{"True-Client-IP": "203.0.113.9"}, remote: "10.0.0.1:5000", want: "203.0.113.9"},
		{name: "x real ip", headers: map[string]string{"X-Real-IP": "203.0.113.7"}, remote: "10.0.0.1:5000", want: "203.0.113.7"},
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.3"}, remote: "10.0.0.1:5000", want: "198.51.100.2"},
		{name: "garbage header falls back", headers: map[string]string{"X-Real-IP": "not-an-ip"}, remote: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "nothing usable", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

func TestMiddlewareCorrelationID(t *testing.T) {
	var seen string
	h := middlewareCorrelationID(staticID("generated"))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = instrument.GetCorrelationID(r.Context())
	}))

	t.Run("reuses inbound id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderRequestID, " proxy-1 ")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, r)

		assert.Equal(t, "proxy-1", seen)
		assert.Equal(t, "proxy-1", rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("rejects control characters", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header[HeaderCorrelationID] = []string{"evil\x00id"}
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, r)

		assert.Equal(t, "generated", seen)
	})

	t.Run("caps length", func(t *testing.T) {
		assert.Len(t, cleanCorrelationID(strings.Repeat("a", 300)), maxCorrelationIDLen)
	})
}

func TestRecorder_Truncates(t *testing.T) {
	rec := &recorder{ResponseWriter: httptest.NewRecorder()}

	_, _ = rec.Write([]byte(strings.Repeat("x", maxLoggedBody-1)))
	_, _ = rec.Write([]byte("yz"))

	assert.Equal(t, http.StatusOK, rec.code())
	assert.True(t, rec.truncated)
	assert.Equal(t, maxLoggedBody, rec.body.Len())
	assert.Equal(t, maxLoggedBody+1, rec.size)
}

func TestLoggedResponse_HidesAttachments(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &recorder{ResponseWriter: w}
	rec.Header().Set("Content-Type", "text/csv")
	_, _ = rec.Write([]byte("ID,LEAD_EMAIL\n1,a@x.com\n"))

	assert.Equal(t, "<text/csv body omitted>", loggedResponse(rec))
}

func TestPeekBody_Restores(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"lead"}`))

	logged := peekBody(r)
	req := &Request{Request: r}
	var dst struct {
		Username string `json:"username"`
	}

	assert.Equal(t, `{"username":"lead"}`, logged)
	assert.NoError(t, req.DecodeBody(&dst))
	assert.Equal(t, "lead", dst.Username)
}

func TestRouter_Welcome(t *testing.T) {
	r := newTestRouter(t, "app:\n  env: development\n")

	rec := serve(r, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to DATASPRINT API")
}
