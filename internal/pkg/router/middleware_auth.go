package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/pkg/jwt"
)

// routeSet holds method -> route patterns that skip authentication.
type routeSet map[string]map[string]struct{}

func (s routeSet) has(method, route string) bool {
	_, ok := s[method][route]
	return ok
}

// middlewareAuthentication requires "Authorization: Bearer <token>" on every
// route outside public and stores the verified claims in the context.
func middlewareAuthentication(verifier jwt.JWT, public routeSet) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.has(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			token = strings.TrimSpace(token)
			if !ok || token == "" || !strings.EqualFold(scheme, "Bearer") {
				writeError(w, r, http.StatusUnauthorized, "Access denied. No token provided.", nil, nil)
				return
			}

			if verifier == nil {
				writeError(w, r, http.StatusUnauthorized, "Invalid or expired token", nil, nil)
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "Invalid or expired token", nil, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
