package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

// Authenticate resolves the optional "Authorization: Bearer" header into a
// Principal on the request context. Requests without the header pass
// through anonymously; a present but invalid token is rejected with 401.
func Authenticate(tokens *Tokens, logger *slog.Logger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_request"`)
				httpx.WriteKind(w, errx.Unauthorized, "malformed authorization header")
				return
			}

			p, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(r.Context(), "rejected access token",
					"request_id", httpx.GetRequestID(r.Context()),
					"error", err.Error(),
				)
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				httpx.WriteKind(w, errx.Unauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
