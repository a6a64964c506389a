package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/casedesk/casedesk/internal/platform/httpx"
)

// Middleware authenticates bearer tokens and stashes the subject in context.
type Middleware struct {
	Secret   []byte
	Issuer   string
	Denylist *TokenDenylist
	Logger   *slog.Logger
}

// Authenticate validates the Authorization header. Invalid, expired, and
// revoked tokens are rejected with 401; authorization decisions stay with the
// permission resolver downstream.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}

		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
		if m.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(m.Issuer))
		}
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return m.Secret, nil
		}, opts...)
		if err != nil || !token.Valid {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}
		if strings.TrimSpace(claims.Subject) == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token subject missing")
			return
		}

		if m.Denylist != nil && claims.ID != "" {
			revoked, err := m.Denylist.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("token denylist lookup", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token could not be verified")
				return
			}
			if revoked {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token revoked")
				return
			}
		}

		ctx := ContextWithSubject(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
