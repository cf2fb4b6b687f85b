package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/identity"
)

type contextKey struct{}

// Directory resolves a token subject to a role-tagged principal.
type Directory interface {
	ByAccount(ctx context.Context, accountID uuid.UUID) (*identity.Principal, error)
}

type Middleware struct {
	secret []byte
	dir    Directory
}

func New(secret string, dir Directory) *Middleware {
	return &Middleware{
		secret: []byte(secret),
		dir:    dir,
	}
}

// Authenticate validates the bearer token and loads the principal into
// the request context. The token subject is the account id.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return m.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		accountID, err := uuid.Parse(subject)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		principal, err := m.dir.ByAccount(r.Context(), accountID)
		if err != nil {
			http.Error(w, "unknown account", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

// RequireRole guards a route subtree. Admins pass every guard.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "missing principal", http.StatusUnauthorized)
				return
			}

			if principal.Role == identity.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

func withPrincipal(ctx context.Context, p *identity.Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the authenticated principal, if any.
func FromContext(ctx context.Context) (*identity.Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*identity.Principal)
	return p, ok
}
