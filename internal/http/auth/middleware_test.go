package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaresmg/liber/internal/http/auth"
	"github.com/soaresmg/liber/internal/identity"
)

const secret = "test-secret"

type staticDirectory struct {
	principal *identity.Principal
}

func (d *staticDirectory) ByAccount(_ context.Context, accountID uuid.UUID) (*identity.Principal, error) {
	if d.principal == nil || d.principal.AccountID != accountID {
		return nil, identity.ErrNotFound
	}

	return d.principal, nil
}

func signToken(t *testing.T, subject string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	return signed
}

func TestAuthenticate(t *testing.T) {
	accountID := uuid.New()
	principal := &identity.Principal{
		AccountID: accountID,
		ProfileID: uuid.New(),
		Role:      identity.RoleMember,
	}

	m := auth.New(secret, &staticDirectory{principal: principal})

	var got *identity.Principal

	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("ValidToken", func(t *testing.T) {
		got = nil

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, accountID.String()))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, principal, got)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("BadSignature", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": accountID.String()})
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New().String()))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("NonUUIDSubject", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "not-a-uuid"))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(t *testing.T, role identity.Role, guard func(http.Handler) http.Handler) int {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(contextWithPrincipal(req.Context(), role))

		rec := httptest.NewRecorder()
		guard(ok).ServeHTTP(rec, req)

		return rec.Code
	}

	staffOnly := auth.RequireRole(identity.RoleStaff)

	assert.Equal(t, http.StatusOK, serve(t, identity.RoleStaff, staffOnly))
	assert.Equal(t, http.StatusOK, serve(t, identity.RoleAdmin, staffOnly))
	assert.Equal(t, http.StatusForbidden, serve(t, identity.RoleMember, staffOnly))
}

// contextWithPrincipal routes through Authenticate to seed the context,
// since the context key is unexported.
func contextWithPrincipal(ctx context.Context, role identity.Role) context.Context {
	accountID := uuid.New()
	principal := &identity.Principal{AccountID: accountID, ProfileID: uuid.New(), Role: role}

	m := auth.New(secret, &staticDirectory{principal: principal})

	var out context.Context

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": accountID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(secret))

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+signed)

	m.Authenticate(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		out = r.Context()
	})).ServeHTTP(httptest.NewRecorder(), req)

	return out
}
