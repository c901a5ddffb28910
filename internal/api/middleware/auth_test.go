package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/service"
	"github.com/99minutos/identity-service/internal/core/session"
)

func newIssuer() *service.JWTIssuer {
	return service.NewJWTIssuer("secret", "identity-service", time.Hour)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	issuer := newIssuer()
	signed, _, err := issuer.Issue(domain.Identity{Username: "alice", Roles: []domain.Role{domain.RoleAdmin}})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := Auth(issuer)
	handler := mw(func(c echo.Context) error {
		called = true
		id, ok := session.IdentityFrom(c.Request().Context())
		if !ok {
			t.Fatalf("identity not set")
		}
		if id.Username != "alice" {
			t.Fatalf("unexpected username: %s", id.Username)
		}
		if !id.HasAnyRole(domain.RoleAdmin) {
			t.Fatalf("roles not set: %v", id.Roles)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func rejects(t *testing.T, authHeader string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(newIssuer())
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rejects(t, "")
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	rejects(t, "Token abc")
	rejects(t, "Bearer ")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rejects(t, "Bearer not-a-token")
}

func TestAuthMiddleware_ForeignSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "alice",
		"iss":   "identity-service",
		"roles": []string{"ADMIN"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("not-our-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	rejects(t, "Bearer "+signed)
}
