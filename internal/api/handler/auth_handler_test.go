package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/core/session"
)

type stubAuthService struct {
	registerFn    func(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error)
	loginFn       func(ctx context.Context, username, password string) (*ports.AuthResult, error)
	currentUserFn func(ctx context.Context) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	return s.currentUserFn(ctx)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const validRegisterBody = `{"name":"Ada","surname":"Lovelace","username":"ada","email":"ada@x.com","password":"secret123"}`

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error) {
			if in.Username != "ada" || in.Email != "ada@x.com" || in.Name != "Ada" || in.Surname != "Lovelace" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.PhoneNumber != "" {
				t.Fatalf("expected no phone number, got %q", in.PhoneNumber)
			}
			return &ports.Confirmation{Message: "User registered successfully!"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := postJSON(e, "/v1/auth/register", validRegisterBody)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "User registered successfully!" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "secret123") {
		t.Fatalf("response leaks the password")
	}
}

func TestAuthHandler_Register_PassesRequestMeta(t *testing.T) {
	e := newEcho()
	var got session.RequestMeta
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error) {
			got = session.RequestMetaFrom(ctx)
			return &ports.Confirmation{Message: "ok"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := postJSON(e, "/v1/auth/register", validRegisterBody)
	c.Request().Header.Set(echo.HeaderXRequestID, "req-42")
	c.Request().Header.Set(echo.HeaderXRealIP, "203.0.113.9")
	_ = handler.Register(c)

	if got.RequestID != "req-42" || got.RemoteAddr != "203.0.113.9" {
		t.Fatalf("unexpected request meta: %+v", got)
	}
}

func TestAuthHandler_Register_Conflicts(t *testing.T) {
	for _, dup := range []error{domain.ErrDuplicateUsername, domain.ErrDuplicateEmail, domain.ErrDuplicatePhoneNumber} {
		t.Run(dup.Error(), func(t *testing.T) {
			e := newEcho()
			stub := &stubAuthService{
				registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error) {
					return nil, dup
				},
			}
			handler := NewAuthHandler(stub)

			c, rec := postJSON(e, "/v1/auth/register", validRegisterBody)
			_ = handler.Register(c)

			if rec.Code != http.StatusConflict {
				t.Fatalf("expected 409, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), dup.Error()) {
				t.Fatalf("expected %q in body, got %s", dup, rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_Register_InternalError(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error) {
			return nil, errors.New("mongo: connection pool closed")
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := postJSON(e, "/v1/auth/register", validRegisterBody)
	err := handler.Register(c)

	// Unexpected failures go to the central error handler unrendered.
	if err == nil {
		t.Fatalf("expected error to be returned")
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("handler should not render internal errors: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_ValidationFailure(t *testing.T) {
	bodies := map[string]string{
		"missing username": `{"name":"Ada","surname":"Lovelace","email":"ada@x.com","password":"secret123"}`,
		"bad email":        `{"name":"Ada","surname":"Lovelace","username":"ada","email":"nope","password":"secret123"}`,
		"short password":   `{"name":"Ada","surname":"Lovelace","username":"ada","email":"ada@x.com","password":"123"}`,
		"bad phone":        `{"name":"Ada","surname":"Lovelace","username":"ada","email":"ada@x.com","password":"secret123","phone_number":"12-34"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			e := newEcho()
			stub := &stubAuthService{
				registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error) {
					t.Fatalf("should not be called")
					return nil, nil
				},
			}
			handler := NewAuthHandler(stub)

			c, rec := postJSON(e, "/v1/auth/register", body)
			_ = handler.Register(c)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
		})
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := postJSON(e, "/v1/auth/register", "not-json")
	_ = handler.Register(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	expires := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.AuthResult, error) {
			if username != "ada" || password != "secret123" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &ports.AuthResult{
				Token:     "token123",
				TokenType: ports.TokenTypeBearer,
				ExpiresAt: expires,
				ID:        "u1",
				Username:  "ada",
				Email:     "ada@x.com",
				Roles:     []string{"USER"},
				Name:      "Ada",
				Surname:   "Lovelace",
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := postJSON(e, "/v1/auth/login", `{"username":"ada","password":"secret123"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected token fields: %+v", resp)
	}
	if resp.Username != "ada" || resp.ID != "u1" || len(resp.Roles) != 1 || resp.Roles[0] != "USER" {
		t.Fatalf("unexpected profile: %+v", resp)
	}
	if !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected expiry: %v", resp.ExpiresAt)
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"throttled", domain.ErrTooManyAttempts, http.StatusTooManyRequests},
		// Returned to the central error handler, which answers 500.
		{"profile missing", domain.ErrProfileNotFound, 0},
		{"store failure", errors.New("boom"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			stub := &stubAuthService{
				loginFn: func(ctx context.Context, username, password string) (*ports.AuthResult, error) {
					return nil, tt.err
				},
			}
			handler := NewAuthHandler(stub)

			c, rec := postJSON(e, "/v1/auth/login", `{"username":"ada","password":"bad"}`)
			err := handler.Login(c)

			if tt.want == 0 {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v to be returned, got %v", tt.err, err)
				}
				return
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	for _, body := range []string{"{", `{"username":"ada"}`} {
		c, rec := postJSON(e, "/v1/auth/login", body)
		_ = handler.Login(c)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		currentUserFn: func(ctx context.Context) (*domain.User, error) {
			id, ok := session.IdentityFrom(ctx)
			if !ok {
				return nil, domain.ErrUnauthenticated
			}
			return &domain.User{ID: "u1", Username: id.Username, Email: "ada@x.com", Enabled: true, Roles: id.Roles}, nil
		},
	}
	handler := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req = req.WithContext(session.WithIdentity(req.Context(), domain.Identity{Username: "ada", Roles: domain.DefaultRoles()}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Username != "ada" || len(resp.Roles) != 1 || resp.Roles[0] != "USER" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response exposes password fields: %s", rec.Body.String())
	}
}

func TestAuthHandler_Me_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrProfileNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		e := newEcho()
		stub := &stubAuthService{
			currentUserFn: func(ctx context.Context) (*domain.User, error) { return nil, tt.err },
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		_ = NewAuthHandler(stub).Me(c)
		if rec.Code != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}
