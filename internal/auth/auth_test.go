package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-tickets/internal/domain"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	issued, err := tm.GenerateToken("user-1", domain.RoleWorker)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := tm.ParseToken(issued.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != domain.RoleWorker || claims.ID != issued.SessionID {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestTokenRejectsExpiredAndForeign(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", time.Minute).WithClock(func() time.Time { return now })
	issued, err := tm.GenerateToken("user-1", domain.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := tm.ParseToken(issued.Token); err == nil {
		t.Fatal("expired token accepted")
	}

	other := NewTokenManager("other-secret", time.Hour)
	fresh, _ := other.GenerateToken("user-1", domain.RoleAdmin)
	if _, err := NewTokenManager("secret", time.Hour).ParseToken(fresh.Token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestValidators(t *testing.T) {
	if !ValidEmail("asha@uni.edu") || ValidEmail("asha@uni") || ValidEmail("a sha@uni.edu") {
		t.Fatal("email validation mismatch")
	}
	if ValidPassword("12345") || !ValidPassword("123456") {
		t.Fatal("password length floor mismatch")
	}
	if NormalizeEmail("  Asha@Uni.EDU ") != "asha@uni.edu" {
		t.Fatal("normalize mismatch")
	}
}

type stubResolver struct {
	token string
	role  domain.Role
}

func (s stubResolver) Resolve(_ context.Context, token string) (*Principal, error) {
	if token != s.token {
		return nil, apperrors.NewUnauthenticated("invalid session")
	}
	return &Principal{Caller: domain.Caller{UserID: "u1", Role: s.role}, Token: token}, nil
}

func newTestApp(resolver Resolver, cookies *CookieCodec) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	mw := NewAuthMiddleware(resolver, cookies)
	app.Post("/login", func(c *fiber.Ctx) error {
		return cookies.Issue(c, "good", time.Now().Add(time.Hour))
	})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		caller, err := CallerFromContext(c)
		if err != nil {
			return err
		}
		return c.SendString(caller.UserID)
	})
	app.Get("/admin", mw.Handle, RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestMiddlewareBearerAndCookie(t *testing.T) {
	cookies := NewCookieCodec("sessionToken", "0123456789abcdef0123456789abcdef", "", false)
	app := newTestApp(stubResolver{token: "good", role: domain.RoleStudent}, cookies)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no credentials", "", http.StatusUnauthorized},
		{"malformed header", "Token good", http.StatusUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
		{"valid bearer", "Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}

	loginResp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	cookie := loginResp.Cookies()
	if len(cookie) != 1 || cookie[0].Value == "good" {
		t.Fatalf("cookie not encoded: %+v", cookie)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie[0])
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cookie auth status = %d", resp.StatusCode)
	}

	forged := httptest.NewRequest(http.MethodGet, "/me", nil)
	forged.AddCookie(&http.Cookie{Name: "sessionToken", Value: "good"})
	resp, _ = app.Test(forged)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unsigned cookie status = %d", resp.StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	cookies := NewCookieCodec("sessionToken", "", "", false)
	app := newTestApp(stubResolver{token: "good", role: domain.RoleWorker}, cookies)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestCallerFromContextWithoutPrincipal(t *testing.T) {
	app := fiber.New()
	var got error
	app.Get("/", func(c *fiber.Ctx) error {
		_, got = CallerFromContext(c)
		return nil
	})
	if _, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil)); err != nil {
		t.Fatal(err)
	}
	var de *apperrors.DomainError
	if !errors.As(got, &de) || de.Code != apperrors.CodeUnauthenticated {
		t.Fatalf("err = %v", got)
	}
}
