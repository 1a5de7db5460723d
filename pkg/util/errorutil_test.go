package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"domain error passes through", NewInvalidState("ticket not pending", nil), CodeInvalidState, http.StatusConflict},
		{"wrapped domain error", fmt.Errorf("assign: %w", NewInvalidTarget("not a worker", nil)), CodeInvalidTarget, http.StatusUnprocessableEntity},
		{"unauthorized is forbidden", NewUnauthorized("not your ticket"), CodeUnauthorized, http.StatusForbidden},
		{"unauthenticated", NewUnauthenticated("no session"), CodeUnauthenticated, http.StatusUnauthorized},
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"fiber error", fiber.NewError(http.StatusTooManyRequests, "slow down"), CodeRateLimited, http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			if got.Code != tc.wantCode || got.HTTPStatus != tc.wantStatus {
				t.Fatalf("ToDomainError(%v) = %s/%d, want %s/%d", tc.err, got.Code, got.HTTPStatus, tc.wantCode, tc.wantStatus)
			}
		})
	}
	if ToDomainError(nil) != nil {
		t.Fatal("nil error must map to nil")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("verify: %w", NewExpired("code expired"))
	if !HasCode(err, CodeExpired) {
		t.Fatal("expected OTP_EXPIRED")
	}
	if HasCode(err, CodeInvalidOTP) {
		t.Fatal("unexpected INVALID_OTP")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Fatal("plain errors carry no code")
	}
}
