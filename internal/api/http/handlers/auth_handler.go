package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-tickets/internal/api/dto"
	"github.com/spec-kit/facility-tickets/internal/auth"
	"github.com/spec-kit/facility-tickets/internal/service"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

// AuthHandler exposes signup, login and session endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	cookies *auth.CookieCodec
}

// NewAuthHandler constructs handler. cookies may be nil, in which case
// only bearer tokens are issued.
func NewAuthHandler(authService *service.AuthService, cookies *auth.CookieCodec) *AuthHandler {
	return &AuthHandler{auth: authService, cookies: cookies}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	session, err := h.auth.RegisterStudent(c.UserContext(), service.NewUserInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		ContactNumber: req.ContactNumber,
		RollNumber:    req.RollNumber,
	})
	if err != nil {
		return err
	}
	if err := h.issueCookie(c, session); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := h.issueCookie(c, session); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	if h.cookies != nil {
		h.cookies.Clear(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthenticated("missing session")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": userResponse(principal.User)}})
}

func (h *AuthHandler) issueCookie(c *fiber.Ctx, session *service.Session) error {
	if h.cookies == nil {
		return nil
	}
	if err := h.cookies.Issue(c, session.Token.Token, session.Token.ExpiresAt); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func sessionResponse(session *service.Session) fiber.Map {
	return fiber.Map{
		"user": userResponse(session.User),
		"auth": dto.AuthResponse{Token: session.Token.Token, ExpiresAt: session.Token.ExpiresAt},
	}
}
