package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-tickets/internal/domain"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Caller    domain.Caller
	User      *domain.User
	SessionID string
	Token     string
}

// Resolver turns a presented token into a live principal. It fails for
// expired, revoked or malformed tokens.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// AuthMiddleware authenticates requests by bearer token or session cookie.
type AuthMiddleware struct {
	resolver Resolver
	cookies  *CookieCodec
}

// NewAuthMiddleware constructs middleware. cookies may be nil for
// header-only authentication.
func NewAuthMiddleware(resolver Resolver, cookies *CookieCodec) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, cookies: cookies}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := m.token(c)
	if err != nil {
		return err
	}
	principal, err := m.resolver.Resolve(c.UserContext(), token)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) token(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.NewUnauthenticated("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if m.cookies != nil {
		if token, ok := m.cookies.Token(c); ok {
			return token, nil
		}
	}
	return "", apperrors.NewUnauthenticated("missing session")
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// CallerFromContext returns the caller identity or an unauthenticated error.
func CallerFromContext(c *fiber.Ctx) (domain.Caller, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return domain.Caller{}, apperrors.NewUnauthenticated("missing session")
	}
	return principal.Caller, nil
}
