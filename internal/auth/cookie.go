package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/securecookie"
)

// CookieCodec signs and encrypts the session token carried in the browser
// cookie.
type CookieCodec struct {
	name   string
	secure bool
	codec  *securecookie.SecureCookie
}

// NewCookieCodec builds a codec. Empty keys are replaced with random ones,
// which invalidates cookies on restart.
func NewCookieCodec(name, hashKey, blockKey string, secure bool) *CookieCodec {
	hash := []byte(hashKey)
	if len(hash) == 0 {
		hash = securecookie.GenerateRandomKey(32)
	}
	var block []byte
	if blockKey != "" {
		block = []byte(blockKey)
	}
	return &CookieCodec{name: name, secure: secure, codec: securecookie.New(hash, block)}
}

// Name returns the cookie name.
func (c *CookieCodec) Name() string {
	return c.name
}

// Issue sets the session cookie on the response.
func (c *CookieCodec) Issue(ctx *fiber.Ctx, token string, expiresAt time.Time) error {
	encoded, err := c.codec.Encode(c.name, token)
	if err != nil {
		return err
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   c.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (c *CookieCodec) Clear(ctx *fiber.Ctx) {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   c.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Token extracts the session token from the request cookie, if present and
// authentic.
func (c *CookieCodec) Token(ctx *fiber.Ctx) (string, bool) {
	raw := ctx.Cookies(c.name)
	if raw == "" {
		return "", false
	}
	var token string
	if err := c.codec.Decode(c.name, raw, &token); err != nil {
		return "", false
	}
	return token, true
}
