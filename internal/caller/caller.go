// Package caller carries the per-request identity every service operation
// receives explicitly: who is calling, in which locale, under which request id.
package caller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/text/language"
)

// Supported locales, in preference order for matching.
var supported = []language.Tag{language.English, language.Korean}

var matcher = language.NewMatcher(supported)

type Info struct {
	UserID        string
	Locale        language.Tag
	CorrelationID string
}

func (i Info) Authenticated() bool {
	return i.UserID != ""
}

// WithUser returns a copy bound to userID.
func (i Info) WithUser(userID string) Info {
	i.UserID = userID
	return i
}

// ResolveLocale picks the best supported locale from an Accept-Language value.
func ResolveLocale(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// FromFiber builds Info from the request: the JWT placed in locals by the auth
// middleware, the request id, and Accept-Language.
func FromFiber(c *fiber.Ctx) Info {
	info := Info{
		Locale: ResolveLocale(c.Get(fiber.HeaderAcceptLanguage)),
	}
	if rid, ok := c.Locals("requestid").(string); ok {
		info.CorrelationID = rid
	}
	if token, ok := c.Locals("user").(*jwt.Token); ok && token.Valid {
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if userID, ok := claims["userId"].(string); ok {
				info.UserID = userID
			}
		}
	}
	return info
}
