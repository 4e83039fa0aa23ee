package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/caller"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
)

// JWTProtected rejects requests without a valid HS256 access token. The
// parsed token is stored in c.Locals("user") for caller.FromFiber.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			locale := caller.ResolveLocale(c.Get(fiber.HeaderAcceptLanguage))
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Code:    string(apperr.CodeNotAuthorized),
				Message: apperr.Localize(locale, apperr.CodeNotAuthorized),
			})
		},
	})
}
