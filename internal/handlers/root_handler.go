package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/caller"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/token"
)

type RootHandler struct {
	tokens     *token.Service
	version    string
	homeURL    string
	production bool
}

func NewRootHandler(tokens *token.Service, version, homeURL string, production bool) *RootHandler {
	return &RootHandler{tokens: tokens, version: version, homeURL: homeURL, production: production}
}

// Home greets in development and redirects to the product site in production.
func (h *RootHandler) Home(c *fiber.Ctx) error {
	if h.production && h.homeURL != "" {
		return c.Redirect(h.homeURL)
	}
	return c.SendString("It works! - " + h.version)
}

func (h *RootHandler) Version(c *fiber.Ctx) error {
	return c.JSON(dto.VersionResponse{Version: h.version})
}

// IDToken exchanges the bearer access token for a usable one: the same token
// while it is valid, a freshly minted one when it expired but the account
// still holds a valid refresh token.
func (h *RootHandler) IDToken(c *fiber.Ctx) error {
	accessToken := bearerToken(c)
	if accessToken == "" {
		return h.unauthorized(c)
	}

	result := h.tokens.VerifyWithRefresh(c.UserContext(), accessToken)
	if !result.OK {
		return h.unauthorized(c)
	}

	return c.JSON(dto.IDTokenResponse{Token: result.AccessToken, UserID: result.UserID})
}

func (h *RootHandler) unauthorized(c *fiber.Ctx) error {
	locale := caller.FromFiber(c).Locale
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Code:    string(apperr.CodeNotAuthorized),
		Message: apperr.Localize(locale, apperr.CodeNotAuthorized),
	})
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
