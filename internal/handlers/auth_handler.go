package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/caller"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/services"
)

type AuthHandler struct {
	accounts   *services.AccountService
	social     *services.SocialService
	production bool
}

func NewAuthHandler(accounts *services.AccountService, social *services.SocialService, production bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, social: social, production: production}
}

// SignUp accepts JSON or multipart/form-data with an optional "image" part.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, h.production)
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		return badRequest(c, h.production)
	}
	defer closeImage()

	user, err := h.accounts.SignUp(c.UserContext(), caller.FromFiber(c), services.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Gender:   req.Gender,
	}, image)
	if err != nil {
		return respondError(c, err, h.production, apperr.CodeUserCreateFailed)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, h.production)
	}

	payload, err := h.accounts.SignInEmail(c.UserContext(), caller.FromFiber(c), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, h.production, apperr.CodeUnknown)
	}

	return c.JSON(dto.AuthResponse{Token: payload.Token, User: payload.User})
}

// Social handles POST /api/auth/:provider for google, facebook and apple.
func (h *AuthHandler) Social(c *fiber.Ctx) error {
	kind := models.AuthType(c.Params("provider"))
	if !kind.IsSocial() {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown provider",
		})
	}

	var req dto.SocialSignInRequest
	if err := c.BodyParser(&req); err != nil || req.AccessToken == "" {
		return badRequest(c, h.production)
	}

	payload, err := h.social.SignIn(c.UserContext(), caller.FromFiber(c), kind, req.AccessToken)
	if err != nil {
		return respondError(c, err, h.production, apperr.CodeSignInWithSocialFailed)
	}

	return c.JSON(dto.AuthResponse{Token: payload.Token, User: payload.User})
}
