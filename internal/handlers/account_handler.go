package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/caller"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/services"
)

type AccountHandler struct {
	accounts   *services.AccountService
	production bool
}

func NewAccountHandler(accounts *services.AccountService, production bool) *AccountHandler {
	return &AccountHandler{accounts: accounts, production: production}
}

func (h *AccountHandler) Me(c *fiber.Ctx) error {
	user, err := h.accounts.Me(c.UserContext(), caller.FromFiber(c))
	if err != nil {
		return respondError(c, err, h.production, apperr.CodeUnknown)
	}
	return c.JSON(user)
}

// UpdateProfile accepts JSON or multipart/form-data with an optional "image" part.
func (h *AccountHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, h.production)
	}

	input := services.ProfileInput{
		DisplayName: req.DisplayName,
		Name:        req.Name,
		Gender:      req.Gender,
		Phone:       req.Phone,
	}
	if req.Birthday != nil && *req.Birthday != "" {
		birthday, err := parseBirthday(*req.Birthday)
		if err != nil {
			return badRequest(c, h.production)
		}
		input.Birthday = &birthday
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		return badRequest(c, h.production)
	}
	defer closeImage()

	user, err := h.accounts.UpdateProfile(c.UserContext(), caller.FromFiber(c), input, image, req.DeleteImage)
	if err != nil {
		return respondError(c, err, h.production, apperr.CodeUnknown)
	}
	return c.JSON(user)
}

func (h *AccountHandler) Withdraw(c *fiber.Ctx) error {
	if err := h.accounts.WithdrawUser(c.UserContext(), caller.FromFiber(c)); err != nil {
		return respondError(c, err, h.production, apperr.CodeUnknown)
	}
	return c.JSON(fiber.Map{"success": true})
}

func parseBirthday(v string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
