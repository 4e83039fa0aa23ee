package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/caller"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/services"
)

const imageField = "image"

// respondError writes err as a dto.ErrorResponse. Production responses carry
// the localized message for the error code, or for fallback when err has none.
func respondError(c *fiber.Ctx, err error, production bool, fallback apperr.Code) error {
	code := apperr.CodeOf(err)
	if code == apperr.CodeUnknown && fallback != "" {
		code = fallback
	}

	status := code.HTTPStatus()
	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(),
			"code", code,
			"error", err,
		)
	}

	locale := caller.FromFiber(c).Locale
	return c.Status(status).JSON(dto.ErrorResponse{
		Error:   true,
		Code:    string(code),
		Message: apperr.Message(err, locale, production, fallback),
	})
}

func badRequest(c *fiber.Ctx, production bool) error {
	return respondError(c, apperr.New(apperr.CodeInvalidInput), production, "")
}

// formImage returns the optional image part of a multipart request. The
// returned close func is never nil.
func formImage(c *fiber.Ctx) (*services.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}

	header, err := c.FormFile(imageField)
	if errors.Is(err, fasthttp.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	return openUpload(header)
}

func openUpload(header *multipart.FileHeader) (*services.Upload, func(), error) {
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &services.Upload{
		Reader:      f,
		Size:        header.Size,
		ContentType: header.Header.Get(fiber.HeaderContentType),
	}, func() { _ = f.Close() }, nil
}
