// Package apperr defines the client-visible error taxonomy and its localized messages.
package apperr

import "net/http"

// Code is a machine-readable error code, also the message catalog key.
type Code string

const (
	CodeNotAuthorized          Code = "ERR_NOT_AUTHORIZED"
	CodeUserNotFound           Code = "ERR_USER_NOT_EXISTS"
	CodeIsSocialUser           Code = "ERR_IS_SOCIAL_USER"
	CodePasswordIncorrect      Code = "ERR_PASSWORD_INCORRECT"
	CodeEmailAlreadyExists     Code = "ERR_EMAIL_ALREADY_EXISTS"
	CodeUserCanceledAccount    Code = "ERR_USER_CANCELED_ACCOUNT"
	CodeDisplayNameExists      Code = "ERR_DISPLAY_NAME_EXISTS"
	CodeSignInWithSocialFailed Code = "ERR_SIGN_IN_WITH_SOCIAL"
	CodeUploadFailed           Code = "ERR_UPLOAD"
	CodeUserCreateFailed       Code = "ERR_USER_CREATE_FAILED"
	CodeInvalidInput           Code = "ERR_INVALID_INPUT"
	CodeUnknown                Code = "ERR_UNKNOWN"
)

// HTTPStatus maps a code to the status the transport answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotAuthorized, CodePasswordIncorrect:
		return http.StatusUnauthorized
	case CodeUserNotFound:
		return http.StatusNotFound
	case CodeEmailAlreadyExists, CodeDisplayNameExists, CodeUserCanceledAccount:
		return http.StatusConflict
	case CodeIsSocialUser, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeSignInWithSocialFailed:
		return http.StatusUnauthorized
	case CodeUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
