package apperr

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Error is a domain error: a code plus the underlying cause, if any.
type Error struct {
	Code Code
	Err  error
}

func New(code Code) *Error {
	return &Error{Code: code}
}

func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so errors.Is(err, apperr.New(code)) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// CodeOf returns the code of the outermost domain error, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Message is the text a client sees for err. Outside production it is the raw
// error so failures can be debugged; in production it is the localized message
// of the domain code, or of fallback when err carries none.
func Message(err error, locale language.Tag, production bool, fallback Code) string {
	if err == nil {
		return ""
	}
	if !production {
		return err.Error()
	}
	code := CodeOf(err)
	if code == CodeUnknown && fallback != "" {
		code = fallback
	}
	return Localize(locale, code)
}
