package domain

import (
	"net/http"

	"github.com/ansel1/merry"
)

// Error kinds. Each carries the HTTP status the API layer answers with.
var (
	ErrNotFound        = merry.New("not found").WithHTTPCode(http.StatusNotFound)
	ErrInvalidArgument = merry.New("invalid argument").WithHTTPCode(http.StatusBadRequest)
	ErrAlreadyExists   = merry.New("already exists").WithHTTPCode(http.StatusBadRequest)
	ErrWriteFailure    = merry.New("write failure").WithHTTPCode(http.StatusInternalServerError)
	ErrInternal        = merry.New("internal error").WithHTTPCode(http.StatusInternalServerError)
)

// MsgDuplicateName user message of a registration whose name is taken
const MsgDuplicateName = "Sensor with same name already registered"

// NewError derives an error of the given kind; the formatted text is also the user message
func NewError(kind merry.Error, format string, args ...interface{}) error {
	return kind.Here().
		WithMessagef(format, args...).
		WithUserMessagef(format, args...)
}

// Wrap derives an error of the given kind that keeps cause for logs
func Wrap(kind merry.Error, cause error, format string, args ...interface{}) error {
	return kind.Here().
		WithMessagef(format, args...).
		WithUserMessagef(format, args...).
		WithCause(cause)
}

func IsNotFound(err error) bool        { return merry.Is(err, ErrNotFound) }
func IsInvalidArgument(err error) bool { return merry.Is(err, ErrInvalidArgument) }
func IsAlreadyExists(err error) bool   { return merry.Is(err, ErrAlreadyExists) }
func IsWriteFailure(err error) bool    { return merry.Is(err, ErrWriteFailure) }
func IsInternal(err error) bool        { return merry.Is(err, ErrInternal) }

// HTTPStatus returns the status for err (500 for unclassified errors)
func HTTPStatus(err error) int {
	return merry.HTTPCode(err)
}

// UserMessage is the text safe to return to API callers
func UserMessage(err error) string {
	if msg := merry.UserMessage(err); msg != "" {
		return msg
	}
	return "internal error"
}
