package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
)

type Error struct {
	Status int
	Code   string
	// Message is shown to users in place of Err's text when set.
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps pipeline errors to HTTP errors. Anything already an *Error passes through;
// unknown errors become 500s.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var ne *notes.Error
	if !errors.As(err, &ne) {
		return &Error{Status: http.StatusInternalServerError, Code: "internal", Message: notes.MsgUnknown, Err: err}
	}
	out := &Error{Code: string(ne.Kind), Message: notes.UserMessage(ne), Err: err}
	switch ne.Kind {
	case notes.KindSchema, notes.KindInvalidGeneratorOutput, notes.KindGenerationFailed, notes.KindIllustrationFailed:
		out.Status = http.StatusBadGateway
	default:
		out.Status = http.StatusInternalServerError
	}
	return out
}
