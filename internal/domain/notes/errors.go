package notes

import (
	"errors"
	"strings"
)

type ErrorKind string

const (
	KindSchema                 ErrorKind = "schema"
	KindGenerationFailed       ErrorKind = "generation_failed"
	KindInvalidGeneratorOutput ErrorKind = "invalid_generator_output"
	KindIllustrationFailed     ErrorKind = "illustration_failed"
	KindCapture                ErrorKind = "capture"
	KindEncode                 ErrorKind = "encode"
)

// Error is the pipeline's error type. Two Errors match under errors.Is when their kinds match,
// so callers test against the Err* sentinels below.
type Error struct {
	Kind    ErrorKind
	Message string
	Issues  []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.Issues) > 0 {
		shown := e.Issues
		if len(shown) > 5 {
			shown = shown[:5]
		}
		msg += ": " + strings.Join(shown, "; ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrSchema                 = &Error{Kind: KindSchema}
	ErrGenerationFailed       = &Error{Kind: KindGenerationFailed}
	ErrInvalidGeneratorOutput = &Error{Kind: KindInvalidGeneratorOutput}
	ErrIllustrationFailed     = &Error{Kind: KindIllustrationFailed}
	ErrCapture                = &Error{Kind: KindCapture}
	ErrEncode                 = &Error{Kind: KindEncode}
)

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

const (
	MsgSchema           = "The notes we received were incomplete or malformed. Please try a different source."
	MsgInvalidOutput    = "The AI returned an invalid response. The lecture might be private, very new, or have other restrictions. Please try a different source."
	MsgGenerationFailed = "The AI model failed to process the lecture. It may be private or have restrictions."
	MsgExportFailed     = "Could not export the notes. Please try again."
	MsgUnknown          = "An unknown error occurred."
)

// UserMessage maps an error to the text shown to the user. GenerationFailed messages come
// from the collaborator and are surfaced verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			return msg
		}
		return MsgUnknown
	}
	switch e.Kind {
	case KindSchema:
		return MsgSchema
	case KindInvalidGeneratorOutput:
		return MsgInvalidOutput
	case KindGenerationFailed:
		if msg := strings.TrimSpace(e.Message); msg != "" {
			return msg
		}
		return MsgGenerationFailed
	case KindCapture, KindEncode:
		return MsgExportFailed
	default:
		return MsgUnknown
	}
}
