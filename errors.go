package taskdesk

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ErrMissingSigningKey is returned at startup when no secret is configured
var ErrMissingSigningKey = errors.New("signing key is required")

// ErrInvalidClaims the credential payload does not have the expected shape
var ErrInvalidClaims = errors.New("invalid credential claims")

// ErrPendingNotFound no pending payload for the given key
var ErrPendingNotFound = errors.New("pending payload not found")

// ErrUnknownAction the action name is not part of the gate's action set
var ErrUnknownAction = errors.New("unknown action")

// ErrMissingUser a signup or login handler succeeded without a user
var ErrMissingUser = errors.New("action result is missing the user")

// Error codes carried by ActionError. They mirror the codes the UI layer
// already understands.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// User facing messages
const (
	MessageOperationFailed = "Une erreur est survenue"
	MessageInvalidForm     = "Le formulaire contient des erreurs"
	MessageTooManyAttempts = "Trop de tentatives, veuillez réessayer plus tard"
)

// ActionError is the failure branch of an ActionResult.
type ActionError struct {
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// NewActionError builds an ActionError with the given code and message
func NewActionError(code, message string) *ActionError {
	return &ActionError{Code: code, Message: message}
}

func (e *ActionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %s", e.Action, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithField adds a field level message
func (e *ActionError) WithField(name, message string) *ActionError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[name] = message
	return e
}

// HTTPStatus maps the error code to a response status
func (e *ActionError) HTTPStatus() int {
	switch e.Code {
	case CodeBadRequest:
		return 400
	case CodeUnauthorized:
		return 401
	case CodeTooManyRequests:
		return 429
	default:
		return 500
	}
}

func (e *ActionError) clone() *ActionError {
	if e == nil {
		return nil
	}
	out := *e
	if e.Fields != nil {
		out.Fields = make(map[string]string, len(e.Fields))
		for k, v := range e.Fields {
			out.Fields[k] = v
		}
	}
	return &out
}

// ValidationError converts ozzo validation errors into an ActionError
// with one message per field.
func ValidationError(err error) (*ActionError, bool) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	out := NewActionError(CodeBadRequest, MessageInvalidForm)
	for field, ferr := range verrs {
		if ferr == nil {
			continue
		}
		out.WithField(field, ferr.Error())
	}
	return out, true
}

// AsActionError extracts a user facing error from err: an *ActionError
// anywhere in the chain or ozzo validation errors. Anything else is not
// safe to show and yields false.
func AsActionError(err error) (*ActionError, bool) {
	var aerr *ActionError
	if errors.As(err, &aerr) && aerr != nil {
		return aerr.clone(), true
	}
	return ValidationError(err)
}

// IsActionError reports whether err carries an ActionError with code
func IsActionError(err error, code string) bool {
	var aerr *ActionError
	if !errors.As(err, &aerr) {
		return false
	}
	return strings.EqualFold(aerr.Code, code)
}
