package backend

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Kind classifies a failed backend call.
// A Kind is itself an error so callers can write errors.Is(err, backend.KindTimeout).
type Kind int

const (
	// KindUnknown is never produced by the client.
	KindUnknown Kind = iota
	// KindUnauthorized means the session is missing or was rejected with 401.
	KindUnauthorized
	// KindValidation means the input was rejected (422, 409, 400 or a client-side check).
	KindValidation
	// KindNotFound means the backend answered 404.
	KindNotFound
	// KindForbidden means the backend answered 403 or the console refused the action.
	KindForbidden
	// KindNetwork means the request never produced a response.
	KindNetwork
	// KindTimeout means the request deadline passed.
	KindTimeout
	// KindCanceled means the caller aborted the request.
	KindCanceled
	// KindServer means a 5xx, an unexpected status or an unreadable body.
	KindServer
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindUnauthorized: "unauthorized",
	KindValidation:   "validation",
	KindNotFound:     "not found",
	KindForbidden:    "forbidden",
	KindNetwork:      "network",
	KindTimeout:      "timeout",
	KindCanceled:     "canceled",
	KindServer:       "server",
}

// String returns the kind name.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Error implements error.
func (k Kind) Error() string {
	return "backend: " + k.String()
}

// Shorthands for errors.Is checks.
var (
	ErrUnauthorized error = KindUnauthorized
	ErrValidation   error = KindValidation
	ErrNotFound     error = KindNotFound
	ErrForbidden    error = KindForbidden
	ErrNetwork      error = KindNetwork
	ErrTimeout      error = KindTimeout
	ErrCanceled     error = KindCanceled
	ErrServer       error = KindServer
)

// errNoToken is returned by the token source when the store is empty.
var errNoToken = errors.New("no session token")

// Error is a failed backend call.
type Error struct {
	Kind    Kind
	Status  int                 // HTTP status, 0 when no response was received
	Message string              // backend or client supplied message, shown to the operator verbatim
	Fields  map[string][]string // per-field validation messages from a 422 body
	Err     error               // underlying transport error, if any
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("backend: ")
	b.WriteString(e.Kind.String())

	if e.Status != 0 {
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(e.Status))
		b.WriteString(")")
	}

	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the transport error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// FieldMessages returns the validation messages flattened and sorted by field.
func (e *Error) FieldMessages() []string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}

	sort.Strings(fields)

	var out []string
	for _, f := range fields {
		out = append(out, e.Fields[f]...)
	}

	return out
}

// Invalid returns a client-side validation error with an operator-facing message.
func Invalid(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Refused returns a client-side forbidden error with an operator-facing message.
func Refused(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}

	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return KindUnknown
}

// IsUnauthorized reports whether err is an unauthorized failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Message returns the text to show an operator for err. Backend messages are
// returned verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}

	return err.Error()
}

// errorBody is the JSON error shape of the backend.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// statusKind maps an HTTP status to a Kind.
func statusKind(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return KindValidation
	}

	return KindServer
}

// transportError classifies an error returned before any response was read.
func transportError(err error) *Error {
	var k Kind

	var netErr net.Error

	switch {
	case errors.Is(err, errNoToken):
		k = KindUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		k = KindTimeout
	case errors.Is(err, context.Canceled):
		k = KindCanceled
	case errors.As(err, &netErr) && netErr.Timeout():
		k = KindTimeout
	default:
		k = KindNetwork
	}

	return &Error{Kind: k, Err: err}
}

// limiterError classifies a failed rate limiter wait. The limiter refuses up
// front when the wait would outlive the deadline, before ctx itself expires.
func limiterError(ctx context.Context, err error) *Error {
	if ctx.Err() == nil {
		if _, ok := ctx.Deadline(); ok {
			return &Error{Kind: KindTimeout, Err: err}
		}
	}

	return transportError(err)
}

// LogError returns a log event for a failed operation. Unauthorized failures
// are handled globally and yield a nil event, which zerolog treats as a no-op.
// Validation failures are logged at warn level.
func LogError(err error) *zerolog.Event {
	switch {
	case err == nil, IsUnauthorized(err):
		return nil
	case IsValidation(err):
		return log.Warn().Err(err)
	}

	return log.Error().Err(err)
}
