package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

var (
	// ErrNoRoute is returned by the router when no route claims a request.
	ErrNoRoute = errors.New("no route matched")
	// ErrMethodNotAllowed is returned when a path matched but its method did not.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Challenge is implemented by credential failures. The rejection handler
// copies WWWAuthenticate into the response header of the 401 it writes.
type Challenge interface {
	error
	WWWAuthenticate() string
}

// HandlerFunc is an http handler that reports failure by returning an error
// instead of writing it.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// classifier claims an error by returning its kind, or defers with false.
type classifier func(err error) (errx.Kind, bool)

// classifiers run in priority order; the first to claim an error wins.
var classifiers = []classifier{
	applicationError,
	credentialChallenge,
	payloadTooLarge,
	malformedBody,
	methodNotAllowed,
	noRoute,
}

func applicationError(err error) (errx.Kind, bool) {
	kind := errx.KindOf(err)
	return kind, kind != errx.Unknown
}

func credentialChallenge(err error) (errx.Kind, bool) {
	var ch Challenge
	return errx.Unauthorized, errors.As(err, &ch)
}

func payloadTooLarge(err error) (errx.Kind, bool) {
	var maxBytesErr *http.MaxBytesError
	return errx.TooLarge, errors.As(err, &maxBytesErr)
}

func malformedBody(err error) (errx.Kind, bool) {
	var syntaxErr *json.SyntaxError
	var unmarshalErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &unmarshalErr), errors.Is(err, io.ErrUnexpectedEOF):
		return errx.BadRequest, true
	default:
		return errx.Unknown, false
	}
}

func methodNotAllowed(err error) (errx.Kind, bool) {
	return errx.MethodNotAllowed, errors.Is(err, ErrMethodNotAllowed)
}

func noRoute(err error) (errx.Kind, bool) {
	return errx.NotFound, errors.Is(err, ErrNoRoute)
}

// Classify walks the classifier chain. Anything unclaimed is Internal.
func Classify(err error) errx.Kind {
	for _, claim := range classifiers {
		if kind, ok := claim(err); ok {
			return kind
		}
	}
	return errx.Internal
}

const (
	msgNotFound   = "not found"
	msgConflict   = "a field was not unique"
	msgDatabase   = "a database error occurred"
	msgTooLarge   = "request body too large"
	msgNotAllowed = "method not allowed"
	msgInternal   = "an internal error occurred"
)

// Rejecter converts failures into the final HTTP response.
type Rejecter struct {
	logger *slog.Logger
	realm  string
}

// NewRejecter returns a Rejecter. realm is used for 401 responses whose
// error carries no challenge of its own.
func NewRejecter(logger *slog.Logger, realm string) *Rejecter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rejecter{logger: logger, realm: realm}
}

// Handle adapts fn to an http.HandlerFunc, rejecting any error it returns.
func (rj *Rejecter) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			rj.Reject(w, r, err)
		}
	}
}

// Reject writes the response for err. Detail of server-side failures is
// logged and never written to the client.
func (rj *Rejecter) Reject(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	kind := Classify(err)
	status := ErrorKindToStatus(kind)
	code := ErrorKindToCode(kind)

	logAttrs := []any{
		"request_id", GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound:
		rj.logger.DebugContext(ctx, "request rejected", logAttrs...)
		WriteError(w, status, code, msgNotFound)

	case errx.Conflict:
		rj.logger.WarnContext(ctx, "request rejected", logAttrs...)
		WriteError(w, status, code, msgConflict)

	case errx.Constraint:
		rj.logger.ErrorContext(ctx, "database constraint failure", logAttrs...)
		WriteError(w, status, code, msgDatabase)

	case errx.Invalid, errx.BadRequest:
		rj.logger.WarnContext(ctx, "request rejected", logAttrs...)
		WriteError(w, status, code, errx.Detail(err))

	case errx.Unauthorized:
		rj.logger.WarnContext(ctx, "request rejected", logAttrs...)
		w.Header().Set("WWW-Authenticate", rj.challenge(err))
		WriteError(w, status, code, errx.Detail(err))

	case errx.TooLarge:
		rj.logger.WarnContext(ctx, "request rejected", logAttrs...)
		WriteError(w, status, code, msgTooLarge)

	case errx.MethodNotAllowed:
		rj.logger.DebugContext(ctx, "request rejected", logAttrs...)
		WriteError(w, status, code, msgNotAllowed)

	case errx.Internal, errx.Unknown:
		rj.logger.ErrorContext(ctx, "request failed", logAttrs...)
		WriteError(w, status, code, msgInternal)

	default:
		rj.logger.ErrorContext(ctx, "request failed with unmapped kind", logAttrs...)
		WriteError(w, http.StatusInternalServerError, "internal_error", msgInternal)
	}
}

func (rj *Rejecter) challenge(err error) string {
	var ch Challenge
	if errors.As(err, &ch) {
		return ch.WWWAuthenticate()
	}
	return BasicChallenge(rj.realm)
}

// BasicChallenge formats a WWW-Authenticate value for the Basic scheme.
func BasicChallenge(realm string) string {
	return fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, realm)
}
