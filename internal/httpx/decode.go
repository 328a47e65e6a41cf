package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

// DefaultMaxBodyBytes is the request body limit used when none is configured (1MB).
const DefaultMaxBodyBytes = 1 << 20

// DecodeJSON decodes JSON from the request body into a T, rejecting bodies
// larger than limit bytes, unknown fields and trailing data.
// Oversized bodies fail with errx.TooLarge, everything else with errx.BadRequest.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, error) {
	const op = "httpx.DecodeJSON"
	var zeroValue T

	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer func() {
		_ = r.Body.Close()
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var v T
	if err := decoder.Decode(&v); err != nil {
		var syntaxErr *json.SyntaxError
		var unmarshalErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.As(err, &maxBytesErr):
			return zeroValue, errx.E(op, errx.TooLarge,
				fmt.Errorf("request body too large (max %d bytes)", maxBytesErr.Limit))
		case errors.As(err, &syntaxErr):
			return zeroValue, errx.E(op, errx.BadRequest,
				fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset))
		case errors.As(err, &unmarshalErr):
			return zeroValue, errx.E(op, errx.BadRequest,
				fmt.Errorf("invalid value for field %q", unmarshalErr.Field))
		case errors.Is(err, io.EOF):
			return zeroValue, errx.E(op, errx.BadRequest, errors.New("request body is empty"))
		case errors.Is(err, io.ErrUnexpectedEOF):
			return zeroValue, errx.E(op, errx.BadRequest, errors.New("request body is truncated"))
		default:
			return zeroValue, errx.E(op, errx.BadRequest, fmt.Errorf("failed to decode JSON: %w", err))
		}
	}

	// Ensure there's no additional data after the JSON object
	if decoder.More() {
		return zeroValue, errx.E(op, errx.BadRequest, errors.New("request body contains multiple JSON objects"))
	}

	return v, nil
}
