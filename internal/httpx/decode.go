package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxRequestBodySize is the largest accepted request body (1MB).
const MaxRequestBodySize = 1 << 20

// DecodeJSON decodes a single JSON object from the request body into T.
// Unknown fields, trailing data and bodies over MaxRequestBodySize are
// rejected with client-safe messages.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T

	body := http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	defer func() { _ = body.Close() }()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&v); err != nil {
		var zero T
		return zero, decodeError(err)
	}
	if dec.More() {
		var zero T
		return zero, errors.New("request body contains multiple JSON objects")
	}
	return v, nil
}

func decodeError(err error) error {
	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
		parseErr    *time.ParseError
	)

	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Errorf("invalid value for field %q", typeErr.Field)
	case errors.As(err, &parseErr):
		return errors.New("invalid timestamp value")
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body too large (max %d bytes)", MaxRequestBodySize)
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("malformed JSON: unexpected end of input")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return fmt.Errorf("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	default:
		// other decoder errors carry Go type names; keep them out of responses
		return errors.New("request body could not be decoded")
	}
}
