package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds request bodies decoded by DecodeJSON.
const MaxBodyBytes = 1 << 20

var (
	// ErrEmptyBody is returned when a request has no body.
	ErrEmptyBody = errors.New("request body is empty")

	// ErrMalformedBody is returned when a body is not a single JSON object.
	ErrMalformedBody = errors.New("request body must be a JSON object")
)

// DecodeJSON decodes the request body as a JSON object. Numbers are kept as
// json.Number so the validator can tell integers from fractions.
func DecodeJSON(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return nil, ErrEmptyBody
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if payload == nil || dec.More() {
		return nil, ErrMalformedBody
	}
	return payload, nil
}
