package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// InvalidJSONMessage is the 400 message for a body that is not JSON.
const InvalidJSONMessage = "Invalid JSON body"

// ErrInvalidJSON is returned by DecodeJSON for unreadable or malformed bodies.
// Handlers report it as InvalidJSONMessage.
var ErrInvalidJSON = errors.New("invalid JSON body")

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONError writes {"error": message}.
func WriteJSONError(w http.ResponseWriter, message string, status int) {
	WriteJSON(w, map[string]string{"error": message}, status)
}

// DecodeJSON reads the request body into v.
//
// A field whose JSON type does not match its Go type is left at its zero
// value instead of failing the request, so the caller's validation reports
// the field by name. Only unreadable or syntactically broken bodies return
// ErrInvalidJSON.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return ErrInvalidJSON
	}
	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil
		}
		return ErrInvalidJSON
	}
	return nil
}

// ObjectOrNil returns raw when it holds a JSON object and nil otherwise.
func ObjectOrNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil
	}
	return raw
}
