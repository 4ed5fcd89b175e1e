package remote

import (
	"encoding/json"
	"fmt"
)

// envelope is the response wrapper every endpoint uses:
// { "success": bool, "message": string, "data": ... }.
// Error bodies may carry per-field validation messages.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// decodeEnvelope parses a response body into the envelope, tolerating
// an empty body (some DELETE endpoints return nothing useful).
func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope
	if len(body) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("remote: malformed response envelope: %w", err)
	}
	return env, nil
}

// decodeData unmarshals the envelope payload into out. A null or
// absent payload leaves out untouched.
func decodeData(env envelope, out any) error {
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("remote: malformed response data: %w", err)
	}
	return nil
}
