package transport

import "encoding/json"

// Envelope is the discriminated response shape applied uniformly at
// the transport boundary. Every endpoint responds with it, success or
// failure, so call sites never special-case unwrapping.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
}
