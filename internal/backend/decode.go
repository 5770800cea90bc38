package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeBody decodes a success body into out. Both bare values and
// {"data": ...} envelopes are accepted.
func decodeBody(data []byte, out any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	if inner, ok := unwrapEnvelope(data); ok {
		data = inner
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// unwrapEnvelope returns the "data" member of an object that looks like an
// envelope rather than an entity (it has "data" but no "id").
func unwrapEnvelope(data []byte) (json.RawMessage, bool) {
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}

	inner, hasData := obj["data"]
	if _, hasID := obj["id"]; !hasData || hasID {
		return nil, false
	}

	return inner, true
}

// decodeError builds an *Error from a non 2xx response body.
func decodeError(status int, data []byte) *Error {
	e := &Error{Kind: statusKind(status), Status: status}

	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		e.Message = body.Message
		e.Fields = body.Errors
	}

	if e.Message == "" && len(e.Fields) > 0 {
		if msgs := e.FieldMessages(); len(msgs) > 0 {
			e.Message = msgs[0]
		}
	}

	return e
}
