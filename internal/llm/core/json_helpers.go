package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MarshalToolInput serializes decoded tool input, yielding "{}" for nil input.
func MarshalToolInput(input any) (json.RawMessage, error) {
	if input == nil {
		return json.RawMessage("{}"), nil
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("tool input is not valid json")
	}
	return raw, nil
}

// DecodeJSONObject decodes raw as a JSON object. Blank input decodes to an
// empty map.
func DecodeJSONObject(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: invalid tool input json", ErrInvalidRequest)
	}
	obj := map[string]any{}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("decode tool input: %w", err)
	}
	if obj == nil {
		return map[string]any{}, nil
	}
	return obj, nil
}

// DecodeJSONObjectOrEmpty is DecodeJSONObject with any failure mapped to an
// empty map.
func DecodeJSONObjectOrEmpty(raw json.RawMessage) map[string]any {
	obj, err := DecodeJSONObject(raw)
	if err != nil {
		return map[string]any{}
	}
	return obj
}

// NormalizeArguments returns raw when it holds a JSON object and "{}"
// otherwise, so malformed model output degrades to an empty argument set.
func NormalizeArguments(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return json.RawMessage("{}")
	}
	if _, err := DecodeJSONObject(trimmed); err != nil {
		return json.RawMessage("{}")
	}
	return append(json.RawMessage(nil), trimmed...)
}
