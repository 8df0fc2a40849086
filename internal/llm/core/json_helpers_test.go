package core

import (
	"encoding/json"
	"errors"
	"testing"
)

type errJSONMarshaler struct{}

func (errJSONMarshaler) MarshalJSON() ([]byte, error) {
	return nil, errors.New("boom")
}

func TestMarshalToolInput(t *testing.T) {
	t.Parallel()

	got, err := MarshalToolInput(nil)
	if err != nil || string(got) != "{}" {
		t.Fatalf("MarshalToolInput(nil) = %q, %v; want {}", got, err)
	}

	got, err = MarshalToolInput(map[string]any{"path": "main.go"})
	if err != nil {
		t.Fatalf("MarshalToolInput(map) error = %v", err)
	}
	if string(got) != `{"path":"main.go"}` {
		t.Fatalf("MarshalToolInput(map) = %s", got)
	}

	if _, err := MarshalToolInput(errJSONMarshaler{}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestDecodeJSONObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     json.RawMessage
		wantLen int
		wantErr error
	}{
		{name: "blank", raw: json.RawMessage("  "), wantLen: 0},
		{name: "object", raw: json.RawMessage(`{"path":"a","max_results":3}`), wantLen: 2},
		{name: "truncated", raw: json.RawMessage(`{"path":`), wantErr: ErrInvalidRequest},
		{name: "array", raw: json.RawMessage(`[1,2]`), wantErr: errors.New("any")},
		{name: "null", raw: json.RawMessage(`null`), wantLen: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeJSONObject(tc.raw)
			if tc.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error, got %#v", got)
				}
				if errors.Is(tc.wantErr, ErrInvalidRequest) && !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("error = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSONObject() error = %v", err)
			}
			if len(got) != tc.wantLen {
				t.Fatalf("len = %d, want %d (%#v)", len(got), tc.wantLen, got)
			}
		})
	}
}

func TestNormalizeArguments(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{in: ``, want: `{}`},
		{in: `{"url":`, want: `{}`},
		{in: `"just a string"`, want: `{}`},
		{in: ` {"url":"x"} `, want: `{"url":"x"}`},
		{in: `{"a":{"b":[1]}}`, want: `{"a":{"b":[1]}}`},
	}
	for _, tc := range cases {
		if got := string(NormalizeArguments(json.RawMessage(tc.in))); got != tc.want {
			t.Fatalf("NormalizeArguments(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
