package terminal

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KeyInterrupt is Ctrl+C as delivered in raw mode.
	KeyInterrupt byte = 0x03
	// DefaultToggleKey is Ctrl+T.
	DefaultToggleKey byte = 0x14
)

var ErrInvalidKey = errors.New("invalid key")

// ParseKey maps a key name such as "ctrl+t" or a single character to the
// byte a raw-mode terminal delivers for it. Ctrl+C is reserved.
func ParseKey(name string) (byte, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return DefaultToggleKey, nil
	}

	var key byte
	switch {
	case strings.HasPrefix(trimmed, "ctrl+") || strings.HasPrefix(trimmed, "ctrl-"):
		rest := trimmed[len("ctrl+"):]
		if len(rest) != 1 || rest[0] < 'a' || rest[0] > 'z' {
			return 0, fmt.Errorf("%w: %s", ErrInvalidKey, name)
		}
		key = rest[0] & 0x1f
	case strings.HasPrefix(trimmed, "^") && len(trimmed) == 2:
		return ParseKey("ctrl+" + trimmed[1:])
	case len(trimmed) == 1:
		key = trimmed[0]
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidKey, name)
	}

	if key == KeyInterrupt {
		return 0, fmt.Errorf("%w: ctrl+c is reserved for cancelling a turn", ErrInvalidKey)
	}
	return key, nil
}

// KeyName renders a key byte for display.
func KeyName(key byte) string {
	if key >= 1 && key <= 26 {
		return fmt.Sprintf("Ctrl+%c", 'A'+key-1)
	}
	return fmt.Sprintf("%q", rune(key))
}
