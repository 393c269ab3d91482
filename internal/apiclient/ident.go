package apiclient

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Key is the set of identifier types a Resource can be addressed by.
type Key interface {
	int | int64 | string
}

// IDFormatter normalizes a string identifier before it is placed in a URL.
type IDFormatter interface {
	Format(id string) string
}

// Passthrough leaves identifiers untouched.
type Passthrough struct{}

func (Passthrough) Format(id string) string { return id }

// PadRight right-pads identifiers shorter than Width with Pad (space when
// empty). Identifiers already Width runes or longer are returned unchanged.
// Backends with fixed-width CHAR key columns expect the padded form.
type PadRight struct {
	Width int
	Pad   string
}

func (p PadRight) Format(id string) string {
	n := utf8.RuneCountInString(id)
	if n >= p.Width {
		return id
	}
	pad := p.Pad
	if pad == "" {
		pad = " "
	}
	return id + strings.Repeat(pad, p.Width-n)
}

// KeyString renders an identifier in its canonical string form: decimal for
// numbers, the raw value for strings.
func KeyString[K Key](id K) string {
	switch v := any(id).(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return ""
	}
}

// ParseKey converts command-line input into a K.
func ParseKey[K Key](s string) (K, error) {
	var zero K
	switch any(zero).(type) {
	case int:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return zero, err
		}
		return any(n).(K), nil
	case int64:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return zero, err
		}
		return any(n).(K), nil
	default:
		return any(s).(K), nil
	}
}
