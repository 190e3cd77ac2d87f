package mapping

import (
	"cmp"
	"strconv"
	"strings"
)

// Key identifies a source: an integer or a string.
type Key struct {
	str   string
	num   int64
	isStr bool
}

// IntKey builds an integer key.
func IntKey(n int64) Key { return Key{num: n} }

// StringKey builds a string key.
func StringKey(s string) Key { return Key{str: s, isStr: true} }

// ParseKey reads a canonical integer as an integer key and anything else as
// a string key.
func ParseKey(raw string) Key {
	trimmed := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil && strconv.FormatInt(n, 10) == trimmed {
		return IntKey(n)
	}
	return StringKey(raw)
}

// IsString reports whether the key is a string key.
func (k Key) IsString() bool { return k.isStr }

// Int returns the integer value of an integer key.
func (k Key) Int() (int64, bool) { return k.num, !k.isStr }

func (k Key) String() string {
	if k.isStr {
		return k.str
	}
	return strconv.FormatInt(k.num, 10)
}

// MarshalText renders the key for use as a JSON object key.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a key written by MarshalText.
func (k *Key) UnmarshalText(data []byte) error {
	*k = ParseKey(string(data))
	return nil
}

// Compare orders integer keys numerically before string keys, which sort
// lexically.
func Compare(a, b Key) int {
	switch {
	case a.isStr != b.isStr:
		if a.isStr {
			return 1
		}
		return -1
	case a.isStr:
		return cmp.Compare(a.str, b.str)
	default:
		return cmp.Compare(a.num, b.num)
	}
}
