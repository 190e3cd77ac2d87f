package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Canonical trims surrounding space and applies NFC so that visually
// identical names compare and encode identically.
func Canonical(s string) string {
	s = strings.TrimSpace(s)
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// NFC normalizes s without trimming.
func NFC(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// Title renders a track name such as "face_boxes" as "Face Boxes".
func Title(s string) string {
	fields := strings.FieldsFunc(Canonical(s), func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(fields, " "))
}
