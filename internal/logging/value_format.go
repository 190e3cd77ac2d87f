package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// attrString renders v without quoting, for values the console handler
// places in the line prefix (component, compile id).
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return plainValue(v)
}

// formatValue renders v as the right-hand side of a key=value pair.
func formatValue(v slog.Value) string {
	s := plainValue(v.Resolve())
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func plainValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		// Interval bounds are logged often; keep them short.
		return strconv.FormatFloat(v.Float64(), 'g', 8, 64)
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		case []string:
			return strings.Join(x, ",")
		default:
			return fmt.Sprint(x)
		}
	default:
		return v.String()
	}
}

func needsQuotes(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}
