package parameter

import (
	"strings"
	"unicode"
)

// segment is either literal text or a placeholder name.
type segment struct {
	literal string
	name    string
}

// wholePlaceholder reports whether s is exactly one %name% placeholder.
func wholePlaceholder(s string) (string, bool) {
	if len(s) < 3 || s[0] != '%' || s[len(s)-1] != '%' {
		return "", false
	}
	name := s[1 : len(s)-1]
	if !validName(name) {
		return "", false
	}
	return name, true
}

// validName reports whether name can appear between two % signs. Names
// never contain whitespace or %.
func validName(name string) bool {
	return name != "" && !strings.ContainsFunc(name, func(r rune) bool {
		return r == '%' || unicode.IsSpace(r)
	})
}

// scan splits s into literal text and embedded placeholders.
//
// A '%' directly preceded by another '%' never opens a placeholder, so
// escaped percent signs pass through untouched. Neither does a '%' whose
// closing '%' would enclose whitespace: "50% off, 20% more" is literal.
func scan(s string) []segment {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		if s[i] != '%' || (i > 0 && s[i-1] == '%') {
			lit.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i+1:], '%')
		if end <= 0 || !validName(s[i+1:i+1+end]) {
			lit.WriteByte('%')
			i++
			continue
		}
		flush()
		segs = append(segs, segment{name: s[i+1 : i+1+end]})
		i += end + 2
	}
	flush()
	return segs
}

// EscapeValue doubles every % in strings nested anywhere in v.
func EscapeValue(v any) any {
	return mapStrings(v, func(s string) string {
		return strings.ReplaceAll(s, "%", "%%")
	})
}

// UnescapeValue turns every %% in strings nested anywhere in v into %.
func UnescapeValue(v any) any {
	return mapStrings(v, func(s string) string {
		return strings.ReplaceAll(s, "%%", "%")
	})
}

func mapStrings(v any, fn func(string) string) any {
	switch v := v.(type) {
	case string:
		return fn(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = mapStrings(item, fn)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = mapStrings(item, fn)
		}
		return out
	default:
		return v
	}
}
