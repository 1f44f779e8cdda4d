// Package naming converts spec identifiers into the Go names roost emits.
//
// Field names in a spec may be snake_case (log_level), camelCase (logLevel) or
// PascalCase (LogLevel). They all map onto the same pair of generated names:
// an exported accessor (LogLevel) and an unexported struct member (logLevel).
package naming

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// acronyms are words rendered fully upper-case in exported names.
var acronyms = map[string]string{
	"id":    "ID",
	"url":   "URL",
	"uri":   "URI",
	"http":  "HTTP",
	"https": "HTTPS",
	"api":   "API",
	"uuid":  "UUID",
	"sql":   "SQL",
	"html":  "HTML",
	"css":   "CSS",
	"json":  "JSON",
	"xml":   "XML",
	"ip":    "IP",
	"tcp":   "TCP",
	"udp":   "UDP",
	"tls":   "TLS",
	"ssl":   "SSL",
	"db":    "DB",
	"ui":    "UI",
	"os":    "OS",
	"ttl":   "TTL",
	"grpc":  "GRPC",
}

// Pascal converts snake_case or camelCase to PascalCase.
// Examples: log_level → LogLevel, userID → UserID, user_id → UserID
func Pascal(s string) string {
	if s == "" {
		return ""
	}

	if strings.Contains(s, "_") {
		var b strings.Builder
		for _, part := range strings.Split(s, "_") {
			if part != "" {
				b.WriteString(capitalize(part))
			}
		}
		return b.String()
	}

	return capitalize(s)
}

// capitalize upper-cases the first rune of a word, or the whole word for
// known acronyms.
func capitalize(s string) string {
	if acronym, ok := acronyms[strings.ToLower(s)]; ok {
		return acronym
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerCamel converts a name to camelCase, lowering a leading acronym as a
// whole: UserID → userID, ID → id, HTTPPort → httpPort.
func LowerCamel(s string) string {
	p := []rune(Pascal(s))
	if len(p) == 0 {
		return ""
	}

	run := 0
	for run < len(p) && unicode.IsUpper(p[run]) {
		run++
	}

	switch {
	case run == 0:
		// starts with a non-letter or is already lower
	case run == 1 || run == len(p):
		for i := 0; i < run; i++ {
			p[i] = unicode.ToLower(p[i])
		}
	default:
		// keep the last upper rune of the run when it starts the next word
		end := run
		if unicode.IsLetter(p[run]) {
			end = run - 1
		}
		for i := 0; i < end; i++ {
			p[i] = unicode.ToLower(p[i])
		}
	}
	return string(p)
}

// Snake converts PascalCase or camelCase to snake_case.
// Examples: AppConfig → app_config, HTTPServer → http_server
func Snake(s string) string {
	if strings.Contains(s, "_") {
		return strings.ToLower(s)
	}

	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				if unicode.IsLower(prev) || unicode.IsDigit(prev) {
					b.WriteRune('_')
				} else if i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
					b.WriteRune('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Accessor is the exported read method generated for a field.
func Accessor(field string) string {
	return Pascal(field)
}

// Member is the unexported struct member that stores a field. Names that
// would collide with a Go keyword (type, func, ...) get a trailing underscore.
func Member(field string) string {
	m := LowerCamel(field)
	if token.IsKeyword(m) {
		return m + "_"
	}
	return m
}

// Constructor is the unexported zero-argument constructor for a config type.
func Constructor(typeName string) string {
	return "new" + Pascal(typeName)
}

// OnceVar is the package-level variable holding the lazily built instance.
func OnceVar(typeName string) string {
	return LowerCamel(typeName) + "Once"
}
