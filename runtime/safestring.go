package runtime

import "strings"

// SafeString is a string already safe for output; the variable emission
// path never escapes it again.
type SafeString string

// SafeHTML marks SafeString as pre-escaped content
func (s SafeString) SafeHTML() string {
	return string(s)
}

// Safe is implemented by values that vouch for their own output safety
type Safe interface {
	SafeHTML() string
}

// MarkSafe wraps a string as output-safe. Already safe values pass
// through unchanged.
func MarkSafe(value interface{}) SafeString {
	if safe, ok := value.(Safe); ok {
		return SafeString(safe.SafeHTML())
	}
	if s, ok := value.(string); ok {
		return SafeString(s)
	}
	return SafeString(Stringify(value))
}

// IsSafe reports whether a value is exempt from escaping
func IsSafe(value interface{}) bool {
	_, ok := value.(Safe)
	return ok
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// Escape encodes ampersands, quotes and angle brackets for HTML output.
// It always escapes, even when the input is already marked safe.
func Escape(s string) SafeString {
	return SafeString(EscapeString(s))
}

// EscapeString escapes HTML-special characters, returning the input
// unchanged (no allocation) when none are present.
func EscapeString(s string) string {
	if !needsEscape(s) {
		return s
	}
	return htmlEscaper.Replace(s)
}

func needsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&', '<', '>', '"', '\'':
			return true
		}
	}
	return false
}

// ConditionalEscape escapes a value unless it is already marked safe
func ConditionalEscape(value interface{}) string {
	if safe, ok := value.(Safe); ok {
		return safe.SafeHTML()
	}
	return EscapeString(Stringify(value))
}
