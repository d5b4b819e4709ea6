// Package filters implements the built-in template filters. Every
// filter follows the engine's filter signature and is registered with
// the capability flags the output-escaping pipeline consults.
package filters

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/deicod/godtl/formats"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/runtime"
)

// Register adds every built-in filter to the library
func Register(lib *library.Library) {
	lib.Filter("add", addFilter)
	lib.Filter("capfirst", capfirstFilter, library.IsSafe())
	lib.Filter("center", centerFilter, library.IsSafe())
	lib.Filter("cut", cutFilter)
	lib.Filter("date", dateFilter, library.ExpectsLocaltime())
	lib.Filter("default", defaultFilter)
	lib.Filter("default_if_none", defaultIfNoneFilter)
	lib.Filter("divisibleby", divisiblebyFilter)
	lib.Filter("escape", escapeFilter, library.IsSafe())
	lib.Filter("first", firstFilter)
	lib.Filter("floatformat", floatformatFilter, library.IsSafe())
	lib.Filter("join", joinFilter, library.IsSafe(), library.NeedsAutoescape())
	lib.Filter("last", lastFilter, library.IsSafe())
	lib.Filter("length", lengthFilter)
	lib.Filter("length_is", lengthIsFilter)
	lib.Filter("linebreaksbr", linebreaksbrFilter, library.IsSafe(), library.NeedsAutoescape())
	lib.Filter("lower", lowerFilter, library.IsSafe())
	lib.Filter("pluralize", pluralizeFilter)
	lib.Filter("safe", safeFilter, library.IsSafe())
	lib.Filter("slugify", slugifyFilter, library.IsSafe())
	lib.Filter("striptags", striptagsFilter, library.IsSafe())
	lib.Filter("time", timeFilter, library.ExpectsLocaltime())
	lib.Filter("title", titleFilter, library.IsSafe())
	lib.Filter("truncatechars", truncatecharsFilter, library.IsSafe())
	lib.Filter("truncatewords", truncatewordsFilter, library.IsSafe())
	lib.Filter("upper", upperFilter)
	lib.Filter("yesno", yesnoFilter)
}

// addFilter sums integer operands, falling back to concatenation for
// strings and sequences and to empty output when nothing applies
func addFilter(value, arg interface{}, _ bool) (interface{}, error) {
	if a, aok := intOperand(value); aok {
		if b, bok := intOperand(arg); bok {
			return a + b, nil
		}
	}
	if as, aok := stringOperand(value); aok {
		if bs, bok := stringOperand(arg); bok {
			return as + bs, nil
		}
	}
	if as, aok := runtime.ToSlice(value); aok && value != nil {
		if bs, bok := runtime.ToSlice(arg); bok && arg != nil {
			return append(append([]interface{}{}, as...), bs...), nil
		}
	}
	return "", nil
}

// intOperand accepts only values that look integral, so "a"|add:"b"
// concatenates instead of adding zeros
func intOperand(value interface{}) (int, bool) {
	switch v := value.(type) {
	case string:
		n, ok := runtime.ToInt(v)
		return n, ok
	case runtime.SafeString:
		n, ok := runtime.ToInt(string(v))
		return n, ok
	case nil, bool:
		return 0, false
	}
	f, ok := runtime.ToFloat(value)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func stringOperand(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case runtime.SafeString:
		return string(v), true
	}
	return "", false
}

func capfirstFilter(value, _ interface{}, _ bool) (interface{}, error) {
	s := runtime.Stringify(value)
	if s == "" {
		return "", nil
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes), nil
}

func centerFilter(value, arg interface{}, _ bool) (interface{}, error) {
	width, ok := runtime.ToInt(arg)
	if !ok {
		return value, nil
	}
	s := runtime.Stringify(value)
	pad := width - len([]rune(s))
	if pad <= 0 {
		return s, nil
	}
	left := pad / 2
	right := pad - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right), nil
}

func cutFilter(value, arg interface{}, _ bool) (interface{}, error) {
	return strings.ReplaceAll(runtime.Stringify(value), runtime.Stringify(arg), ""), nil
}

func dateFilter(value, arg interface{}, _ bool) (interface{}, error) {
	t, ok := value.(time.Time)
	if !ok {
		return "", nil
	}
	format := formats.DateFormat
	if arg != nil {
		format = runtime.Stringify(arg)
	}
	return formats.Format(t, format), nil
}

func timeFilter(value, arg interface{}, _ bool) (interface{}, error) {
	t, ok := value.(time.Time)
	if !ok {
		return "", nil
	}
	format := formats.TimeFormat
	if arg != nil {
		format = runtime.Stringify(arg)
	}
	return formats.Format(t, format), nil
}

func defaultFilter(value, arg interface{}, _ bool) (interface{}, error) {
	if runtime.IsTrue(value) {
		return value, nil
	}
	return arg, nil
}

func defaultIfNoneFilter(value, arg interface{}, _ bool) (interface{}, error) {
	if value == nil {
		return arg, nil
	}
	return value, nil
}

func divisiblebyFilter(value, arg interface{}, _ bool) (interface{}, error) {
	v, vok := runtime.ToInt(value)
	d, dok := runtime.ToInt(arg)
	if !vok || !dok || d == 0 {
		return nil, fmt.Errorf("divisibleby requires integer operands")
	}
	return v%d == 0, nil
}

func escapeFilter(value, _ interface{}, _ bool) (interface{}, error) {
	return runtime.SafeString(runtime.ConditionalEscape(value)), nil
}

func firstFilter(value, _ interface{}, _ bool) (interface{}, error) {
	items, ok := runtime.ToSlice(value)
	if !ok || len(items) == 0 {
		return "", nil
	}
	return items[0], nil
}

func lastFilter(value, _ interface{}, _ bool) (interface{}, error) {
	items, ok := runtime.ToSlice(value)
	if !ok || len(items) == 0 {
		return "", nil
	}
	return items[len(items)-1], nil
}

// floatformatFilter formats a float to a fixed number of decimal
// places. A negative place count (the default is -1) drops the decimals
// entirely when the value is a whole number.
func floatformatFilter(value, arg interface{}, _ bool) (interface{}, error) {
	f, ok := runtime.ToFloat(value)
	if !ok {
		return "", nil
	}
	places := -1
	if arg != nil {
		if p, pok := runtime.ToInt(arg); pok {
			places = p
		} else {
			return "", nil
		}
	}
	if places < 0 {
		if f == math.Trunc(f) {
			return formats.FormatNumber(f, 0, false), nil
		}
		places = -places
	}
	return formats.FormatNumber(f, places, false), nil
}

func joinFilter(value, arg interface{}, autoescape bool) (interface{}, error) {
	items, ok := runtime.ToSlice(value)
	if !ok {
		return value, nil
	}
	parts := make([]string, len(items))
	for i, item := range items {
		if autoescape {
			parts[i] = runtime.ConditionalEscape(item)
		} else {
			parts[i] = runtime.Stringify(item)
		}
	}
	sep := runtime.Stringify(arg)
	if autoescape {
		sep = runtime.ConditionalEscape(arg)
	}
	return runtime.SafeString(strings.Join(parts, sep)), nil
}

func lengthFilter(value, _ interface{}, _ bool) (interface{}, error) {
	n, ok := runtime.Length(value)
	if !ok {
		return 0, nil
	}
	return n, nil
}

func lengthIsFilter(value, arg interface{}, _ bool) (interface{}, error) {
	want, wok := runtime.ToInt(arg)
	n, nok := runtime.Length(value)
	if !wok || !nok {
		return "", nil
	}
	return n == want, nil
}

var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func linebreaksbrFilter(value, _ interface{}, autoescape bool) (interface{}, error) {
	s := runtime.Stringify(value)
	if autoescape && !runtime.IsSafe(value) {
		s = runtime.EscapeString(s)
	}
	s = newlineNormalizer.Replace(s)
	return runtime.SafeString(strings.ReplaceAll(s, "\n", "<br>")), nil
}

func lowerFilter(value, _ interface{}, _ bool) (interface{}, error) {
	return strings.ToLower(runtime.Stringify(value)), nil
}

func upperFilter(value, _ interface{}, _ bool) (interface{}, error) {
	return strings.ToUpper(runtime.Stringify(value)), nil
}

// pluralizeFilter returns a suffix based on the count in value. The
// argument names the suffixes: "s" by default, "es" for a plain
// override, or "singular,plural" for irregular words.
func pluralizeFilter(value, arg interface{}, _ bool) (interface{}, error) {
	suffixes := "s"
	if arg != nil {
		suffixes = runtime.Stringify(arg)
	}
	parts := strings.Split(suffixes, ",")
	singular, plural := "", ""
	switch len(parts) {
	case 1:
		plural = parts[0]
	case 2:
		singular, plural = parts[0], parts[1]
	default:
		return "", nil
	}

	count, ok := runtime.ToFloat(value)
	if !ok {
		if n, lok := runtime.Length(value); lok {
			count = float64(n)
		} else {
			return "", nil
		}
	}
	if count == 1 {
		return singular, nil
	}
	return plural, nil
}

func safeFilter(value, _ interface{}, _ bool) (interface{}, error) {
	return runtime.MarkSafe(value), nil
}

var (
	slugInvalidRe  = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRe = regexp.MustCompile(`[-\s]+`)
)

func slugifyFilter(value, _ interface{}, _ bool) (interface{}, error) {
	s := strings.ToLower(runtime.Stringify(value))
	s = slugInvalidRe.ReplaceAllString(s, "")
	s = slugCollapseRe.ReplaceAllString(strings.TrimSpace(s), "-")
	return runtime.SafeString(strings.Trim(s, "-_")), nil
}

var tagRe = regexp.MustCompile(`<[^>]*?>`)

func striptagsFilter(value, _ interface{}, _ bool) (interface{}, error) {
	return tagRe.ReplaceAllString(runtime.Stringify(value), ""), nil
}

func titleFilter(value, _ interface{}, _ bool) (interface{}, error) {
	s := strings.ToLower(runtime.Stringify(value))
	var sb strings.Builder
	startOfWord := true
	for _, r := range s {
		if startOfWord && unicode.IsLetter(r) {
			sb.WriteRune(unicode.ToUpper(r))
			startOfWord = false
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' {
			startOfWord = true
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

func truncatecharsFilter(value, arg interface{}, _ bool) (interface{}, error) {
	limit, ok := runtime.ToInt(arg)
	if !ok {
		return value, nil
	}
	s := runtime.Stringify(value)
	runes := []rune(s)
	if len(runes) <= limit {
		return s, nil
	}
	if limit <= 1 {
		return "…", nil
	}
	return strings.TrimRight(string(runes[:limit-1]), " ") + "…", nil
}

func truncatewordsFilter(value, arg interface{}, _ bool) (interface{}, error) {
	limit, ok := runtime.ToInt(arg)
	if !ok {
		return value, nil
	}
	if limit < 0 {
		limit = 0
	}
	words := strings.Fields(runtime.Stringify(value))
	if len(words) <= limit {
		return strings.Join(words, " "), nil
	}
	if limit == 0 {
		return "…", nil
	}
	return strings.Join(words[:limit], " ") + " …", nil
}

func yesnoFilter(value, arg interface{}, _ bool) (interface{}, error) {
	choices := "yes,no,maybe"
	if arg != nil {
		choices = runtime.Stringify(arg)
	}
	parts := strings.Split(choices, ",")
	if len(parts) < 2 {
		return value, nil
	}
	if value == nil {
		if len(parts) > 2 {
			return parts[2], nil
		}
		return parts[1], nil
	}
	if runtime.IsTrue(value) {
		return parts[0], nil
	}
	return parts[1], nil
}
