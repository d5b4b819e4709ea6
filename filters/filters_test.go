package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deicod/godtl/runtime"
)

func call(t *testing.T, fn func(value, arg interface{}, autoescape bool) (interface{}, error), value, arg interface{}) interface{} {
	t.Helper()
	out, err := fn(value, arg, false)
	require.NoError(t, err)
	return out
}

func TestAdd(t *testing.T) {
	assert.Equal(t, 9, call(t, addFilter, 4, 5))
	assert.Equal(t, 9, call(t, addFilter, "4", "5"))
	assert.Equal(t, "ab", call(t, addFilter, "a", "b"))
	assert.Equal(t, []interface{}{1, 2, 3}, call(t, addFilter, []int{1, 2}, []int{3}))
	assert.Equal(t, "", call(t, addFilter, 4, "b"))
}

func TestStringFilters(t *testing.T) {
	assert.Equal(t, "Hello world", call(t, capfirstFilter, "hello world", nil))
	assert.Equal(t, "", call(t, capfirstFilter, "", nil))
	assert.Equal(t, "  abc  ", call(t, centerFilter, "abc", 7))
	assert.Equal(t, "abc", call(t, cutFilter, "a b c", " "))
	assert.Equal(t, "hello", call(t, lowerFilter, "HELLO", nil))
	assert.Equal(t, "HELLO", call(t, upperFilter, "hello", nil))
	assert.Equal(t, "My First Post", call(t, titleFilter, "my FIRST post", nil))
	assert.Equal(t, "hello-world", runtime.Stringify(call(t, slugifyFilter, "Hello, World!", nil)))
	assert.Equal(t, "join us", call(t, striptagsFilter, "<a href='#'>join</a> <b>us</b>", nil))
}

func TestTruncation(t *testing.T) {
	assert.Equal(t, "abcd…", call(t, truncatecharsFilter, "abcdefgh", 5))
	assert.Equal(t, "short", call(t, truncatecharsFilter, "short", 10))
	assert.Equal(t, "Joel is…", call(t, truncatecharsFilter, "Joel is a slug", 9))
	assert.Equal(t, "one two …", call(t, truncatewordsFilter, "one two three four", 2))
	assert.Equal(t, "one two", call(t, truncatewordsFilter, "one two", 5))

	// Non-positive limits truncate everything instead of panicking.
	assert.Equal(t, "…", call(t, truncatewordsFilter, "a b c", -1))
	assert.Equal(t, "…", call(t, truncatewordsFilter, "a b c", 0))
	assert.Equal(t, "", call(t, truncatewordsFilter, "", 0))
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, "fallback", call(t, defaultFilter, "", "fallback"))
	assert.Equal(t, "value", call(t, defaultFilter, "value", "fallback"))
	assert.Equal(t, "fallback", call(t, defaultIfNoneFilter, nil, "fallback"))
	assert.Equal(t, "", call(t, defaultIfNoneFilter, "", "fallback"))
}

func TestNumbers(t *testing.T) {
	assert.Equal(t, true, call(t, divisiblebyFilter, 21, 3))
	assert.Equal(t, false, call(t, divisiblebyFilter, 22, 3))
	_, err := divisiblebyFilter("x", 3, false)
	assert.Error(t, err)

	assert.Equal(t, "34.2", call(t, floatformatFilter, 34.23234, nil))
	assert.Equal(t, "34", call(t, floatformatFilter, 34.0, nil))
	assert.Equal(t, "34.260", call(t, floatformatFilter, 34.26, 3))
	assert.Equal(t, "34", call(t, floatformatFilter, 34.0, -3))
	assert.Equal(t, "34.232", call(t, floatformatFilter, 34.23234, -3))
	assert.Equal(t, "", call(t, floatformatFilter, "text", nil))
}

func TestSequences(t *testing.T) {
	assert.Equal(t, "a", call(t, firstFilter, []string{"a", "b"}, nil))
	assert.Equal(t, "b", call(t, lastFilter, []string{"a", "b"}, nil))
	assert.Equal(t, "", call(t, firstFilter, []string{}, nil))
	assert.Equal(t, 3, call(t, lengthFilter, "abc", nil))
	assert.Equal(t, 2, call(t, lengthFilter, []int{1, 2}, nil))
	assert.Equal(t, 0, call(t, lengthFilter, 42, nil))
	assert.Equal(t, true, call(t, lengthIsFilter, "abc", 3))
	assert.Equal(t, false, call(t, lengthIsFilter, "abc", 4))
}

func TestJoin(t *testing.T) {
	out, err := joinFilter([]string{"a", "b"}, ", ", false)
	require.NoError(t, err)
	assert.Equal(t, "a, b", runtime.Stringify(out))

	out, err = joinFilter([]interface{}{"a", "<b>"}, " & ", true)
	require.NoError(t, err)
	assert.True(t, runtime.IsSafe(out))
	assert.Equal(t, "a &amp; &lt;b&gt;", runtime.Stringify(out))
}

func TestEscapeAndSafe(t *testing.T) {
	out := call(t, escapeFilter, "<b>", nil)
	assert.True(t, runtime.IsSafe(out))
	assert.Equal(t, "&lt;b&gt;", runtime.Stringify(out))

	// Already safe input is not escaped twice.
	out = call(t, escapeFilter, runtime.SafeString("&lt;b&gt;"), nil)
	assert.Equal(t, "&lt;b&gt;", runtime.Stringify(out))

	out = call(t, safeFilter, "<b>", nil)
	assert.True(t, runtime.IsSafe(out))
	assert.Equal(t, "<b>", runtime.Stringify(out))
}

func TestLinebreaksbr(t *testing.T) {
	out, err := linebreaksbrFilter("line one\nline two", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "line one<br>line two", runtime.Stringify(out))

	out, err = linebreaksbrFilter("a < b\r\nc", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "a &lt; b<br>c", runtime.Stringify(out))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "", call(t, pluralizeFilter, 1, nil))
	assert.Equal(t, "s", call(t, pluralizeFilter, 2, nil))
	assert.Equal(t, "s", call(t, pluralizeFilter, 0, nil))
	assert.Equal(t, "es", call(t, pluralizeFilter, 2, "es"))
	assert.Equal(t, "y", call(t, pluralizeFilter, 1, "y,ies"))
	assert.Equal(t, "ies", call(t, pluralizeFilter, 2, "y,ies"))
	assert.Equal(t, "s", call(t, pluralizeFilter, []int{1, 2}, nil))
}

func TestYesno(t *testing.T) {
	assert.Equal(t, "yes", call(t, yesnoFilter, true, nil))
	assert.Equal(t, "no", call(t, yesnoFilter, false, nil))
	assert.Equal(t, "maybe", call(t, yesnoFilter, nil, nil))
	assert.Equal(t, "yeah", call(t, yesnoFilter, true, "yeah,nope"))
	assert.Equal(t, "nope", call(t, yesnoFilter, nil, "yeah,nope"))
}

func TestDateAndTime(t *testing.T) {
	ref := time.Date(2006, time.September, 3, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "2006-09-03", call(t, dateFilter, ref, "Y-m-d"))
	assert.Equal(t, "Sept. 3, 2006", call(t, dateFilter, ref, nil))
	assert.Equal(t, "15:04", call(t, timeFilter, ref, "H:i"))
	assert.Equal(t, "", call(t, dateFilter, "not a date", "Y"))
}
