package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deicod/godtl/runtime"
)

func TestNewVariableLiterals(t *testing.T) {
	tests := []struct {
		raw  string
		want interface{}
	}{
		{"42", 42},
		{"-7", -7},
		{"4.5", 4.5},
		{`"hello"`, runtime.SafeString("hello")},
		{`'single'`, runtime.SafeString("single")},
		{"True", true},
		{"False", false},
		{"None", nil},
	}
	for _, tt := range tests {
		v, err := NewVariable(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.True(t, v.IsLit, tt.raw)
		assert.Equal(t, tt.want, v.Literal, tt.raw)
	}
}

func TestNewVariableLookups(t *testing.T) {
	v, err := NewVariable("user.profile.name")
	require.NoError(t, err)
	assert.False(t, v.IsLit)
	assert.Equal(t, []string{"user", "profile", "name"}, v.Lookups)

	// Tokens that only look numeric parse as lookup paths.
	v, err = NewVariable("1.2.3")
	require.NoError(t, err)
	assert.False(t, v.IsLit)
	assert.Equal(t, []string{"1", "2", "3"}, v.Lookups)

	_, err = NewVariable("user._private")
	assert.Error(t, err)

	_, err = NewVariable("user..name")
	assert.Error(t, err)

	_, err = NewVariable("")
	assert.Error(t, err)
}

func TestNewVariableTranslateMarker(t *testing.T) {
	v, err := NewVariable(`_("greeting")`)
	require.NoError(t, err)
	assert.True(t, v.Translate)
	assert.Equal(t, runtime.SafeString("greeting"), v.Literal)
}

func TestVariableResolve(t *testing.T) {
	ctx := runtime.NewContext(map[string]interface{}{
		"name": "ada",
		"user": map[string]interface{}{
			"profile": map[string]interface{}{"email": "ada@example.com"},
		},
		"items": []string{"a", "b", "c"},
		"greet": func() string { return "hi" },
	})

	tests := []struct {
		raw  string
		want interface{}
	}{
		{"name", "ada"},
		{"user.profile.email", "ada@example.com"},
		{"items.1", "b"},
		{"greet", "hi"},
		{"42", 42},
	}
	for _, tt := range tests {
		v, err := NewVariable(tt.raw)
		require.NoError(t, err)
		got, err := v.Resolve(ctx)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestVariableResolveMissing(t *testing.T) {
	ctx := runtime.NewContext(map[string]interface{}{"user": map[string]interface{}{}})

	for _, raw := range []string{"missing", "user.missing", "user.a.b"} {
		v, err := NewVariable(raw)
		require.NoError(t, err)
		_, err = v.Resolve(ctx)
		assert.True(t, runtime.IsVariableDoesNotExist(err), raw)
	}
}

func testFilters() FilterGetter {
	lib := map[string]*Filter{
		"upper": {Name: "upper", Fn: func(value, _ interface{}, _ bool) (interface{}, error) {
			return toUpper(runtime.Stringify(value)), nil
		}, IsSafe: true},
		"default": {Name: "default", Fn: func(value, arg interface{}, _ bool) (interface{}, error) {
			if runtime.IsTrue(value) {
				return value, nil
			}
			return arg, nil
		}},
	}
	return func(name string) (*Filter, bool) {
		f, ok := lib[name]
		return f, ok
	}
}

func toUpper(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'a' && r <= 'z' {
			out[i] = r - 32
		}
	}
	return string(out)
}

func TestFilterExpressionParse(t *testing.T) {
	fe, err := NewFilterExpression(`name|default:"anon"|upper`, testFilters())
	require.NoError(t, err)
	assert.False(t, fe.IsVariable)
	assert.Equal(t, "name", fe.Var.Var)
	require.Len(t, fe.filters, 2)
	assert.Equal(t, "default", fe.filters[0].filter.Name)
	assert.Equal(t, runtime.SafeString("anon"), fe.filters[0].arg.Literal)
	assert.Nil(t, fe.filters[1].arg)
}

func TestFilterExpressionPlainVariable(t *testing.T) {
	fe, err := NewFilterExpression("user.name", testFilters())
	require.NoError(t, err)
	assert.True(t, fe.IsVariable)
}

func TestFilterExpressionUnknownFilter(t *testing.T) {
	_, err := NewFilterExpression("name|nope", testFilters())
	require.Error(t, err)
	var missing *FilterDoesNotExist
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "nope", missing.Name)
}

func TestFilterExpressionQuotedPipe(t *testing.T) {
	fe, err := NewFilterExpression(`name|default:"a|b"`, testFilters())
	require.NoError(t, err)
	require.Len(t, fe.filters, 1)
	assert.Equal(t, runtime.SafeString("a|b"), fe.filters[0].arg.Literal)
}

func TestFilterExpressionResolve(t *testing.T) {
	ctx := runtime.NewContext(map[string]interface{}{"name": "ada", "empty": ""})

	fe, err := NewFilterExpression("name|upper", testFilters())
	require.NoError(t, err)
	got, err := fe.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ADA", got)

	fe, err = NewFilterExpression(`empty|default:"fallback"`, testFilters())
	require.NoError(t, err)
	got, err = fe.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, runtime.SafeString("fallback"), got)
}

func TestStringLiteralIsSafe(t *testing.T) {
	v, err := NewVariable(`"a<b"`)
	require.NoError(t, err)
	got, err := v.Resolve(runtime.NewContext(nil))
	require.NoError(t, err)
	assert.True(t, runtime.IsSafe(got))
}

func TestFilterExpressionInvalidLookup(t *testing.T) {
	ctx := runtime.NewContext(nil)
	ctx.StringIfInvalid = "INVALID(%s)"

	fe, err := NewFilterExpression("missing|upper", testFilters())
	require.NoError(t, err)

	// Soft failure renders the invalid string and skips the filters.
	got, err := fe.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INVALID(missing)", got)

	ctx.Strict = true
	_, err = fe.Resolve(ctx)
	assert.True(t, runtime.IsVariableDoesNotExist(err))
}

func TestFilterExpressionSafetyChain(t *testing.T) {
	ctx := runtime.NewContext(nil)

	fe, err := NewFilterExpression("html|upper", testFilters())
	require.NoError(t, err)

	// Safe input through a safety-preserving filter stays safe.
	got, err := fe.ApplyFilters(runtime.SafeString("<b>x</b>"), ctx)
	require.NoError(t, err)
	assert.True(t, runtime.IsSafe(got))
	assert.Equal(t, "<B>X</B>", runtime.Stringify(got))

	// Unsafe input stays unsafe.
	got, err = fe.ApplyFilters("<b>x</b>", ctx)
	require.NoError(t, err)
	assert.False(t, runtime.IsSafe(got))
}

func TestNodeListRender(t *testing.T) {
	ctx := runtime.NewContext(map[string]interface{}{"who": "world"})
	fe, err := NewFilterExpression("who", testFilters())
	require.NoError(t, err)

	nl := NewNodeList()
	nl.Append(&TextNode{Text: "hello "})
	assert.False(t, nl.ContainsNonText)
	nl.Append(&VariableNode{Expr: fe})
	assert.True(t, nl.ContainsNonText)

	out, err := nl.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}
