package tags_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deicod/godtl"
)

func render(t *testing.T, source string, vars map[string]interface{}) string {
	t.Helper()
	out, err := godtl.RenderString(source, vars)
	require.NoError(t, err)
	return out
}

func TestIfTag(t *testing.T) {
	tests := []struct {
		name   string
		source string
		vars   map[string]interface{}
		want   string
	}{
		{
			"truthy variable", "{% if ready %}go{% endif %}",
			map[string]interface{}{"ready": true}, "go",
		},
		{
			"falsy variable", "{% if ready %}go{% endif %}",
			map[string]interface{}{"ready": false}, "",
		},
		{
			"else branch", "{% if n %}some{% else %}none{% endif %}",
			map[string]interface{}{"n": 0}, "none",
		},
		{
			"elif chain", "{% if a %}A{% elif b %}B{% elif c %}C{% else %}D{% endif %}",
			map[string]interface{}{"a": false, "b": false, "c": 1}, "C",
		},
		{
			"and", "{% if a and b %}both{% endif %}",
			map[string]interface{}{"a": 1, "b": "x"}, "both",
		},
		{
			"or", "{% if a or b %}one{% endif %}",
			map[string]interface{}{"a": "", "b": "x"}, "one",
		},
		{
			"not", "{% if not done %}pending{% endif %}",
			map[string]interface{}{"done": false}, "pending",
		},
		{
			"missing variable is falsy", "{% if nothing %}x{% else %}y{% endif %}",
			nil, "y",
		},
		{
			"numeric comparison", "{% if count > 2 %}many{% endif %}",
			map[string]interface{}{"count": 5}, "many",
		},
		{
			"mixed numeric types", "{% if price <= 9.5 %}cheap{% endif %}",
			map[string]interface{}{"price": 9}, "cheap",
		},
		{
			"equality unifies numbers", "{% if n == 1.0 %}one{% endif %}",
			map[string]interface{}{"n": 1}, "one",
		},
		{
			"string membership", `{% if "sea" in word %}yes{% endif %}`,
			map[string]interface{}{"word": "seaside"}, "yes",
		},
		{
			"slice membership", "{% if item in items %}yes{% endif %}",
			map[string]interface{}{"item": 2, "items": []int{1, 2, 3}}, "yes",
		},
		{
			"not in", "{% if item not in items %}absent{% endif %}",
			map[string]interface{}{"item": 9, "items": []int{1, 2}}, "absent",
		},
		{
			"is None", "{% if x is None %}nil{% endif %}",
			map[string]interface{}{"x": nil}, "nil",
		},
		{
			"is not None", "{% if x is not None %}set{% endif %}",
			map[string]interface{}{"x": 1}, "set",
		},
		{
			"incomparable comparison is false", "{% if x < 3 %}a{% else %}b{% endif %}",
			map[string]interface{}{"x": []int{1}}, "b",
		},
		{
			"precedence and over or", "{% if a or b and c %}yes{% else %}no{% endif %}",
			map[string]interface{}{"a": true, "b": false, "c": false}, "yes",
		},
		{
			"and with false operand", "{% if a and b %}yes{% else %}no{% endif %}",
			map[string]interface{}{"a": true, "b": false}, "no",
		},
		{
			"grouping overrides precedence", "{% if (a or b) and c %}yes{% else %}no{% endif %}",
			map[string]interface{}{"a": true, "b": false, "c": false}, "no",
		},
		{
			"grouped not", "{% if not (a and b) %}yes{% endif %}",
			map[string]interface{}{"a": true, "b": false}, "yes",
		},
		{
			"parsed literals", "{% if True and not False %}ok{% endif %}",
			nil, "ok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.source, tt.vars))
		})
	}
}

func TestIfShortCircuit(t *testing.T) {
	boom := func() (string, error) { return "", errors.New("boom") }

	out, err := godtl.RenderString("{% if off and boom %}x{% endif %}",
		map[string]interface{}{"off": false, "boom": boom})
	require.NoError(t, err, "right operand of a decided and must not evaluate")
	assert.Equal(t, "", out)

	out, err = godtl.RenderString("{% if on or boom %}x{% endif %}",
		map[string]interface{}{"on": true, "boom": boom})
	require.NoError(t, err, "right operand of a decided or must not evaluate")
	assert.Equal(t, "x", out)

	_, err = godtl.RenderString("{% if boom or on %}x{% endif %}",
		map[string]interface{}{"on": true, "boom": boom})
	require.Error(t, err)
}

func TestIfSyntaxErrors(t *testing.T) {
	for _, source := range []string{
		"{% if %}x{% endif %}",
		"{% if a b %}x{% endif %}",
		"{% if and a %}x{% endif %}",
		"{% if a == %}x{% endif %}",
		"{% if (a or b %}x{% endif %}",
		"{% if a) %}x{% endif %}",
	} {
		_, err := godtl.RenderString(source, nil)
		assert.Error(t, err, source)
	}
}

func TestIfWithFilters(t *testing.T) {
	out := render(t, `{% if items|length > 1 %}several{% endif %}`,
		map[string]interface{}{"items": []int{1, 2, 3}})
	assert.Equal(t, "several", out)
}
