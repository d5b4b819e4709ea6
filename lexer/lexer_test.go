package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeBasic(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []Token
	}{
		{
			name:   "plain text",
			source: "hello world",
			want:   []Token{{Type: TokenText, Contents: "hello world"}},
		},
		{
			name:   "variable",
			source: "a{{ name }}b",
			want: []Token{
				{Type: TokenText, Contents: "a"},
				{Type: TokenVar, Contents: "name"},
				{Type: TokenText, Contents: "b"},
			},
		},
		{
			name:   "block tag",
			source: "{% if ready %}yes{% endif %}",
			want: []Token{
				{Type: TokenBlock, Contents: "if ready"},
				{Type: TokenText, Contents: "yes"},
				{Type: TokenBlock, Contents: "endif"},
			},
		},
		{
			name:   "comment",
			source: "a{# note #}b",
			want: []Token{
				{Type: TokenText, Contents: "a"},
				{Type: TokenComment, Contents: "note"},
				{Type: TokenText, Contents: "b"},
			},
		},
		{
			name:   "lone braces are text",
			source: "a { b } c",
			want:   []Token{{Type: TokenText, Contents: "a { b } c"}},
		},
		{
			name:   "delimiter inside quotes",
			source: `{{ greeting|default:"}} hi" }}`,
			want:   []Token{{Type: TokenVar, Contents: `greeting|default:"}} hi"`}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.source)
			require.NoError(t, err)
			require.Len(t, tokens, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.Type, tokens[i].Type)
				assert.Equal(t, want.Contents, tokens[i].Contents)
			}
		})
	}
}

func TestTokenizeLineNumbers(t *testing.T) {
	tokens, err := Tokenize("line one\nline two {{ x }}\n{% if y %}")
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 2, tokens[1].Line)
	assert.Equal(t, 3, tokens[3].Line)
}

func TestTokenizeUnclosed(t *testing.T) {
	for _, source := range []string{"{{ name", "{% if x", "{# note"} {
		_, err := Tokenize(source)
		require.Error(t, err, source)
		var lexErr *Error
		require.ErrorAs(t, err, &lexErr)
		assert.Contains(t, lexErr.Message, "unclosed")
	}
}

func TestTokenizeVerbatim(t *testing.T) {
	tokens, err := Tokenize("{% verbatim %}{{ x }}{% fake %}{% endverbatim %}done")
	require.NoError(t, err)
	require.Len(t, tokens, 5)
	assert.Equal(t, TokenBlock, tokens[0].Type)
	assert.Equal(t, TokenText, tokens[1].Type)
	assert.Equal(t, "{{ x }}", tokens[1].Contents)
	assert.Equal(t, TokenText, tokens[2].Type)
	assert.Equal(t, "{% fake %}", tokens[2].Contents)
	assert.Equal(t, TokenBlock, tokens[3].Type)
	assert.Equal(t, "endverbatim", tokens[3].Contents)
	assert.Equal(t, "done", tokens[4].Contents)
}

func TestTokenizeNamedVerbatim(t *testing.T) {
	tokens, err := Tokenize("{% verbatim v1 %}{% endverbatim %}{% endverbatim v1 %}")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, TokenText, tokens[1].Type)
	assert.Equal(t, "{% endverbatim %}", tokens[1].Contents)
	assert.Equal(t, TokenBlock, tokens[2].Type)
}

func TestSmartSplit(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{`for x in items`, []string{"for", "x", "in", "items"}},
		{`default:"a b"`, []string{`default:"a b"`}},
		{`cycle 'a a' "b b"`, []string{"cycle", `'a a'`, `"b b"`}},
		{`if x == "y z"`, []string{"if", "x", "==", `"y z"`}},
		{``, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SmartSplit(tt.text), tt.text)
	}
}
