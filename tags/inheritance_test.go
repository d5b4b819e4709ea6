package tags_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deicod/godtl"
)

func renderTemplate(t *testing.T, templates map[string]string, name string, vars map[string]interface{}) string {
	t.Helper()
	engine := godtl.NewEngine(godtl.WithLoaders(godtl.MapLoader(templates)))
	tmpl, err := engine.GetTemplate(name)
	require.NoError(t, err)
	out, err := tmpl.Render(vars)
	require.NoError(t, err)
	return out
}

func TestBlockWithoutExtends(t *testing.T) {
	out := render(t, "a{% block content %}body{% endblock %}b", nil)
	assert.Equal(t, "abodyb", out)
}

func TestExtendsOverridesBlock(t *testing.T) {
	out := renderTemplate(t, map[string]string{
		"base.html":  "<{% block content %}base{% endblock %}>",
		"child.html": `{% extends "base.html" %}{% block content %}child{% endblock %}`,
	}, "child.html", nil)
	assert.Equal(t, "<child>", out)
}

func TestExtendsKeepsUnoverriddenBlocks(t *testing.T) {
	out := renderTemplate(t, map[string]string{
		"base.html":  "{% block a %}A{% endblock %}|{% block b %}B{% endblock %}",
		"child.html": `{% extends "base.html" %}{% block b %}BB{% endblock %}`,
	}, "child.html", nil)
	assert.Equal(t, "A|BB", out)
}

func TestThreeLevelChainWithSuper(t *testing.T) {
	out := renderTemplate(t, map[string]string{
		"base.html": "A{% block content %}base{% endblock %}B",
		"mid.html":  `{% extends "base.html" %}{% block content %}mid({{ block.super }}){% endblock %}`,
		"leaf.html": `{% extends "mid.html" %}{% block content %}leaf({{ block.super }}){% endblock %}`,
	}, "leaf.html", nil)
	assert.Equal(t, "Aleaf(mid(base))B", out)
}

func TestBlockSuperAtRootIsEmpty(t *testing.T) {
	out := renderTemplate(t, map[string]string{
		"base.html":  "{% block content %}root{% endblock %}",
		"child.html": `{% extends "base.html" %}{% block content %}[{{ block.super }}]{% endblock %}`,
	}, "child.html", nil)
	assert.Equal(t, "[root]", out)
}

func TestBlockNameVariable(t *testing.T) {
	out := render(t, "{% block header %}{{ block.name }}{% endblock %}", nil)
	assert.Equal(t, "header", out)
}

func TestExtendsVariableParent(t *testing.T) {
	out := renderTemplate(t, map[string]string{
		"base.html":  "base:{% block c %}x{% endblock %}",
		"child.html": "{% extends parent %}{% block c %}y{% endblock %}",
	}, "child.html", map[string]interface{}{"parent": "base.html"})
	assert.Equal(t, "base:y", out)
}

func TestExtendsBodyOutsideBlocksDropped(t *testing.T) {
	out := renderTemplate(t, map[string]string{
		"base.html":  "[{% block c %}b{% endblock %}]",
		"child.html": `{% extends "base.html" %}IGNORED{% block c %}c{% endblock %}IGNORED`,
	}, "child.html", nil)
	assert.Equal(t, "[c]", out)
}

func TestExtendsErrors(t *testing.T) {
	engine := godtl.NewEngine(godtl.WithLoaders(godtl.MapLoader{
		"dup.html":   `{% extends "a" %}{% extends "b" %}`,
		"loop1.html": `{% extends "loop2.html" %}`,
		"loop2.html": `{% extends "loop1.html" %}`,
		"child.html": `{% extends "gone.html" %}`,
	}))

	_, err := engine.GetTemplate("dup.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")

	tmpl, err := engine.GetTemplate("loop1.html")
	require.NoError(t, err)
	_, err = tmpl.Render(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")

	tmpl, err = engine.GetTemplate("child.html")
	require.NoError(t, err)
	_, err = tmpl.Render(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestDuplicateBlockName(t *testing.T) {
	_, err := godtl.RenderString("{% block a %}{% endblock %}{% block a %}{% endblock %}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestNamedEndblock(t *testing.T) {
	out := render(t, "{% block a %}x{% endblock a %}", nil)
	assert.Equal(t, "x", out)

	_, err := godtl.RenderString("{% block a %}x{% endblock b %}", nil)
	assert.Error(t, err)
}

func TestIncludeTag(t *testing.T) {
	templates := map[string]string{
		"item.html": "[{{ label }}:{{ shared }}]",
		"page.html": `{% include "item.html" with label="a" %}{% include "item.html" with label="b" only %}`,
	}
	out := renderTemplate(t, templates, "page.html", map[string]interface{}{"shared": "s"})
	assert.Equal(t, "[a:s][b:]", out)
}

func TestIncludeSameExtendingChildTwice(t *testing.T) {
	out := renderTemplate(t, map[string]string{
		"base.html":  "[{% block c %}base{% endblock %}]",
		"child.html": `{% extends "base.html" %}{% block c %}child{% endblock %}`,
		"page.html":  `{% include "child.html" %}{% include "child.html" %}`,
	}, "page.html", nil)
	assert.Equal(t, "[child][child]", out)
}

func TestIncludeScopesRenderState(t *testing.T) {
	// Each inclusion renders in its own render-state frame, so the
	// cycle in row.html restarts instead of continuing across siblings.
	out := renderTemplate(t, map[string]string{
		"row.html":  "{% cycle 'a' 'b' %}",
		"page.html": `{% include "row.html" %}{% include "row.html" %}`,
	}, "page.html", nil)
	assert.Equal(t, "aa", out)
}

func TestIncludeVariableName(t *testing.T) {
	templates := map[string]string{
		"partial.html": "hello {{ name }}",
		"page.html":    "{% include target %}",
	}
	out := renderTemplate(t, templates, "page.html",
		map[string]interface{}{"target": "partial.html", "name": "world"})
	assert.Equal(t, "hello world", out)
}

func TestIncludeMissingTemplate(t *testing.T) {
	templates := map[string]string{"page.html": `{% include "gone.html" %}`}
	engine := godtl.NewEngine(godtl.WithLoaders(godtl.MapLoader(templates)))
	tmpl, err := engine.GetTemplate("page.html")
	require.NoError(t, err)
	_, err = tmpl.Render(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
