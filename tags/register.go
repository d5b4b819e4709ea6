// Package tags implements the built-in template tags: control flow,
// template inheritance and inclusion, and the small output helpers.
package tags

import "github.com/deicod/godtl/library"

// Register adds every built-in tag to the library
func Register(lib *library.Library) {
	lib.Tag("autoescape", autoescapeTag)
	lib.Tag("block", blockTag)
	lib.Tag("comment", commentTag)
	lib.Tag("cycle", cycleTag)
	lib.Tag("extends", extendsTag)
	lib.Tag("filter", filterTag)
	lib.Tag("firstof", firstOfTag)
	lib.Tag("for", forTag)
	lib.Tag("if", ifTag)
	lib.Tag("ifchanged", ifChangedTag)
	lib.Tag("include", includeTag)
	lib.Tag("now", nowTag)
	lib.Tag("resetcycle", resetCycleTag)
	lib.Tag("spaceless", spacelessTag)
	lib.Tag("templatetag", templateTagTag)
	lib.Tag("verbatim", verbatimTag)
	lib.Tag("widthratio", widthRatioTag)
	lib.Tag("with", withTag)
}
