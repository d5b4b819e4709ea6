// Package godtl is a Django-style template engine: double-brace
// variable substitution with filter chains, brace-percent control tags,
// template inheritance and HTML autoescaping, rendered against a
// layered variable context.
//
// Compiled templates are immutable and may render concurrently:
//
//	engine := godtl.NewEngine(godtl.WithLoaders(godtl.MapLoader{
//		"hello.html": "Hello {{ name|title }}!",
//	}))
//	tmpl, err := engine.GetTemplate("hello.html")
//	out, err := tmpl.Render(map[string]interface{}{"name": "world"})
package godtl

import (
	"github.com/deicod/godtl/filters"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/tags"
)

// DefaultLibrary builds a library holding every built-in tag and filter
func DefaultLibrary() *library.Library {
	lib := library.NewLibrary()
	tags.Register(lib)
	filters.Register(lib)
	return lib
}

// RenderString compiles and renders a template source in one call using
// a default engine
func RenderString(source string, vars map[string]interface{}) (string, error) {
	tmpl, err := NewEngine().FromString(source)
	if err != nil {
		return "", err
	}
	return tmpl.Render(vars)
}
