package nodes

import (
	"github.com/deicod/godtl/runtime"
)

// Engine is the template environment a compiled template renders
// within: template loading for inheritance and inclusion, plus the
// render-wide flags copied onto each context.
type Engine interface {
	// GetTemplate loads and compiles the named template, serving
	// repeated requests from cache.
	GetTemplate(name string) (*Template, error)
	// Autoescape reports whether output escaping is on by default
	Autoescape() bool
	// Debug reports whether renders surface verbose errors
	Debug() bool
	// StringIfInvalid is the replacement text for failed lookups
	StringIfInvalid() string
	// Strict reports whether failed lookups abort the render
	Strict() bool
	// UseL10N reports whether numbers localize on output
	UseL10N() bool
	// UseTZ reports whether times convert to the active timezone
	UseTZ() bool
}

// Template is a compiled, immutable template: a parsed node tree plus
// the engine it was compiled by. Safe for concurrent Render calls.
type Template struct {
	Name     string
	Origin   string
	Nodelist *NodeList
	Engine   Engine
}

// Render evaluates the template against a variable mapping and returns
// the output text
func (t *Template) Render(vars map[string]interface{}) (string, error) {
	ctx := runtime.NewContext(vars)
	if t.Engine != nil {
		ctx.Autoescape = t.Engine.Autoescape()
		ctx.UseL10N = t.Engine.UseL10N()
		ctx.UseTZ = t.Engine.UseTZ()
		ctx.StringIfInvalid = t.Engine.StringIfInvalid()
		ctx.Strict = t.Engine.Strict()
	}
	return t.RenderContext(ctx)
}

// RenderContext evaluates the template against an existing context. A
// fresh render-state frame scopes tag-private state to this render, so
// sibling inclusions in one render never see each other's state.
func (t *Template) RenderContext(ctx *runtime.Context) (string, error) {
	releaseState := ctx.RenderContext().Push()
	defer releaseState()
	return t.RenderNested(ctx)
}

// RenderNested evaluates the template without opening a new render-state
// frame, binding the template for the duration so inheritance and
// inclusion can reach the engine. Inheritance renders parents this way,
// keeping one shared frame for the block state of the whole chain.
func (t *Template) RenderNested(ctx *runtime.Context) (string, error) {
	release := ctx.BindTemplate(t, t.Engine)
	defer release()
	return t.Nodelist.Render(ctx)
}

// TemplateOf returns the template bound to the context, if any
func TemplateOf(ctx *runtime.Context) (*Template, bool) {
	t, ok := ctx.BoundTemplate().(*Template)
	return t, ok
}

// EngineOf returns the engine of the template bound to the context
func EngineOf(ctx *runtime.Context) (Engine, bool) {
	e, ok := ctx.BoundEngine().(Engine)
	return e, ok
}
