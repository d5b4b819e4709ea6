package runtime

// Context is the layered runtime scope stack consulted during rendering.
// Lookups scan scopes top-down, so the most recently pushed scope
// shadows all below it. A Context is created per render call and must
// never be shared across concurrent renders.
type Context struct {
	dicts []map[string]interface{}

	// Render-wide flags, copied from the engine when a template binds.
	Autoescape      bool
	UseL10N         bool
	UseTZ           bool
	StringIfInvalid string
	Strict          bool

	// The template currently rendering and its engine, held untyped to
	// keep this package free of node-tree types; the nodes package owns
	// the concrete types and asserts them back.
	template interface{}
	engine   interface{}

	renderContext *RenderContext
}

// NewContext creates a context seeded with an optional variable mapping.
// The base scope carries the Python-spelled constants so templates can
// name them directly.
func NewContext(vars map[string]interface{}) *Context {
	dicts := []map[string]interface{}{{
		"True":  true,
		"False": false,
		"None":  nil,
	}}
	if vars != nil {
		dicts = append(dicts, vars)
	}
	return &Context{
		dicts:         dicts,
		Autoescape:    true,
		renderContext: NewRenderContext(),
	}
}

// Push appends a fresh scope (or the given ones) and returns a release
// function. Callers defer the release so the scope is popped on every
// exit path, failing or not.
func (c *Context) Push(scopes ...map[string]interface{}) func() {
	if len(scopes) == 0 {
		scopes = []map[string]interface{}{{}}
	}
	for _, scope := range scopes {
		if scope == nil {
			scope = map[string]interface{}{}
		}
		c.dicts = append(c.dicts, scope)
	}
	n := len(scopes)
	return func() {
		for i := 0; i < n; i++ {
			c.dicts = c.dicts[:len(c.dicts)-1]
		}
	}
}

// Pop removes and returns the top scope. Popping the base scope is a
// programming error.
func (c *Context) Pop() (map[string]interface{}, error) {
	if len(c.dicts) == 1 {
		return nil, &ContextError{Message: "pop() called on the base scope of an empty context stack"}
	}
	top := c.dicts[len(c.dicts)-1]
	c.dicts = c.dicts[:len(c.dicts)-1]
	return top, nil
}

// Get scans scopes top-to-bottom and returns the first hit
func (c *Context) Get(name string) (interface{}, bool) {
	for i := len(c.dicts) - 1; i >= 0; i-- {
		if value, ok := c.dicts[i][name]; ok {
			return value, true
		}
	}
	return nil, false
}

// Set writes into the top scope only
func (c *Context) Set(name string, value interface{}) {
	c.dicts[len(c.dicts)-1][name] = value
}

// Has reports whether any scope holds the key
func (c *Context) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Depth returns the current number of scopes, used to verify push/pop
// balance around renders
func (c *Context) Depth() int {
	return len(c.dicts)
}

// Flatten merges all scopes bottom-to-top into one snapshot mapping;
// the top scope wins on key collisions. Used for cross-boundary
// handoff such as the inclusion construct's isolated-context mode.
func (c *Context) Flatten() map[string]interface{} {
	flat := make(map[string]interface{})
	for _, scope := range c.dicts {
		for k, v := range scope {
			flat[k] = v
		}
	}
	return flat
}

// NewIsolated creates a fresh context carrying this render's flags,
// engine binding and render context, but none of its scopes. The
// inclusion construct uses it for its isolated-context mode.
func (c *Context) NewIsolated(vars map[string]interface{}) *Context {
	isolated := NewContext(vars)
	isolated.Autoescape = c.Autoescape
	isolated.UseL10N = c.UseL10N
	isolated.UseTZ = c.UseTZ
	isolated.StringIfInvalid = c.StringIfInvalid
	isolated.Strict = c.Strict
	isolated.template = c.template
	isolated.engine = c.engine
	isolated.renderContext = c.renderContext
	return isolated
}

// BindTemplate records the template (and engine) about to render with
// this context and returns a release restoring the previous binding.
// Inclusion and inheritance re-bind for the duration of the sub-render.
func (c *Context) BindTemplate(template, engine interface{}) func() {
	prevTemplate, prevEngine := c.template, c.engine
	c.template = template
	c.engine = engine
	return func() {
		c.template, c.engine = prevTemplate, prevEngine
	}
}

// BoundTemplate returns the template currently rendering, if any
func (c *Context) BoundTemplate() interface{} {
	return c.template
}

// BoundEngine returns the engine of the template currently rendering
func (c *Context) BoundEngine() interface{} {
	return c.engine
}

// RenderContext returns the render-private state stack
func (c *Context) RenderContext() *RenderContext {
	return c.renderContext
}

// RenderContext is a scope stack for tag-private transient state, keyed
// by node identity rather than by name so unrelated tag instances never
// collide even when their user-visible names do. It lives and dies with
// one render call.
type RenderContext struct {
	dicts []map[interface{}]interface{}
}

// NewRenderContext creates a render context with its base frame
func NewRenderContext() *RenderContext {
	return &RenderContext{dicts: []map[interface{}]interface{}{{}}}
}

// Push appends a fresh frame and returns its release function
func (rc *RenderContext) Push() func() {
	rc.dicts = append(rc.dicts, map[interface{}]interface{}{})
	return func() {
		rc.dicts = rc.dicts[:len(rc.dicts)-1]
	}
}

// Get looks a key up in the top frame only; state never leaks between
// frames the way context variables shadow each other.
func (rc *RenderContext) Get(key interface{}) (interface{}, bool) {
	top := rc.dicts[len(rc.dicts)-1]
	value, ok := top[key]
	return value, ok
}

// Set writes into the top frame
func (rc *RenderContext) Set(key, value interface{}) {
	rc.dicts[len(rc.dicts)-1][key] = value
}
