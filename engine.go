package godtl

import (
	"fmt"
	"sync"

	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/parser"
	"github.com/deicod/godtl/runtime"
)

// Engine compiles and caches templates against a fixed configuration.
// Engines are immutable after construction and safe for concurrent use;
// each template compiles at most once per engine.
type Engine struct {
	loaders         []Loader
	lib             *library.Library
	autoescape      bool
	debug           bool
	stringIfInvalid string
	strict          bool
	useL10N         bool
	useTZ           bool

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	tmpl *nodes.Template
	err  error
}

// Option configures an Engine at construction
type Option func(*Engine)

// WithLoaders sets the template loaders, tried in order
func WithLoaders(loaders ...Loader) Option {
	return func(e *Engine) { e.loaders = loaders }
}

// WithAutoescape controls default output escaping (on unless disabled)
func WithAutoescape(on bool) Option {
	return func(e *Engine) { e.autoescape = on }
}

// WithDebug enables verbose error reporting
func WithDebug(on bool) Option {
	return func(e *Engine) { e.debug = on }
}

// WithStringIfInvalid sets the replacement text rendered for failed
// variable lookups; %s in it expands to the failing expression.
func WithStringIfInvalid(s string) Option {
	return func(e *Engine) { e.stringIfInvalid = s }
}

// WithStrict makes failed variable lookups abort the render instead of
// rendering the invalid string
func WithStrict(on bool) Option {
	return func(e *Engine) { e.strict = on }
}

// WithLocalize enables locale-aware number and date output
func WithLocalize(on bool) Option {
	return func(e *Engine) { e.useL10N = on }
}

// WithTimezoneSupport converts datetimes to the active timezone on
// output
func WithTimezoneSupport(on bool) Option {
	return func(e *Engine) { e.useTZ = on }
}

// WithLibrary merges extra tags and filters over the built-in set
func WithLibrary(extra *library.Library) Option {
	return func(e *Engine) { e.lib.Update(extra) }
}

// NewEngine creates an engine with the built-in tag and filter library
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		lib:        DefaultLibrary(),
		autoescape: true,
		cache:      map[string]*cacheEntry{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetTemplate implements the nodes.Engine interface. The first request
// for a name compiles it; later requests share the compiled template.
func (e *Engine) GetTemplate(name string) (*nodes.Template, error) {
	e.mu.Lock()
	entry, ok := e.cache[name]
	if !ok {
		entry = &cacheEntry{}
		e.cache[name] = entry
	}
	e.mu.Unlock()

	entry.once.Do(func() {
		entry.tmpl, entry.err = e.loadTemplate(name)
	})
	return entry.tmpl, entry.err
}

func (e *Engine) loadTemplate(name string) (*nodes.Template, error) {
	var tried []string
	for _, loader := range e.loaders {
		content, origin, err := loader.Load(name)
		if err != nil {
			tried = append(tried, fmt.Sprintf("%T", loader))
			continue
		}
		return e.compile(content, name, origin)
	}
	return nil, runtime.NewTemplateDoesNotExist(name, tried, nil)
}

// FromString compiles a one-off template bound to this engine
func (e *Engine) FromString(source string) (*nodes.Template, error) {
	return e.compile(source, "", "<string>")
}

func (e *Engine) compile(source, name, origin string) (*nodes.Template, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	nodelist, err := parser.New(tokens, e.lib, name).ParseTemplate()
	if err != nil {
		return nil, err
	}
	return &nodes.Template{
		Name:     name,
		Origin:   origin,
		Nodelist: nodelist,
		Engine:   e,
	}, nil
}

// Autoescape implements the nodes.Engine interface
func (e *Engine) Autoescape() bool { return e.autoescape }

// Debug implements the nodes.Engine interface
func (e *Engine) Debug() bool { return e.debug }

// StringIfInvalid implements the nodes.Engine interface
func (e *Engine) StringIfInvalid() string { return e.stringIfInvalid }

// Strict implements the nodes.Engine interface
func (e *Engine) Strict() bool { return e.strict }

// UseL10N implements the nodes.Engine interface
func (e *Engine) UseL10N() bool { return e.useL10N }

// UseTZ implements the nodes.Engine interface
func (e *Engine) UseTZ() bool { return e.useTZ }
