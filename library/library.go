// Package library holds registries of template tags and filters and the
// parser capability surface tag compile functions program against.
package library

import (
	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/nodes"
)

// Parser is the capability surface a tag compile function sees. It is
// satisfied by the template parser without this package depending on it.
type Parser interface {
	// Parse consumes tokens until one of the named block tags is next,
	// leaving that terminator in the stream for the caller.
	Parse(until ...string) (*nodes.NodeList, error)
	// NextToken removes and returns the next token
	NextToken() (lexer.Token, error)
	// DeleteFirstToken discards the next token, conventionally a
	// terminator left behind by Parse.
	DeleteFirstToken() error
	// SkipPast discards tokens up to and including the named block tag
	SkipPast(endtag string) error
	// CompileFilter compiles a variable-with-filters expression token
	CompileFilter(token string) (*nodes.FilterExpression, error)
	// Error builds a syntax error positioned at the given token
	Error(token lexer.Token, message string) error
	// TagState is scratch storage shared by tag compile functions
	// within one parse, used for cross-tag coordination such as named
	// cycle references.
	TagState() map[string]interface{}
}

// TagFunc compiles one block tag occurrence into a node
type TagFunc func(p Parser, token lexer.Token) (nodes.Node, error)

// Library is a named collection of tags and filters
type Library struct {
	tags    map[string]TagFunc
	filters map[string]*nodes.Filter
}

// NewLibrary creates an empty library
func NewLibrary() *Library {
	return &Library{
		tags:    map[string]TagFunc{},
		filters: map[string]*nodes.Filter{},
	}
}

// Tag registers a tag compile function under the given name
func (l *Library) Tag(name string, fn TagFunc) {
	l.tags[name] = fn
}

// FilterOption adjusts a filter's capability flags at registration
type FilterOption func(*nodes.Filter)

// IsSafe marks the filter as safety-preserving
func IsSafe() FilterOption {
	return func(f *nodes.Filter) { f.IsSafe = true }
}

// NeedsAutoescape passes the context autoescape state to the filter
func NeedsAutoescape() FilterOption {
	return func(f *nodes.Filter) { f.NeedsAutoescape = true }
}

// ExpectsLocaltime converts time inputs to the active timezone before
// the filter runs
func ExpectsLocaltime() FilterOption {
	return func(f *nodes.Filter) { f.ExpectsLocaltime = true }
}

// Filter registers a filter function under the given name
func (l *Library) Filter(name string, fn nodes.FilterFunc, opts ...FilterOption) {
	f := &nodes.Filter{Name: name, Fn: fn}
	for _, opt := range opts {
		opt(f)
	}
	l.filters[name] = f
}

// GetTag looks up a tag compile function
func (l *Library) GetTag(name string) (TagFunc, bool) {
	fn, ok := l.tags[name]
	return fn, ok
}

// GetFilter looks up a filter
func (l *Library) GetFilter(name string) (*nodes.Filter, bool) {
	f, ok := l.filters[name]
	return f, ok
}

// Update merges another library into this one; the other library wins
// on name collisions.
func (l *Library) Update(other *Library) {
	for name, fn := range other.tags {
		l.tags[name] = fn
	}
	for name, f := range other.filters {
		l.filters[name] = f
	}
}

// TagNames returns the registered tag names (unordered)
func (l *Library) TagNames() []string {
	names := make([]string, 0, len(l.tags))
	for name := range l.tags {
		names = append(names, name)
	}
	return names
}

// FilterNames returns the registered filter names (unordered)
func (l *Library) FilterNames() []string {
	names := make([]string, 0, len(l.filters))
	for name := range l.filters {
		names = append(names, name)
	}
	return names
}
