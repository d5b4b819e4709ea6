package nodes

import (
	"fmt"
	"strings"

	"github.com/deicod/godtl/formats"
	"github.com/deicod/godtl/runtime"
)

// FilterFunc is the signature every filter implements. arg is nil when
// the filter was used without an argument; autoescape reflects the
// context state for filters that declared a need for it.
type FilterFunc func(value, arg interface{}, autoescape bool) (interface{}, error)

// Filter is a registered filter function plus its capability flags
type Filter struct {
	Name string
	Fn   FilterFunc

	// IsSafe promises the filter does not introduce unsafe characters
	// into safe input, so safety is preserved through the chain.
	IsSafe bool
	// NeedsAutoescape requests the context autoescape state as the
	// autoescape argument instead of the default false.
	NeedsAutoescape bool
	// ExpectsLocaltime asks for time values converted to the current
	// timezone before the filter runs.
	ExpectsLocaltime bool
}

// FilterGetter resolves a filter name during expression compilation
type FilterGetter func(name string) (*Filter, bool)

type boundFilter struct {
	filter *Filter
	arg    *Variable
}

// FilterExpression is a compiled variable-with-filters expression, the
// unit the variable construct and most tag arguments evaluate. It is
// immutable after compilation.
type FilterExpression struct {
	Token   string
	Var     *Variable
	filters []boundFilter

	// IsVariable is set when the chain is empty, letting hot paths
	// resolve the variable directly.
	IsVariable bool
}

// NewFilterExpression compiles a raw expression token such as
// name.first|lower|default:"anonymous" into its variable and filter
// chain. Unknown filter names fail compilation, not rendering.
func NewFilterExpression(token string, filters FilterGetter) (*FilterExpression, error) {
	parts, err := splitQuoted(token, '|')
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return nil, fmt.Errorf("empty expression")
	}

	variable, err := NewVariable(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, err
	}
	fe := &FilterExpression{Token: token, Var: variable}

	for _, part := range parts[1:] {
		name, rawArg, err := splitFilterPart(part)
		if err != nil {
			return nil, err
		}
		filter, ok := filters(name)
		if !ok {
			return nil, &FilterDoesNotExist{Name: name}
		}
		bound := boundFilter{filter: filter}
		if rawArg != "" {
			arg, err := NewVariable(rawArg)
			if err != nil {
				return nil, err
			}
			bound.arg = arg
		}
		fe.filters = append(fe.filters, bound)
	}

	fe.IsVariable = len(fe.filters) == 0
	return fe, nil
}

// FilterDoesNotExist reports a filter name missing from the library
type FilterDoesNotExist struct {
	Name string
}

// Error implements the error interface
func (e *FilterDoesNotExist) Error() string {
	return fmt.Sprintf("invalid filter: %q", e.Name)
}

// splitQuoted splits on sep outside quoted runs. Quotes open with ' or
// " and close with the same character; backslash escapes inside.
func splitQuoted(s string, sep byte) ([]string, error) {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		if c == sep {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated string in expression: %s", s)
	}
	parts = append(parts, s[start:])
	return parts, nil
}

func splitFilterPart(part string) (name, arg string, err error) {
	pieces, err := splitQuoted(part, ':')
	if err != nil {
		return "", "", err
	}
	name = strings.TrimSpace(pieces[0])
	if name == "" {
		return "", "", fmt.Errorf("missing filter name in %q", part)
	}
	switch len(pieces) {
	case 1:
		return name, "", nil
	case 2:
		return name, strings.TrimSpace(pieces[1]), nil
	default:
		// Colons inside the argument only survive when quoted.
		return name, strings.TrimSpace(strings.Join(pieces[1:], ":")), nil
	}
}

// Resolve evaluates the expression: variable first, then each filter in
// order. A failed variable lookup renders the engine's invalid-value
// string (skipping the filters) unless the render is strict.
func (fe *FilterExpression) Resolve(ctx *runtime.Context) (interface{}, error) {
	value, err := fe.Var.Resolve(ctx)
	if err != nil {
		if !runtime.IsVariableDoesNotExist(err) || ctx.Strict {
			return nil, err
		}
		invalid := ctx.StringIfInvalid
		if strings.Contains(invalid, "%s") {
			invalid = strings.ReplaceAll(invalid, "%s", fe.Var.Var)
		}
		return invalid, nil
	}
	return fe.ApplyFilters(value, ctx)
}

// ResolveIgnoreFailures evaluates the expression with soft lookup
// failures yielding nil, the behavior tag arguments want.
func (fe *FilterExpression) ResolveIgnoreFailures(ctx *runtime.Context) (interface{}, error) {
	value, err := fe.Var.Resolve(ctx)
	if err != nil {
		if !runtime.IsVariableDoesNotExist(err) {
			return nil, err
		}
		value = nil
	}
	return fe.ApplyFilters(value, ctx)
}

// ApplyFilters runs the filter chain over an already resolved value,
// tracking output safety across safety-preserving filters.
func (fe *FilterExpression) ApplyFilters(value interface{}, ctx *runtime.Context) (interface{}, error) {
	for _, bound := range fe.filters {
		var arg interface{}
		if bound.arg != nil {
			resolved, err := bound.arg.Resolve(ctx)
			if err != nil {
				return nil, err
			}
			arg = resolved
		}

		input := value
		if bound.filter.ExpectsLocaltime {
			input = localtimeValue(input, ctx)
		}

		autoescape := false
		if bound.filter.NeedsAutoescape {
			autoescape = ctx.Autoescape
		}

		out, err := bound.filter.Fn(input, arg, autoescape)
		if err != nil {
			return nil, &runtime.FilterError{FilterName: bound.filter.Name, Cause: err}
		}

		if bound.filter.IsSafe && runtime.IsSafe(value) {
			if _, already := out.(runtime.Safe); !already {
				out = runtime.MarkSafe(out)
			}
		}
		value = out
	}
	return value, nil
}

func localtimeValue(value interface{}, ctx *runtime.Context) interface{} {
	return formats.TemplateLocaltime(value, ctx.UseTZ)
}
