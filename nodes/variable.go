package nodes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deicod/godtl/runtime"
)

// Variable represents one template variable reference: a literal
// (number or quoted string) or a dotted lookup path resolved against
// the context at render time.
type Variable struct {
	Var     string
	Literal interface{}
	IsLit   bool
	Lookups []string

	// Translate is set for _("...") literals; the marker is honored in
	// the grammar even though no translation catalog is wired.
	Translate bool
}

// NewVariable parses a raw variable token into a literal or lookup path
func NewVariable(raw string) (*Variable, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty variable")
	}
	v := &Variable{Var: raw}

	text := raw
	if strings.HasPrefix(text, "_(") && strings.HasSuffix(text, ")") {
		v.Translate = true
		text = text[2 : len(text)-1]
	}

	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'') {
		quote := text[0]
		if text[len(text)-1] != quote {
			return nil, fmt.Errorf("unterminated string literal: %s", raw)
		}
		unquoted := strings.ReplaceAll(text[1:len(text)-1], `\`+string(quote), string(quote))
		// String literals are author-written markup and never escaped.
		v.Literal = runtime.SafeString(unquoted)
		v.IsLit = true
		return v, nil
	}

	// Tokens that merely look numeric (such as 1.2.3) fall through to
	// lookup-path parsing.
	if isNumeric(text) {
		if strings.ContainsAny(text, ".eE") {
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				v.Literal, v.IsLit = f, true
				return v, nil
			}
		} else if n, err := strconv.Atoi(text); err == nil {
			v.Literal, v.IsLit = n, true
			return v, nil
		}
	}

	switch text {
	case "True":
		v.Literal, v.IsLit = true, true
		return v, nil
	case "False":
		v.Literal, v.IsLit = false, true
		return v, nil
	case "None":
		v.Literal, v.IsLit = nil, true
		return v, nil
	}

	lookups := strings.Split(text, ".")
	for _, bit := range lookups {
		if bit == "" {
			return nil, fmt.Errorf("variable %q has an empty path segment", raw)
		}
		if strings.HasPrefix(bit, "_") {
			return nil, fmt.Errorf("variable %q: segments may not start with underscores", raw)
		}
	}
	v.Lookups = lookups
	return v, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '-' || s[0] == '+' {
		if len(s) == 1 {
			return false
		}
		start = 1
	}
	sawDigit := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			sawDigit = true
			continue
		}
		if c == '.' || c == 'e' || c == 'E' || c == '-' || c == '+' {
			continue
		}
		return false
	}
	return sawDigit
}

// Resolve evaluates the variable against the context. Literals return
// themselves; lookup paths resolve segment by segment, invoking bare
// callables along the way. A missing name or segment yields a
// VariableDoesNotExist error for the caller to soften or propagate.
func (v *Variable) Resolve(ctx *runtime.Context) (interface{}, error) {
	if v.IsLit {
		return v.Literal, nil
	}

	// Single-name references skip the attribute machinery entirely.
	if len(v.Lookups) == 1 {
		current, ok := ctx.Get(v.Lookups[0])
		if !ok {
			return nil, runtime.NewVariableDoesNotExist(v.Var, v.Lookups[0], nil)
		}
		return runtime.MaybeCall(current)
	}

	current, ok := ctx.Get(v.Lookups[0])
	if !ok {
		return nil, runtime.NewVariableDoesNotExist(v.Var, v.Lookups[0], nil)
	}
	for _, bit := range v.Lookups[1:] {
		resolved, err := runtime.MaybeCall(current)
		if err != nil {
			return nil, runtime.NewVariableDoesNotExist(v.Var, bit, err)
		}
		next, err := runtime.Access(resolved, bit)
		if err != nil {
			return nil, runtime.NewVariableDoesNotExist(v.Var, bit, err)
		}
		current = next
	}
	return runtime.MaybeCall(current)
}
