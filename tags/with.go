package tags

import (
	"fmt"
	"strings"

	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/runtime"
)

// WithNode renders its body in a scope extended with computed bindings,
// caching expensive lookups under a short name for the body's duration.
type WithNode struct {
	bindings map[string]*nodes.FilterExpression
	body     *nodes.NodeList
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *WithNode) ChildNodeLists() []*nodes.NodeList {
	return []*nodes.NodeList{n.body}
}

// Render implements the nodes.Node interface
func (n *WithNode) Render(ctx *runtime.Context) (string, error) {
	scope := make(map[string]interface{}, len(n.bindings))
	for name, expr := range n.bindings {
		value, err := expr.Resolve(ctx)
		if err != nil {
			return "", err
		}
		scope[name] = value
	}
	release := ctx.Push(scope)
	defer release()
	return n.body.Render(ctx)
}

func withTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	bindings, err := parseBindings(p, bits[0], bits[1:], true)
	if err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return nil, fmt.Errorf("%q expected at least one variable assignment", bits[0])
	}

	body, err := p.Parse("endwith")
	if err != nil {
		return nil, err
	}
	if err := p.DeleteFirstToken(); err != nil {
		return nil, err
	}
	return &WithNode{bindings: bindings, body: body}, nil
}

// parseBindings parses name=expr pairs, plus the legacy "expr as name"
// form when allowed, as used by the with and include tags.
func parseBindings(p library.Parser, tagName string, bits []string, allowLegacy bool) (map[string]*nodes.FilterExpression, error) {
	bindings := map[string]*nodes.FilterExpression{}

	if allowLegacy && len(bits) == 3 && bits[1] == "as" {
		expr, err := p.CompileFilter(bits[0])
		if err != nil {
			return nil, err
		}
		bindings[bits[2]] = expr
		return bindings, nil
	}

	for _, bit := range bits {
		eq := strings.Index(bit, "=")
		if eq <= 0 {
			return nil, fmt.Errorf("%q expected variable assignments in the form name=value: %q", tagName, bit)
		}
		name := bit[:eq]
		expr, err := p.CompileFilter(bit[eq+1:])
		if err != nil {
			return nil, err
		}
		bindings[name] = expr
	}
	return bindings, nil
}
