package tags

import (
	"fmt"

	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/runtime"
)

// IncludeNode renders another template in place. The target may be a
// literal name, a variable holding a name, or a variable holding an
// already compiled template. By default the included template sees the
// caller's full context plus any explicit bindings; with only it sees
// the bindings alone.
type IncludeNode struct {
	template *nodes.FilterExpression
	bindings map[string]*nodes.FilterExpression
	isolated bool
}

// Render implements the nodes.Node interface
func (n *IncludeNode) Render(ctx *runtime.Context) (string, error) {
	target, err := n.template.Resolve(ctx)
	if err != nil {
		return "", err
	}

	tmpl, ok := target.(*nodes.Template)
	if !ok {
		engine, found := nodes.EngineOf(ctx)
		if !found {
			return "", fmt.Errorf("include used outside an engine-rendered template")
		}
		tmpl, err = engine.GetTemplate(runtime.Stringify(target))
		if err != nil {
			return "", err
		}
	}

	values := make(map[string]interface{}, len(n.bindings))
	for name, expr := range n.bindings {
		value, err := expr.Resolve(ctx)
		if err != nil {
			return "", err
		}
		values[name] = value
	}

	if n.isolated {
		sub := ctx.NewIsolated(values)
		return tmpl.RenderContext(sub)
	}

	release := ctx.Push(values)
	defer release()
	return tmpl.RenderContext(ctx)
}

func includeTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	if len(bits) < 2 {
		return nil, fmt.Errorf("%q tag takes at least one argument: the template to include", bits[0])
	}

	template, err := p.CompileFilter(bits[1])
	if err != nil {
		return nil, err
	}
	node := &IncludeNode{template: template, bindings: map[string]*nodes.FilterExpression{}}

	rest := bits[2:]
	if len(rest) > 0 && rest[len(rest)-1] == "only" {
		node.isolated = true
		rest = rest[:len(rest)-1]
	}
	if len(rest) > 0 {
		if rest[0] != "with" || len(rest) == 1 {
			return nil, fmt.Errorf("%q tag expected 'with' followed by assignments: %s", bits[0], token.Contents)
		}
		bindings, err := parseBindings(p, bits[0], rest[1:], false)
		if err != nil {
			return nil, err
		}
		node.bindings = bindings
	}
	return node, nil
}
