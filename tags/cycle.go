package tags

import (
	"fmt"

	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/runtime"
)

// Keys into the parser's tag state for cross-tag cycle coordination.
const (
	namedCyclesKey = "cycle:named"
	lastCycleKey   = "cycle:last"
)

// CycleNode emits the next value of its list on each render. Position
// state lives in the render context keyed by node identity, so the same
// cycle referenced from several places in one template advances as one.
type CycleNode struct {
	exprs  []*nodes.FilterExpression
	name   string
	silent bool
}

// Render implements the nodes.Node interface
func (n *CycleNode) Render(ctx *runtime.Context) (string, error) {
	rc := ctx.RenderContext()
	pos := 0
	if v, ok := rc.Get(n); ok {
		pos = v.(int)
	}
	rc.Set(n, pos+1)

	value, err := n.exprs[pos%len(n.exprs)].Resolve(ctx)
	if err != nil {
		return "", err
	}
	if n.name != "" {
		ctx.Set(n.name, value)
	}
	if n.silent {
		return "", nil
	}
	return nodes.RenderResolved(value, ctx), nil
}

// reset rewinds the cycle to its first value
func (n *CycleNode) reset(ctx *runtime.Context) {
	ctx.RenderContext().Set(n, 0)
}

func cycleTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	if len(bits) < 2 {
		return nil, fmt.Errorf("%q tag requires at least two arguments", "cycle")
	}

	state := p.TagState()
	named, _ := state[namedCyclesKey].(map[string]*CycleNode)

	// {% cycle name %} re-emits a previously named cycle; the shared
	// node identity is what keeps both call sites on one position.
	if len(bits) == 2 && bits[1][0] != '"' && bits[1][0] != '\'' {
		node, ok := named[bits[1]]
		if !ok {
			return nil, fmt.Errorf("named cycle %q does not exist", bits[1])
		}
		state[lastCycleKey] = node
		return node, nil
	}

	args := bits[1:]
	name := ""
	silent := false
	if len(args) >= 2 && args[len(args)-2] == "as" {
		name = args[len(args)-1]
		args = args[:len(args)-2]
	} else if len(args) >= 3 && args[len(args)-3] == "as" && args[len(args)-1] == "silent" {
		name = args[len(args)-2]
		silent = true
		args = args[:len(args)-3]
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%q tag requires at least one value", "cycle")
	}

	node := &CycleNode{name: name, silent: silent}
	for _, arg := range args {
		expr, err := p.CompileFilter(arg)
		if err != nil {
			return nil, err
		}
		node.exprs = append(node.exprs, expr)
	}

	if name != "" {
		if named == nil {
			named = map[string]*CycleNode{}
			state[namedCyclesKey] = named
		}
		named[name] = node
	}
	state[lastCycleKey] = node
	return node, nil
}

// ResetCycleNode rewinds a cycle so its next render emits the first
// value again
type ResetCycleNode struct {
	cycle *CycleNode
}

// Render implements the nodes.Node interface
func (n *ResetCycleNode) Render(ctx *runtime.Context) (string, error) {
	n.cycle.reset(ctx)
	return "", nil
}

func resetCycleTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	state := p.TagState()

	if len(bits) == 2 {
		named, _ := state[namedCyclesKey].(map[string]*CycleNode)
		node, ok := named[bits[1]]
		if !ok {
			return nil, fmt.Errorf("named cycle %q does not exist", bits[1])
		}
		return &ResetCycleNode{cycle: node}, nil
	}
	if len(bits) > 2 {
		return nil, fmt.Errorf("%q tag accepts at most one argument", "resetcycle")
	}

	last, ok := state[lastCycleKey].(*CycleNode)
	if !ok {
		return nil, fmt.Errorf("no cycles in template to reset")
	}
	return &ResetCycleNode{cycle: last}, nil
}
