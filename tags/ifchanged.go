package tags

import (
	"reflect"

	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/runtime"
)

// IfChangedNode renders its body only when the watched state differs
// from the previous iteration: either the rendered body itself or, when
// arguments were given, their resolved values. Inside a loop the
// comparison state rides on the loop object so it resets with each new
// loop; outside one it lives in the render context.
type IfChangedNode struct {
	exprs    []*nodes.FilterExpression
	body     *nodes.NodeList
	elseBody *nodes.NodeList
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *IfChangedNode) ChildNodeLists() []*nodes.NodeList {
	return []*nodes.NodeList{n.body, n.elseBody}
}

// Render implements the nodes.Node interface
func (n *IfChangedNode) Render(ctx *runtime.Context) (string, error) {
	state := n.stateContainer(ctx)

	var watched interface{}
	var output string
	if len(n.exprs) > 0 {
		values := make([]interface{}, len(n.exprs))
		for i, expr := range n.exprs {
			v, err := expr.ResolveIgnoreFailures(ctx)
			if err != nil {
				return "", err
			}
			values[i] = v
		}
		watched = values
	} else {
		rendered, err := n.body.Render(ctx)
		if err != nil {
			return "", err
		}
		watched = rendered
		output = rendered
	}

	previous, seen := state[n]
	state[n] = watched
	if seen && reflect.DeepEqual(previous, watched) {
		if n.elseBody != nil {
			return n.elseBody.Render(ctx)
		}
		return "", nil
	}

	if len(n.exprs) > 0 {
		return n.body.Render(ctx)
	}
	return output, nil
}

func (n *IfChangedNode) stateContainer(ctx *runtime.Context) map[interface{}]interface{} {
	if v, ok := ctx.Get("forloop"); ok {
		if loop, isLoop := v.(*ForLoop); isLoop {
			return loop.TagState()
		}
	}
	rc := ctx.RenderContext()
	if v, ok := rc.Get(ifchangedStateKey); ok {
		return v.(map[interface{}]interface{})
	}
	state := map[interface{}]interface{}{}
	rc.Set(ifchangedStateKey, state)
	return state
}

var ifchangedStateKey = new(int)

func ifChangedTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	node := &IfChangedNode{}
	for _, bit := range token.SplitContents()[1:] {
		expr, err := p.CompileFilter(bit)
		if err != nil {
			return nil, err
		}
		node.exprs = append(node.exprs, expr)
	}

	body, err := p.Parse("else", "endifchanged")
	if err != nil {
		return nil, err
	}
	node.body = body

	next, err := p.NextToken()
	if err != nil {
		return nil, err
	}
	if next.SplitContents()[0] == "else" {
		elseBody, err := p.Parse("endifchanged")
		if err != nil {
			return nil, err
		}
		node.elseBody = elseBody
		if err := p.DeleteFirstToken(); err != nil {
			return nil, err
		}
	}
	return node, nil
}
