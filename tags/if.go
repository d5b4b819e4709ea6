package tags

import (
	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/runtime"
)

type ifBranch struct {
	// condition is nil for the else branch
	condition Condition
	nodelist  *nodes.NodeList
}

// IfNode evaluates its branch conditions in order and renders the body
// of the first truthy one
type IfNode struct {
	branches []ifBranch
}

// Render implements the nodes.Node interface
func (n *IfNode) Render(ctx *runtime.Context) (string, error) {
	for _, branch := range n.branches {
		if branch.condition == nil {
			return branch.nodelist.Render(ctx)
		}
		value, err := branch.condition.Eval(ctx)
		if err != nil {
			return "", err
		}
		if runtime.IsTrue(value) {
			return branch.nodelist.Render(ctx)
		}
	}
	return "", nil
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *IfNode) ChildNodeLists() []*nodes.NodeList {
	lists := make([]*nodes.NodeList, len(n.branches))
	for i, branch := range n.branches {
		lists[i] = branch.nodelist
	}
	return lists
}

func ifTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	node := &IfNode{}

	bits := token.SplitContents()[1:]
	for {
		condition, err := NewIfParser(bits, p.CompileFilter).Parse()
		if err != nil {
			return nil, p.Error(token, err.Error())
		}
		nodelist, err := p.Parse("elif", "else", "endif")
		if err != nil {
			return nil, err
		}
		node.branches = append(node.branches, ifBranch{condition: condition, nodelist: nodelist})

		next, err := p.NextToken()
		if err != nil {
			return nil, err
		}
		command := next.SplitContents()[0]
		if command == "elif" {
			bits = next.SplitContents()[1:]
			token = next
			continue
		}
		if command == "else" {
			nodelist, err := p.Parse("endif")
			if err != nil {
				return nil, err
			}
			node.branches = append(node.branches, ifBranch{nodelist: nodelist})
			if err := p.DeleteFirstToken(); err != nil {
				return nil, err
			}
		}
		return node, nil
	}
}
