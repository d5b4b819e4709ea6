// Package nodes defines the immutable parsed template tree and the
// rendering entry points that walk it. Nodes never mutate after
// parsing, so one compiled template may render concurrently from many
// goroutines, each with its own context.
package nodes

import (
	"strings"

	"github.com/deicod/godtl/runtime"
)

// Node is one element of a parsed template tree
type Node interface {
	// Render produces the node's output against the given context
	Render(ctx *runtime.Context) (string, error)
}

// ChildLister is implemented by nodes that contain nested node lists,
// enabling generic tree walks such as NodesByType.
type ChildLister interface {
	ChildNodeLists() []*NodeList
}

// NodeList is an ordered sequence of sibling nodes
type NodeList struct {
	Nodes []Node

	// ContainsNonText is set by the parser when any child is not plain
	// text; the iteration construct consults it before planning its
	// fast path.
	ContainsNonText bool
}

// NewNodeList creates an empty node list
func NewNodeList() *NodeList {
	return &NodeList{}
}

// Append adds a node and updates the text-only flag
func (nl *NodeList) Append(n Node) {
	if _, ok := n.(*TextNode); !ok {
		nl.ContainsNonText = true
	}
	nl.Nodes = append(nl.Nodes, n)
}

// Render concatenates the rendered output of every child in order
func (nl *NodeList) Render(ctx *runtime.Context) (string, error) {
	var sb strings.Builder
	for _, n := range nl.Nodes {
		out, err := n.Render(ctx)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// NodesByType collects every node in the tree for which match returns
// true, in document order. Inheritance uses it to find block nodes.
func (nl *NodeList) NodesByType(match func(Node) bool) []Node {
	var found []Node
	for _, n := range nl.Nodes {
		if match(n) {
			found = append(found, n)
		}
		if cl, ok := n.(ChildLister); ok {
			for _, child := range cl.ChildNodeLists() {
				if child != nil {
					found = append(found, child.NodesByType(match)...)
				}
			}
		}
	}
	return found
}

// TextNode emits a literal chunk of template text unchanged
type TextNode struct {
	Text string
}

// Render implements the Node interface
func (n *TextNode) Render(_ *runtime.Context) (string, error) {
	return n.Text, nil
}

// VariableNode emits the value of a filter expression, escaped per the
// context's autoescape state
type VariableNode struct {
	Expr *FilterExpression
}

// Render implements the Node interface
func (n *VariableNode) Render(ctx *runtime.Context) (string, error) {
	value, err := n.Expr.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return RenderResolved(value, ctx), nil
}

// RenderResolved converts an already resolved expression value into
// output text. Both the generic variable node and the iteration fast
// path use it, so their output is byte for byte identical.
func RenderResolved(value interface{}, ctx *runtime.Context) string {
	return runtime.RenderValue(value, ctx)
}
