package tags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/runtime"
)

// ForLoop is the per-iteration state object visible as forloop inside
// the loop body. Attributes are computed on demand from the counters.
type ForLoop struct {
	counter0 int
	total    int
	parent   *ForLoop

	// state is scratch storage for tags that track change across
	// iterations, reset with each new loop.
	state map[interface{}]interface{}
}

// TemplateLookup implements the runtime.Lookuper interface
func (fl *ForLoop) TemplateLookup(key string) (interface{}, bool) {
	switch key {
	case "counter":
		return fl.counter0 + 1, true
	case "counter0":
		return fl.counter0, true
	case "revcounter":
		return fl.total - fl.counter0, true
	case "revcounter0":
		return fl.total - fl.counter0 - 1, true
	case "first":
		return fl.counter0 == 0, true
	case "last":
		return fl.counter0 == fl.total-1, true
	case "parentloop":
		if fl.parent == nil {
			return map[string]interface{}{}, true
		}
		return fl.parent, true
	}
	return nil, false
}

// TagState returns the loop's per-iteration scratch storage
func (fl *ForLoop) TagState() map[interface{}]interface{} {
	if fl.state == nil {
		fl.state = map[interface{}]interface{}{}
	}
	return fl.state
}

type stepKind int

const (
	stepText stepKind = iota
	stepLoopvar
	stepLoopAttr
)

type renderStep struct {
	kind stepKind
	text string
	attr string
}

// ForNode iterates a sequence, rendering its body once per item. Bodies
// built only from literal text, the bare loop variable and loop-state
// attributes render through a precomputed step plan that skips the
// context machinery entirely; the plan is fixed once on first render
// and produces output identical to the general path.
type ForNode struct {
	loopvars []string
	seq      *nodes.FilterExpression
	reversed bool
	body     *nodes.NodeList
	empty    *nodes.NodeList

	planOnce sync.Once
	plan     []renderStep
	fast     bool
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *ForNode) ChildNodeLists() []*nodes.NodeList {
	return []*nodes.NodeList{n.body, n.empty}
}

var fastLoopAttrs = map[string]bool{
	"counter": true, "counter0": true,
	"revcounter": true, "revcounter0": true,
	"first": true, "last": true,
}

func (n *ForNode) buildPlan() {
	if len(n.loopvars) != 1 {
		return
	}
	loopvar := n.loopvars[0]
	plan := make([]renderStep, 0, len(n.body.Nodes))
	for _, child := range n.body.Nodes {
		switch c := child.(type) {
		case *nodes.TextNode:
			plan = append(plan, renderStep{kind: stepText, text: c.Text})
		case *nodes.VariableNode:
			expr := c.Expr
			if !expr.IsVariable || expr.Var.IsLit {
				return
			}
			lookups := expr.Var.Lookups
			if len(lookups) == 1 && lookups[0] == loopvar {
				plan = append(plan, renderStep{kind: stepLoopvar})
				continue
			}
			if len(lookups) == 2 && lookups[0] == "forloop" && fastLoopAttrs[lookups[1]] {
				plan = append(plan, renderStep{kind: stepLoopAttr, attr: lookups[1]})
				continue
			}
			return
		default:
			return
		}
	}
	n.plan = plan
	n.fast = true
}

// Render implements the nodes.Node interface
func (n *ForNode) Render(ctx *runtime.Context) (string, error) {
	resolved, err := n.seq.ResolveIgnoreFailures(ctx)
	if err != nil {
		return "", err
	}
	if resolved == nil {
		return n.renderEmpty(ctx)
	}
	items, ok := runtime.ToSlice(resolved)
	if !ok {
		return "", fmt.Errorf("%q is not iterable", n.seq.Token)
	}
	if len(items) == 0 {
		return n.renderEmpty(ctx)
	}
	if n.reversed {
		reversed := make([]interface{}, len(items))
		for i, item := range items {
			reversed[len(items)-1-i] = item
		}
		items = reversed
	}

	n.planOnce.Do(n.buildPlan)
	if n.fast {
		return n.renderFast(items, ctx)
	}
	return n.renderGeneric(items, ctx)
}

func (n *ForNode) renderEmpty(ctx *runtime.Context) (string, error) {
	if n.empty == nil {
		return "", nil
	}
	return n.empty.Render(ctx)
}

func (n *ForNode) renderFast(items []interface{}, ctx *runtime.Context) (string, error) {
	total := len(items)
	var sb strings.Builder
	for i, item := range items {
		for _, step := range n.plan {
			switch step.kind {
			case stepText:
				sb.WriteString(step.text)
			case stepLoopvar:
				value, err := runtime.MaybeCall(item)
				if err != nil {
					return "", err
				}
				sb.WriteString(nodes.RenderResolved(value, ctx))
			case stepLoopAttr:
				sb.WriteString(nodes.RenderResolved(loopAttr(step.attr, i, total), ctx))
			}
		}
	}
	return sb.String(), nil
}

func loopAttr(attr string, i, total int) interface{} {
	switch attr {
	case "counter":
		return i + 1
	case "counter0":
		return i
	case "revcounter":
		return total - i
	case "revcounter0":
		return total - i - 1
	case "first":
		return i == 0
	default: // last
		return i == total-1
	}
}

func (n *ForNode) renderGeneric(items []interface{}, ctx *runtime.Context) (string, error) {
	var parent *ForLoop
	if v, ok := ctx.Get("forloop"); ok {
		if fl, isLoop := v.(*ForLoop); isLoop {
			parent = fl
		}
	}

	release := ctx.Push()
	defer release()

	loop := &ForLoop{total: len(items), parent: parent}
	ctx.Set("forloop", loop)

	var sb strings.Builder
	for i, item := range items {
		loop.counter0 = i
		if len(n.loopvars) == 1 {
			ctx.Set(n.loopvars[0], item)
		} else {
			parts, ok := runtime.ToSlice(item)
			if !ok || len(parts) != len(n.loopvars) {
				got := 1
				if ok {
					got = len(parts)
				}
				return "", fmt.Errorf("need %d values to unpack in for loop, got %d", len(n.loopvars), got)
			}
			for j, name := range n.loopvars {
				ctx.Set(name, parts[j])
			}
		}
		out, err := n.body.Render(ctx)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

func forTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	if len(bits) < 4 {
		return nil, fmt.Errorf("%q statements should have at least four words: %s", "for", token.Contents)
	}

	reversed := bits[len(bits)-1] == "reversed"
	end := len(bits)
	if reversed {
		end--
	}
	if end < 4 || bits[end-2] != "in" {
		return nil, fmt.Errorf("%q statements should use the format 'for x in y': %s", "for", token.Contents)
	}

	var loopvars []string
	for _, chunk := range strings.Split(strings.Join(bits[1:end-2], " "), ",") {
		name := strings.TrimSpace(chunk)
		if name == "" || strings.ContainsAny(name, " \"'|") {
			return nil, fmt.Errorf("%q tag received an invalid argument: %s", "for", token.Contents)
		}
		loopvars = append(loopvars, name)
	}

	seq, err := p.CompileFilter(bits[end-1])
	if err != nil {
		return nil, err
	}

	body, err := p.Parse("empty", "endfor")
	if err != nil {
		return nil, err
	}
	node := &ForNode{loopvars: loopvars, seq: seq, reversed: reversed, body: body}

	next, err := p.NextToken()
	if err != nil {
		return nil, err
	}
	if strings.Fields(next.Contents)[0] == "empty" {
		empty, err := p.Parse("endfor")
		if err != nil {
			return nil, err
		}
		node.empty = empty
		if err := p.DeleteFirstToken(); err != nil {
			return nil, err
		}
	}
	return node, nil
}
