package tags

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/deicod/godtl/formats"
	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/runtime"
)

// AutoescapeNode switches output escaping on or off for its body
type AutoescapeNode struct {
	on   bool
	body *nodes.NodeList
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *AutoescapeNode) ChildNodeLists() []*nodes.NodeList {
	return []*nodes.NodeList{n.body}
}

// Render implements the nodes.Node interface
func (n *AutoescapeNode) Render(ctx *runtime.Context) (string, error) {
	previous := ctx.Autoescape
	ctx.Autoescape = n.on
	defer func() { ctx.Autoescape = previous }()
	return n.body.Render(ctx)
}

func autoescapeTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	if len(bits) != 2 || (bits[1] != "on" && bits[1] != "off") {
		return nil, fmt.Errorf("%q argument should be 'on' or 'off'", bits[0])
	}
	body, err := p.Parse("endautoescape")
	if err != nil {
		return nil, err
	}
	if err := p.DeleteFirstToken(); err != nil {
		return nil, err
	}
	return &AutoescapeNode{on: bits[1] == "on", body: body}, nil
}

// CommentNode renders nothing; its body was skipped without compiling
type CommentNode struct{}

// Render implements the nodes.Node interface
func (n *CommentNode) Render(_ *runtime.Context) (string, error) {
	return "", nil
}

func commentTag(p library.Parser, _ lexer.Token) (nodes.Node, error) {
	if err := p.SkipPast("endcomment"); err != nil {
		return nil, err
	}
	return &CommentNode{}, nil
}

// FirstOfNode outputs the first truthy argument, or nothing
type FirstOfNode struct {
	exprs []*nodes.FilterExpression
	asVar string
}

// Render implements the nodes.Node interface
func (n *FirstOfNode) Render(ctx *runtime.Context) (string, error) {
	for _, expr := range n.exprs {
		value, err := expr.ResolveIgnoreFailures(ctx)
		if err != nil {
			return "", err
		}
		if runtime.IsTrue(value) {
			if n.asVar != "" {
				ctx.Set(n.asVar, value)
				return "", nil
			}
			return nodes.RenderResolved(value, ctx), nil
		}
	}
	if n.asVar != "" {
		ctx.Set(n.asVar, "")
	}
	return "", nil
}

func firstOfTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()[1:]
	node := &FirstOfNode{}
	if len(bits) >= 2 && bits[len(bits)-2] == "as" {
		node.asVar = bits[len(bits)-1]
		bits = bits[:len(bits)-2]
	}
	if len(bits) == 0 {
		return nil, fmt.Errorf("%q statement requires at least one argument", "firstof")
	}
	for _, bit := range bits {
		expr, err := p.CompileFilter(bit)
		if err != nil {
			return nil, err
		}
		node.exprs = append(node.exprs, expr)
	}
	return node, nil
}

// FilterBlockNode pipes its rendered body through a filter chain
type FilterBlockNode struct {
	expr *nodes.FilterExpression
	body *nodes.NodeList
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *FilterBlockNode) ChildNodeLists() []*nodes.NodeList {
	return []*nodes.NodeList{n.body}
}

// Render implements the nodes.Node interface
func (n *FilterBlockNode) Render(ctx *runtime.Context) (string, error) {
	output, err := n.body.Render(ctx)
	if err != nil {
		return "", err
	}
	filtered, err := n.expr.ApplyFilters(output, ctx)
	if err != nil {
		return "", err
	}
	return runtime.Stringify(filtered), nil
}

func filterTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	if len(bits) != 2 {
		return nil, fmt.Errorf("%q tag takes one argument: the filter chain to apply", bits[0])
	}
	rest := bits[1]
	for _, forbidden := range []string{"escape", "safe"} {
		if rest == forbidden || strings.HasPrefix(rest, forbidden+":") ||
			strings.Contains(rest, "|"+forbidden) {
			return nil, fmt.Errorf("%q is not permitted in the %q tag; use autoescape instead", forbidden, bits[0])
		}
	}
	expr, err := p.CompileFilter("output|" + rest)
	if err != nil {
		return nil, err
	}
	body, err := p.Parse("endfilter")
	if err != nil {
		return nil, err
	}
	if err := p.DeleteFirstToken(); err != nil {
		return nil, err
	}
	return &FilterBlockNode{expr: expr, body: body}, nil
}

// NowNode outputs the current datetime in the given display format
type NowNode struct {
	format *nodes.FilterExpression
	asVar  string
}

// Render implements the nodes.Node interface
func (n *NowNode) Render(ctx *runtime.Context) (string, error) {
	format, err := n.format.Resolve(ctx)
	if err != nil {
		return "", err
	}
	now := time.Now()
	if ctx.UseTZ {
		now = now.In(formats.CurrentTimezone)
	}
	out := formats.Format(now, runtime.Stringify(format))
	if n.asVar != "" {
		ctx.Set(n.asVar, out)
		return "", nil
	}
	return out, nil
}

func nowTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	node := &NowNode{}
	if len(bits) == 4 && bits[2] == "as" {
		node.asVar = bits[3]
		bits = bits[:2]
	}
	if len(bits) != 2 {
		return nil, fmt.Errorf("%q statement takes one argument", "now")
	}
	format, err := p.CompileFilter(bits[1])
	if err != nil {
		return nil, err
	}
	node.format = format
	return node, nil
}

var spacelessRe = regexp.MustCompile(`>\s+<`)

// SpacelessNode strips whitespace between HTML tags in its rendered body
type SpacelessNode struct {
	body *nodes.NodeList
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *SpacelessNode) ChildNodeLists() []*nodes.NodeList {
	return []*nodes.NodeList{n.body}
}

// Render implements the nodes.Node interface
func (n *SpacelessNode) Render(ctx *runtime.Context) (string, error) {
	output, err := n.body.Render(ctx)
	if err != nil {
		return "", err
	}
	return spacelessRe.ReplaceAllString(strings.TrimSpace(output), "><"), nil
}

func spacelessTag(p library.Parser, _ lexer.Token) (nodes.Node, error) {
	body, err := p.Parse("endspaceless")
	if err != nil {
		return nil, err
	}
	if err := p.DeleteFirstToken(); err != nil {
		return nil, err
	}
	return &SpacelessNode{body: body}, nil
}

var templateTagMapping = map[string]string{
	"openblock":     lexer.BlockStart,
	"closeblock":    lexer.BlockEnd,
	"openvariable":  lexer.VarStart,
	"closevariable": lexer.VarEnd,
	"openbrace":     "{",
	"closebrace":    "}",
	"opencomment":   lexer.CommentStart,
	"closecomment":  lexer.CommentEnd,
}

// TemplateTagNode emits one of the template's own delimiter strings
type TemplateTagNode struct {
	literal string
}

// Render implements the nodes.Node interface
func (n *TemplateTagNode) Render(_ *runtime.Context) (string, error) {
	return n.literal, nil
}

func templateTagTag(_ library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	if len(bits) != 2 {
		return nil, fmt.Errorf("%q statement takes one argument", "templatetag")
	}
	literal, ok := templateTagMapping[bits[1]]
	if !ok {
		names := make([]string, 0, len(templateTagMapping))
		for name := range templateTagMapping {
			names = append(names, name)
		}
		return nil, fmt.Errorf("invalid templatetag argument %q, must be one of: %s",
			bits[1], strings.Join(names, ", "))
	}
	return &TemplateTagNode{literal: literal}, nil
}

// VerbatimNode wraps the raw text the lexer preserved between verbatim
// markers
type VerbatimNode struct {
	body *nodes.NodeList
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *VerbatimNode) ChildNodeLists() []*nodes.NodeList {
	return []*nodes.NodeList{n.body}
}

// Render implements the nodes.Node interface
func (n *VerbatimNode) Render(ctx *runtime.Context) (string, error) {
	return n.body.Render(ctx)
}

func verbatimTag(p library.Parser, _ lexer.Token) (nodes.Node, error) {
	// Non-matching endverbatim markers never reach the parser; the
	// lexer keeps them as text, so the one terminator here is ours.
	body, err := p.Parse("endverbatim")
	if err != nil {
		return nil, err
	}
	if err := p.DeleteFirstToken(); err != nil {
		return nil, err
	}
	return &VerbatimNode{body: body}, nil
}

// WidthRatioNode scales a value against a maximum into an integer width
type WidthRatioNode struct {
	value *nodes.FilterExpression
	max   *nodes.FilterExpression
	width *nodes.FilterExpression
	asVar string
}

// Render implements the nodes.Node interface
func (n *WidthRatioNode) Render(ctx *runtime.Context) (string, error) {
	value, err := n.value.ResolveIgnoreFailures(ctx)
	if err != nil {
		return "", err
	}
	max, err := n.max.ResolveIgnoreFailures(ctx)
	if err != nil {
		return "", err
	}
	width, err := n.width.Resolve(ctx)
	if err != nil {
		return "", err
	}

	vf, vok := runtime.ToFloat(value)
	mf, mok := runtime.ToFloat(max)
	wf, wok := runtime.ToFloat(width)
	if !wok {
		return "", fmt.Errorf("widthratio final argument must be a number")
	}
	if !vok || !mok {
		return n.emit("", ctx), nil
	}
	out, ok := formats.RoundedRatio(vf, mf, wf)
	if !ok {
		return n.emit("", ctx), nil
	}
	return n.emit(out, ctx), nil
}

func (n *WidthRatioNode) emit(out string, ctx *runtime.Context) string {
	if n.asVar != "" {
		ctx.Set(n.asVar, out)
		return ""
	}
	return out
}

func widthRatioTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	node := &WidthRatioNode{}
	if len(bits) == 6 && bits[4] == "as" {
		node.asVar = bits[5]
		bits = bits[:4]
	}
	if len(bits) != 4 {
		return nil, fmt.Errorf("%q takes at least three arguments", "widthratio")
	}

	var err error
	if node.value, err = p.CompileFilter(bits[1]); err != nil {
		return nil, err
	}
	if node.max, err = p.CompileFilter(bits[2]); err != nil {
		return nil, err
	}
	if node.width, err = p.CompileFilter(bits[3]); err != nil {
		return nil, err
	}
	return node, nil
}
