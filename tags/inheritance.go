package tags

import (
	"fmt"

	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/runtime"
)

// Render-context sentinel keys for the inheritance machinery.
var (
	blockContextKey   = new(int)
	extendsHistoryKey = new(int)
)

// BlockContext collects the block overrides seen while walking up an
// extends chain. Each name holds a stack ordered base-first, with the
// most derived override last.
type BlockContext struct {
	blocks map[string][]*BlockNode
}

// NewBlockContext creates an empty block context
func NewBlockContext() *BlockContext {
	return &BlockContext{blocks: map[string][]*BlockNode{}}
}

// AddBlocks prepends a template's blocks. The extends chain is walked
// child first, so prepending keeps base templates at the bottom of each
// stack.
func (bc *BlockContext) AddBlocks(blocks []*BlockNode) {
	for _, block := range blocks {
		bc.blocks[block.Name] = append([]*BlockNode{block}, bc.blocks[block.Name]...)
	}
}

// Pop removes and returns the most derived block for the name
func (bc *BlockContext) Pop(name string) *BlockNode {
	stack := bc.blocks[name]
	if len(stack) == 0 {
		return nil
	}
	block := stack[len(stack)-1]
	bc.blocks[name] = stack[:len(stack)-1]
	return block
}

// Push returns a previously popped block to its stack
func (bc *BlockContext) Push(name string, block *BlockNode) {
	bc.blocks[name] = append(bc.blocks[name], block)
}

// GetBlock returns the most derived block for the name without removing
// it
func (bc *BlockContext) GetBlock(name string) *BlockNode {
	stack := bc.blocks[name]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// BlockNode is a named, overridable region of a template
type BlockNode struct {
	Name     string
	Nodelist *nodes.NodeList
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *BlockNode) ChildNodeLists() []*nodes.NodeList {
	return []*nodes.NodeList{n.Nodelist}
}

// Render implements the nodes.Node interface. Outside an extends chain
// the block simply renders its own body; inside one the most derived
// override renders instead, with the overridden block reachable through
// block.super.
func (n *BlockNode) Render(ctx *runtime.Context) (string, error) {
	bc, _ := ctx.RenderContext().Get(blockContextKey)
	blockContext, _ := bc.(*BlockContext)
	return renderBlock(n, ctx, blockContext)
}

func renderBlock(n *BlockNode, ctx *runtime.Context, bc *BlockContext) (string, error) {
	release := ctx.Push()
	defer release()

	if bc == nil {
		ctx.Set("block", &BlockRef{name: n.Name, ctx: ctx})
		return n.Nodelist.Render(ctx)
	}

	popped := bc.Pop(n.Name)
	active := n
	if popped != nil {
		active = popped
	}
	ctx.Set("block", &BlockRef{name: n.Name, ctx: ctx, blocks: bc})
	out, err := active.Nodelist.Render(ctx)
	if popped != nil {
		bc.Push(n.Name, popped)
	}
	return out, err
}

// BlockRef is the block object visible inside a block body, exposing
// the block name and the super callable.
type BlockRef struct {
	name   string
	ctx    *runtime.Context
	blocks *BlockContext
}

// TemplateLookup implements the runtime.Lookuper interface
func (b *BlockRef) TemplateLookup(key string) (interface{}, bool) {
	switch key {
	case "name":
		return b.name, true
	case "super":
		return b.super, true
	}
	return nil, false
}

// super renders the next block up the chain; the result is safe and is
// not escaped again.
func (b *BlockRef) super() (interface{}, error) {
	if b.blocks == nil {
		return runtime.SafeString(""), nil
	}
	parent := b.blocks.GetBlock(b.name)
	if parent == nil {
		return runtime.SafeString(""), nil
	}
	out, err := renderBlock(parent, b.ctx, b.blocks)
	if err != nil {
		return nil, err
	}
	return runtime.MarkSafe(out), nil
}

// ExtendsNode replaces the template's own output with its parent's,
// overriding the parent's blocks with the ones defined here. It must be
// the first tag in the template and owns everything after it.
type ExtendsNode struct {
	parent   *nodes.FilterExpression
	nodelist *nodes.NodeList
	blocks   []*BlockNode
}

// ChildNodeLists implements the nodes.ChildLister interface
func (n *ExtendsNode) ChildNodeLists() []*nodes.NodeList {
	return []*nodes.NodeList{n.nodelist}
}

// Render implements the nodes.Node interface
func (n *ExtendsNode) Render(ctx *runtime.Context) (string, error) {
	rc := ctx.RenderContext()
	var blockContext *BlockContext
	if v, ok := rc.Get(blockContextKey); ok {
		blockContext = v.(*BlockContext)
	} else {
		blockContext = NewBlockContext()
		rc.Set(blockContextKey, blockContext)
	}
	blockContext.AddBlocks(n.blocks)

	parent, err := n.getParent(ctx)
	if err != nil {
		return "", err
	}

	// A parent that extends further recurses and adds its own blocks;
	// a root parent contributes its blocks here before rendering.
	if !hasExtends(parent.Nodelist) {
		var parentBlocks []*BlockNode
		for _, found := range parent.Nodelist.NodesByType(isBlockNode) {
			parentBlocks = append(parentBlocks, found.(*BlockNode))
		}
		blockContext.AddBlocks(parentBlocks)
	}

	return parent.RenderNested(ctx)
}

func (n *ExtendsNode) getParent(ctx *runtime.Context) (*nodes.Template, error) {
	target, err := n.parent.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("invalid template name in extends tag: %q", n.parent.Token)
	}
	if tmpl, ok := target.(*nodes.Template); ok {
		return tmpl, nil
	}

	name := runtime.Stringify(target)
	rc := ctx.RenderContext()
	history, _ := rc.Get(extendsHistoryKey)
	seen, _ := history.([]string)
	for _, prev := range seen {
		if prev == name {
			return nil, fmt.Errorf("circular extends chain at template %q", name)
		}
	}
	rc.Set(extendsHistoryKey, append(seen, name))

	engine, found := nodes.EngineOf(ctx)
	if !found {
		return nil, fmt.Errorf("extends used outside an engine-rendered template")
	}
	return engine.GetTemplate(name)
}

func isBlockNode(n nodes.Node) bool {
	_, ok := n.(*BlockNode)
	return ok
}

func hasExtends(nl *nodes.NodeList) bool {
	for _, n := range nl.Nodes {
		if _, ok := n.(*nodes.TextNode); ok {
			continue
		}
		_, ok := n.(*ExtendsNode)
		return ok
	}
	return false
}

func blockTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	if len(bits) != 2 {
		return nil, fmt.Errorf("%q tag takes only one argument", bits[0])
	}
	name := bits[1]

	state := p.TagState()
	open, _ := state["block:open"].(map[string]bool)
	if open == nil {
		open = map[string]bool{}
		state["block:open"] = open
	}
	if open[name] {
		return nil, fmt.Errorf("%q tag with name %q appears more than once", bits[0], name)
	}
	open[name] = true

	nodelist, err := p.Parse("endblock")
	if err != nil {
		return nil, err
	}
	end, err := p.NextToken()
	if err != nil {
		return nil, err
	}

	// {% endblock name %} must match its opener when named.
	endBits := end.SplitContents()
	if len(endBits) == 2 && endBits[1] != name {
		return nil, fmt.Errorf("%q tag %q does not match the open block %q", endBits[0], endBits[1], name)
	}

	return &BlockNode{Name: name, Nodelist: nodelist}, nil
}

func extendsTag(p library.Parser, token lexer.Token) (nodes.Node, error) {
	bits := token.SplitContents()
	if len(bits) != 2 {
		return nil, fmt.Errorf("%q takes one argument", bits[0])
	}
	parent, err := p.CompileFilter(bits[1])
	if err != nil {
		return nil, err
	}

	nodelist, err := p.Parse()
	if err != nil {
		return nil, err
	}
	for _, found := range nodelist.NodesByType(isExtendsNode) {
		_ = found
		return nil, fmt.Errorf("%q cannot appear more than once in the same template", bits[0])
	}

	node := &ExtendsNode{parent: parent, nodelist: nodelist}
	for _, found := range nodelist.NodesByType(isBlockNode) {
		node.blocks = append(node.blocks, found.(*BlockNode))
	}
	return node, nil
}

func isExtendsNode(n nodes.Node) bool {
	_, ok := n.(*ExtendsNode)
	return ok
}
