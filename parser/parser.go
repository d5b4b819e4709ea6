// Package parser turns a token stream into an immutable node tree. Tag
// compile functions drive the parser recursively through the capability
// interface in the library package.
package parser

import (
	"fmt"
	"strings"

	"github.com/deicod/godtl/lexer"
	"github.com/deicod/godtl/library"
	"github.com/deicod/godtl/nodes"
)

// Parser consumes tokens front to back, handing block tags to their
// registered compile functions. One Parser parses one template.
type Parser struct {
	tokens   []lexer.Token
	lib      *library.Library
	name     string
	tagState map[string]interface{}

	// commandStack tracks open block tags for unclosed-tag errors
	commandStack []openTag
}

type openTag struct {
	command string
	token   lexer.Token
}

// New creates a parser over a token stream using the given library.
// name identifies the template in error messages and may be empty.
func New(tokens []lexer.Token, lib *library.Library, name string) *Parser {
	return &Parser{
		tokens:   tokens,
		lib:      lib,
		name:     name,
		tagState: map[string]interface{}{},
	}
}

// ParseTemplate parses the whole stream into a node list
func (p *Parser) ParseTemplate() (*nodes.NodeList, error) {
	return p.Parse()
}

// Parse builds a node list until one of the named block tags appears,
// leaving that terminator in the stream. With no names it parses to the
// end of the stream.
func (p *Parser) Parse(until ...string) (*nodes.NodeList, error) {
	nodelist := nodes.NewNodeList()
	for len(p.tokens) > 0 {
		token := p.popToken()
		switch token.Type {
		case lexer.TokenText:
			nodelist.Append(&nodes.TextNode{Text: token.Contents})

		case lexer.TokenVar:
			if strings.TrimSpace(token.Contents) == "" {
				return nil, p.Error(token, "empty variable tag")
			}
			expr, err := p.CompileFilter(token.Contents)
			if err != nil {
				return nil, p.Error(token, err.Error())
			}
			nodelist.Append(&nodes.VariableNode{Expr: expr})

		case lexer.TokenBlock:
			command := firstWord(token.Contents)
			if command == "" {
				return nil, p.Error(token, "empty block tag")
			}
			if contains(until, command) {
				p.prependToken(token)
				return nodelist, nil
			}
			tagFn, ok := p.lib.GetTag(command)
			if !ok {
				return nil, p.invalidBlockTag(token, command, until)
			}
			p.commandStack = append(p.commandStack, openTag{command: command, token: token})
			node, err := tagFn(p, token)
			if err != nil {
				if _, isSyntax := err.(*TemplateSyntaxError); isSyntax {
					return nil, err
				}
				return nil, p.Error(token, err.Error())
			}
			p.commandStack = p.commandStack[:len(p.commandStack)-1]
			nodelist.Append(node)

		case lexer.TokenComment:
			// dropped from the tree
		}
	}
	if len(until) > 0 {
		return nil, p.unclosedBlockTag(until)
	}
	return nodelist, nil
}

func (p *Parser) popToken() lexer.Token {
	token := p.tokens[0]
	p.tokens = p.tokens[1:]
	return token
}

func (p *Parser) prependToken(token lexer.Token) {
	p.tokens = append([]lexer.Token{token}, p.tokens...)
}

// NextToken implements the library.Parser interface
func (p *Parser) NextToken() (lexer.Token, error) {
	if len(p.tokens) == 0 {
		return lexer.Token{}, &TemplateSyntaxError{Message: "unexpected end of template", Name: p.name}
	}
	return p.popToken(), nil
}

// DeleteFirstToken implements the library.Parser interface
func (p *Parser) DeleteFirstToken() error {
	if len(p.tokens) == 0 {
		return &TemplateSyntaxError{Message: "unexpected end of template", Name: p.name}
	}
	p.popToken()
	return nil
}

// SkipPast discards tokens through the named end tag without compiling
// anything in between
func (p *Parser) SkipPast(endtag string) error {
	for len(p.tokens) > 0 {
		token := p.popToken()
		if token.Type == lexer.TokenBlock && firstWord(token.Contents) == endtag {
			return nil
		}
	}
	return p.unclosedBlockTag([]string{endtag})
}

// CompileFilter implements the library.Parser interface
func (p *Parser) CompileFilter(token string) (*nodes.FilterExpression, error) {
	return nodes.NewFilterExpression(strings.TrimSpace(token), func(name string) (*nodes.Filter, bool) {
		return p.lib.GetFilter(name)
	})
}

// Error implements the library.Parser interface
func (p *Parser) Error(token lexer.Token, message string) error {
	return &TemplateSyntaxError{Message: message, Line: token.Line, Name: p.name}
}

// TagState implements the library.Parser interface
func (p *Parser) TagState() map[string]interface{} {
	return p.tagState
}

func (p *Parser) invalidBlockTag(token lexer.Token, command string, until []string) error {
	if len(until) > 0 {
		return p.Error(token, fmt.Sprintf(
			"invalid block tag: %q, expected %s", command, quotedList(until)))
	}
	return p.Error(token, fmt.Sprintf("invalid block tag: %q", command))
}

func (p *Parser) unclosedBlockTag(until []string) error {
	msg := fmt.Sprintf("unclosed block tag, expected %s", quotedList(until))
	if len(p.commandStack) > 0 {
		open := p.commandStack[len(p.commandStack)-1]
		return &TemplateSyntaxError{
			Message: fmt.Sprintf("unclosed tag %q, expected %s", open.command, quotedList(until)),
			Line:    open.token.Line,
			Name:    p.name,
		}
	}
	return &TemplateSyntaxError{Message: msg, Name: p.name}
}

func quotedList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, " or ")
}

func firstWord(contents string) string {
	fields := strings.Fields(contents)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
