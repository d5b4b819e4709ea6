package lexer

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenText TokenType = iota
	TokenVar
	TokenBlock
	TokenComment
)

var tokenNames = map[TokenType]string{
	TokenText:    "TEXT",
	TokenVar:     "VAR",
	TokenBlock:   "BLOCK",
	TokenComment: "COMMENT",
}

func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", tt)
}

// Token represents a single chunk of template source. For variable, block
// and comment tokens the surrounding delimiters are stripped and the
// contents trimmed; text tokens carry their span verbatim.
type Token struct {
	Type     TokenType
	Contents string
	Line     int
	Position int
}

func (t Token) String() string {
	contents := t.Contents
	if len(contents) > 20 {
		contents = contents[:20] + "..."
	}
	return fmt.Sprintf("<%s token: %q (line %d)>", t.Type, contents, t.Line)
}

// SplitContents splits the token contents on whitespace, keeping quoted
// runs together so tag arguments like default:"a b" survive as one bit.
func (t Token) SplitContents() []string {
	return SmartSplit(t.Contents)
}

// SmartSplit splits text on whitespace while treating single- or
// double-quoted substrings as atomic, including any unquoted prefix or
// suffix glued to them.
func SmartSplit(text string) []string {
	var bits []string
	var current strings.Builder
	var quote byte

	flush := func() {
		if current.Len() > 0 {
			bits = append(bits, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			current.WriteByte(c)
			if c == '\\' && i+1 < len(text) {
				i++
				current.WriteByte(text[i])
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			current.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()
	return bits
}
