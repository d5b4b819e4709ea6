package lexer

import (
	"fmt"
	"strings"
)

// Template delimiter pairs.
const (
	VarStart     = "{{"
	VarEnd       = "}}"
	BlockStart   = "{%"
	BlockEnd     = "%}"
	CommentStart = "{#"
	CommentEnd   = "#}"
)

// Error represents a lexing failure with source line information
type Error struct {
	Message string
	Line    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at line %d", e.Message, e.Line)
}

// Lexer splits raw template source into a flat token sequence. It
// evaluates nothing; delimiter-free spans become text tokens.
type Lexer struct {
	source   string
	pos      int
	line     int
	verbatim string
}

// NewLexer creates a lexer for the given template source
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
	}
}

// Tokenize scans the whole source and returns the ordered token sequence.
// Quoted strings inside variable and block delimiters are scanned
// opaquely, so delimiters inside quotes do not terminate the token. An
// opened delimiter that never closes before input end is a lex error.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token

	for l.pos < len(l.source) {
		start := strings.Index(l.source[l.pos:], "{")
		openAt := -1
		var kind TokenType
		for start != -1 {
			abs := l.pos + start
			if abs+1 < len(l.source) {
				switch l.source[abs+1] {
				case '{':
					openAt, kind = abs, TokenVar
				case '%':
					openAt, kind = abs, TokenBlock
				case '#':
					openAt, kind = abs, TokenComment
				}
			}
			if openAt != -1 {
				break
			}
			next := strings.Index(l.source[abs+1:], "{")
			if next == -1 {
				break
			}
			start = abs + 1 + next - l.pos
		}

		if openAt == -1 {
			tokens = append(tokens, l.textToken(l.source[l.pos:]))
			break
		}

		if openAt > l.pos {
			tokens = append(tokens, l.textToken(l.source[l.pos:openAt]))
		}

		token, err := l.delimitedToken(openAt, kind)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}

// textToken emits a text token and advances position and line count
func (l *Lexer) textToken(text string) Token {
	token := Token{
		Type:     TokenText,
		Contents: text,
		Line:     l.line,
		Position: l.pos,
	}
	l.line += strings.Count(text, "\n")
	l.pos += len(text)
	return token
}

// delimitedToken scans one {{ }}, {% %} or {# #} chunk starting at openAt
func (l *Lexer) delimitedToken(openAt int, kind TokenType) (Token, error) {
	var end string
	switch kind {
	case TokenVar:
		end = VarEnd
	case TokenBlock:
		end = BlockEnd
	default:
		end = CommentEnd
	}

	closeAt := l.findClose(openAt+2, end)
	if closeAt == -1 {
		return Token{}, &Error{
			Message: fmt.Sprintf("unclosed %q: reached end of template while scanning for %q", l.source[openAt:openAt+2], end),
			Line:    l.line,
		}
	}

	contents := strings.TrimSpace(l.source[openAt+2 : closeAt])
	token := Token{
		Type:     kind,
		Contents: contents,
		Line:     l.line,
		Position: openAt,
	}

	span := l.source[openAt : closeAt+2]
	l.line += strings.Count(span, "\n")
	l.pos = closeAt + 2

	if kind == TokenBlock {
		if l.verbatim != "" {
			if contents == l.verbatim {
				// Matching endverbatim: leave verbatim mode and emit
				// the block token so the verbatim tag can stop.
				l.verbatim = ""
				return token, nil
			}
			token.Type = TokenText
			token.Contents = span
			return token, nil
		}
		if contents == "verbatim" || strings.HasPrefix(contents, "verbatim ") {
			l.verbatim = "end" + contents
		}
		return token, nil
	}

	if l.verbatim != "" {
		token.Type = TokenText
		token.Contents = span
	}
	return token, nil
}

// findClose locates the end delimiter, treating quoted substrings as
// opaque for variable and block chunks
func (l *Lexer) findClose(from int, end string) int {
	var quote byte
	for i := from; i < len(l.source); i++ {
		c := l.source[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case end[0]:
			if strings.HasPrefix(l.source[i:], end) {
				return i
			}
		}
	}
	return -1
}

// Tokenize is a convenience function lexing source in one call
func Tokenize(source string) ([]Token, error) {
	return NewLexer(source).Tokenize()
}
