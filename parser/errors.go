package parser

import "fmt"

// TemplateSyntaxError represents a malformed template construct found
// during parsing, with the line it occurred on and the template name
// when known.
type TemplateSyntaxError struct {
	Message string
	Line    int
	Name    string
}

// Error implements the error interface
func (e *TemplateSyntaxError) Error() string {
	where := ""
	if e.Name != "" {
		where = fmt.Sprintf(" in %q", e.Name)
	}
	if e.Line > 0 {
		return fmt.Sprintf("syntax error%s on line %d: %s", where, e.Line, e.Message)
	}
	return fmt.Sprintf("syntax error%s: %s", where, e.Message)
}
