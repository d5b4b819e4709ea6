package runtime

import (
	"fmt"
	"strings"
)

// VariableDoesNotExist represents a failed variable path resolution. By
// default it is soft: the variable output path substitutes the engine's
// invalid-value string. Strict renders propagate it instead.
type VariableDoesNotExist struct {
	Var     string
	Segment string
	Cause   error
}

// Error implements the error interface
func (e *VariableDoesNotExist) Error() string {
	if e.Segment != "" && e.Segment != e.Var {
		return fmt.Sprintf("failed lookup for key [%s] in %q", e.Segment, e.Var)
	}
	return fmt.Sprintf("variable %q does not exist", e.Var)
}

// Unwrap returns the underlying cause
func (e *VariableDoesNotExist) Unwrap() error {
	return e.Cause
}

// NewVariableDoesNotExist creates a resolution failure for the given path
func NewVariableDoesNotExist(variable, segment string, cause error) *VariableDoesNotExist {
	return &VariableDoesNotExist{Var: variable, Segment: segment, Cause: cause}
}

// IsVariableDoesNotExist checks whether err is a soft resolution failure
func IsVariableDoesNotExist(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*VariableDoesNotExist)
	return ok
}

// TemplateDoesNotExist represents a template name no loader could serve
type TemplateDoesNotExist struct {
	Name  string
	Tried []string
	Cause error
}

// Error implements the error interface
func (e *TemplateDoesNotExist) Error() string {
	msg := fmt.Sprintf("template %q does not exist", e.Name)
	if len(e.Tried) > 0 {
		msg = fmt.Sprintf("%s (tried: %s)", msg, strings.Join(e.Tried, ", "))
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *TemplateDoesNotExist) Unwrap() error {
	return e.Cause
}

// NewTemplateDoesNotExist creates a TemplateDoesNotExist with the
// locations that were tried
func NewTemplateDoesNotExist(name string, tried []string, cause error) *TemplateDoesNotExist {
	return &TemplateDoesNotExist{Name: name, Tried: append([]string(nil), tried...), Cause: cause}
}

// ContextError represents a misuse of the context scope stack, such as
// popping the base scope
type ContextError struct {
	Message string
}

// Error implements the error interface
func (e *ContextError) Error() string {
	return e.Message
}

// FilterError represents a filter function failure during rendering
type FilterError struct {
	FilterName string
	Cause      error
}

// Error implements the error interface
func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %q: %v", e.FilterName, e.Cause)
}

// Unwrap returns the underlying cause
func (e *FilterError) Unwrap() error {
	return e.Cause
}
