package tags

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/deicod/godtl/nodes"
	"github.com/deicod/godtl/runtime"
)

// Condition is one evaluated node of a conditional expression. Eval
// returns the operand's value, not just a bool, so boolean operators
// yield their deciding operand the way the original language does.
type Condition interface {
	Eval(ctx *runtime.Context) (interface{}, error)
}

// Operator binding powers. Higher binds tighter; equal powers associate
// to the left.
const (
	precOr         = 6
	precAnd        = 7
	precNot        = 8
	precMembership = 9
	precComparison = 10
)

type opInfo struct {
	prec   int
	prefix bool
}

var condOperators = map[string]opInfo{
	"or":     {precOr, false},
	"and":    {precAnd, false},
	"not":    {precNot, true},
	"in":     {precMembership, false},
	"not in": {precMembership, false},
	"is":     {precComparison, false},
	"is not": {precComparison, false},
	"==":     {precComparison, false},
	"!=":     {precComparison, false},
	"<":      {precComparison, false},
	">":      {precComparison, false},
	"<=":     {precComparison, false},
	">=":     {precComparison, false},
}

// ExprCompiler compiles one operand token into a filter expression
type ExprCompiler func(token string) (*nodes.FilterExpression, error)

// IfParser builds a Condition tree from the split argument bits of a
// conditional tag using precedence climbing.
type IfParser struct {
	tokens  []string
	pos     int
	compile ExprCompiler
}

// NewIfParser prepares a condition parser over tag argument bits.
// Parentheses glued to their operands are split off and the two-word
// operators merged, so the climb only ever sees single tokens.
func NewIfParser(bits []string, compile ExprCompiler) *IfParser {
	bits = expandParens(bits)
	merged := make([]string, 0, len(bits))
	for i := 0; i < len(bits); i++ {
		if bits[i] == "not" && i+1 < len(bits) && bits[i+1] == "in" {
			merged = append(merged, "not in")
			i++
			continue
		}
		if bits[i] == "is" && i+1 < len(bits) && bits[i+1] == "not" {
			merged = append(merged, "is not")
			i++
			continue
		}
		merged = append(merged, bits[i])
	}
	return &IfParser{tokens: merged, compile: compile}
}

// expandParens splits grouping parentheses off operand tokens, leaving
// the translate call form _(...) and quoted contents untouched.
func expandParens(bits []string) []string {
	var out []string
	for _, bit := range bits {
		lead := 0
		for strings.HasPrefix(bit, "(") && !strings.HasPrefix(bit, "_(") {
			bit = bit[1:]
			lead++
		}
		for i := 0; i < lead; i++ {
			out = append(out, "(")
		}
		trail := 0
		for strings.HasSuffix(bit, ")") && parenBalance(bit) < 0 {
			bit = bit[:len(bit)-1]
			trail++
		}
		if bit != "" {
			out = append(out, bit)
		}
		for i := 0; i < trail; i++ {
			out = append(out, ")")
		}
	}
	return out
}

// parenBalance counts opens minus closes outside quoted runs
func parenBalance(s string) int {
	balance := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(':
			balance++
		case ')':
			balance--
		}
	}
	return balance
}

// Parse consumes the whole token list into one condition tree
func (p *IfParser) Parse() (Condition, error) {
	if len(p.tokens) == 0 {
		return nil, fmt.Errorf("missing condition")
	}
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("unused %q at end of expression", p.tokens[p.pos])
	}
	return cond, nil
}

func (p *IfParser) expression(rbp int) (Condition, error) {
	if p.pos >= len(p.tokens) {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	tok := p.tokens[p.pos]
	p.pos++

	var left Condition
	if tok == "(" {
		inner, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.tokens) || p.tokens[p.pos] != ")" {
			return nil, fmt.Errorf("unbalanced parenthesis in expression")
		}
		p.pos++
		left = inner
	} else if tok == ")" {
		return nil, fmt.Errorf("unexpected %q in expression", tok)
	} else if op, isOp := condOperators[tok]; isOp {
		if !op.prefix {
			return nil, fmt.Errorf("unexpected %q in expression", tok)
		}
		operand, err := p.expression(op.prec)
		if err != nil {
			return nil, err
		}
		left = &notCond{operand: operand}
	} else {
		expr, err := p.compile(tok)
		if err != nil {
			return nil, err
		}
		left = &TemplateLiteral{Expr: expr}
	}

	for p.pos < len(p.tokens) {
		next := p.tokens[p.pos]
		op, isOp := condOperators[next]
		if !isOp || op.prefix || op.prec <= rbp {
			break
		}
		p.pos++
		right, err := p.expression(op.prec)
		if err != nil {
			return nil, err
		}
		left = &infixCond{op: next, left: left, right: right}
	}
	return left, nil
}

// TemplateLiteral is a leaf operand: one filter expression whose failed
// lookups evaluate to nil rather than aborting the condition.
type TemplateLiteral struct {
	Expr *nodes.FilterExpression
}

// Eval implements the Condition interface
func (l *TemplateLiteral) Eval(ctx *runtime.Context) (interface{}, error) {
	return l.Expr.ResolveIgnoreFailures(ctx)
}

type notCond struct {
	operand Condition
}

func (c *notCond) Eval(ctx *runtime.Context) (interface{}, error) {
	value, err := c.operand.Eval(ctx)
	if err != nil {
		return nil, err
	}
	return !runtime.IsTrue(value), nil
}

type infixCond struct {
	op          string
	left, right Condition
}

// Eval implements the Condition interface. and/or short-circuit and
// return the deciding operand; comparisons over incomparable operands
// evaluate to false instead of failing the render.
func (c *infixCond) Eval(ctx *runtime.Context) (interface{}, error) {
	switch c.op {
	case "or":
		left, err := c.left.Eval(ctx)
		if err != nil {
			return nil, err
		}
		if runtime.IsTrue(left) {
			return left, nil
		}
		return c.right.Eval(ctx)
	case "and":
		left, err := c.left.Eval(ctx)
		if err != nil {
			return nil, err
		}
		if !runtime.IsTrue(left) {
			return left, nil
		}
		return c.right.Eval(ctx)
	}

	left, err := c.left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	right, err := c.right.Eval(ctx)
	if err != nil {
		return nil, err
	}

	switch c.op {
	case "in":
		found, ok := runtime.Contains(right, left)
		return ok && found, nil
	case "not in":
		found, ok := runtime.Contains(right, left)
		if !ok {
			return false, nil
		}
		return !found, nil
	case "is":
		return identical(left, right), nil
	case "is not":
		return !identical(left, right), nil
	case "==":
		return runtime.Equal(left, right), nil
	case "!=":
		return !runtime.Equal(left, right), nil
	case "<":
		less, ok := runtime.Less(left, right)
		return ok && less, nil
	case ">":
		greater, ok := runtime.Less(right, left)
		return ok && greater, nil
	case "<=":
		less, ok := runtime.Less(left, right)
		return ok && (less || runtime.Equal(left, right)), nil
	case ">=":
		greater, ok := runtime.Less(right, left)
		return ok && (greater || runtime.Equal(left, right)), nil
	}
	return nil, fmt.Errorf("unknown operator %q", c.op)
}

// identical implements the identity test: both nil, the same pointer,
// or equal comparable values of the same type.
func identical(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() == reflect.Ptr && bv.Kind() == reflect.Ptr {
		return av.Pointer() == bv.Pointer()
	}
	if av.Type() != bv.Type() || !av.Type().Comparable() {
		return false
	}
	return a == b
}
