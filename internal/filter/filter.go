// Package filter builds OData-style $filter expressions for the bookkeeping API.
//
// Expressions are plain strings with `+` as the token separator, matching the
// pre-encoded form the API expects in a query string. The builder is linear:
// atoms chain with And/Or, and whole expressions combine with JoinAnd/JoinOr,
// which wrap both sides in a single parenthesis pair.
package filter

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Op is a comparison operator.
type Op int

const (
	Equals Op = iota
	NotEqual
	GreaterThan
	GreaterThanEquals
	LessThan
	LessThanEquals
)

func (o Op) token() string {
	switch o {
	case Equals:
		return "eq"
	case NotEqual:
		return "ne"
	case GreaterThan:
		return "gt"
	case GreaterThanEquals:
		return "ge"
	case LessThan:
		return "lt"
	case LessThanEquals:
		return "le"
	}
	return "eq"
}

// Value is a filter comparison value. The two concrete kinds are String and
// Guid; each controls its own quoting.
type Value interface {
	serialize() string
}

// String is a plain string value, serialized in single quotes. No escaping is
// performed: the caller must guarantee the value contains no single quotes.
type String string

func (s String) serialize() string {
	return "'" + string(s) + "'"
}

// Int is a bare numeric value, serialized without quotes.
type Int int

func (i Int) serialize() string {
	return fmt.Sprintf("%d", int(i))
}

// Guid is an opaque record identifier, serialized as guid'<value>'.
type Guid uuid.UUID

func (g Guid) serialize() string {
	return fmt.Sprintf("guid'%s'", uuid.UUID(g))
}

// Function wraps a key in an OData string function.
type Function struct {
	name string
	arg  string
}

func StartsWith(arg string) Function  { return Function{name: "startswith", arg: arg} }
func EndsWith(arg string) Function    { return Function{name: "endswith", arg: arg} }
func SubstringOf(arg string) Function { return Function{name: "substringof", arg: arg} }

func (f Function) apply(key string) string {
	return fmt.Sprintf("%s(%s, %s)", f.name, key, f.arg)
}

// Expr is a filter expression under construction. The zero value is not
// usable; start with New.
type Expr struct {
	s         string
	finalized bool
}

// New starts an expression with a single `key op value` atom.
func New(key string, op Op, value Value) *Expr {
	return &Expr{s: atom(key, op, value)}
}

// And appends `and key op value`.
func (e *Expr) And(key string, op Op, value Value) *Expr {
	e.s += "+and+" + atom(key, op, value)
	return e
}

// Or appends `or key op value`.
func (e *Expr) Or(key string, op Op, value Value) *Expr {
	e.s += "+or+" + atom(key, op, value)
	return e
}

// Function appends an atom whose key is wrapped in an OData string function,
// e.g. `startswith(Description, 'Tick') eq true`.
func (e *Expr) Function(key string, f Function, op Op, value Value) *Expr {
	e.s += "+" + atom(f.apply(key), op, value)
	return e
}

// JoinAnd combines this expression and other into `(this and other)`.
func (e *Expr) JoinAnd(other *Expr) *Expr {
	e.s = "(" + e.s + "+and+" + other.s + ")"
	return e
}

// JoinOr combines this expression and other into `(this or other)`.
func (e *Expr) JoinOr(other *Expr) *Expr {
	e.s = "(" + e.s + "+or+" + other.s + ")"
	return e
}

// Finalize returns the expression string, stripping a redundant outer
// parenthesis pair if the whole expression is wrapped in one. The expression
// must not be used afterwards.
func (e *Expr) Finalize() string {
	if e.finalized {
		panic("filter: Finalize called twice")
	}
	e.finalized = true

	s := e.s
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	return s
}

func atom(key string, op Op, value Value) string {
	return key + "+" + op.token() + "+" + value.serialize()
}
