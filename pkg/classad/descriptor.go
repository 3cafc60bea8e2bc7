package classad

import (
	"fmt"
	"sort"
	"strings"
)

// ValueKind enumerates the scalar and expression types an attribute may
// hold.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindExpr
)

// Value is a typed attribute value: exactly one of the fields below is
// meaningful, selected by Kind.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Expr  Expr
}

// Descriptor is an unordered attribute-name to Value mapping, as parsed
// from classified-attribute text. Requirements is the conventional
// attribute name the matching engine looks for.
type Descriptor struct {
	attrs map[string]Value
}

// NewDescriptor returns an empty descriptor.
func NewDescriptor() *Descriptor {
	return &Descriptor{attrs: make(map[string]Value)}
}

// Set installs or overwrites an attribute.
func (d *Descriptor) Set(name string, v Value) {
	d.attrs[name] = v
}

// GetAttribute returns the named attribute and whether it is present.
func (d *Descriptor) GetAttribute(name string) (Value, bool) {
	v, ok := d.attrs[name]
	return v, ok
}

// InsertAttribute is an alias for Set, named to match the public
// contract used to default a missing Requirements to true.
func (d *Descriptor) InsertAttribute(name string, v Value) {
	d.Set(name, v)
}

// Requirements returns the descriptor's Requirements expression,
// defaulting to the constant true when absent — "Absent Requirements is
// equivalent to the constant true."
func (d *Descriptor) Requirements() Expr {
	v, ok := d.attrs["Requirements"]
	if ok && v.Kind == KindBool {
		return BoolLit(v.Bool)
	}
	if !ok || v.Kind != KindExpr {
		return BoolLit(true)
	}
	return v.Expr
}

// AsText renders the descriptor back to classified-attribute syntax for
// logging and diagnostics. Attribute order is name-sorted for
// determinism; the parser does not require a particular order, so this
// still round-trips per the descriptor round-trip invariant.
func (d *Descriptor) AsText() string {
	names := make([]string, 0, len(d.attrs))
	for n := range d.attrs {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("[ ")
	for _, n := range names {
		fmt.Fprintf(&b, "%s = %s; ", n, valueText(d.attrs[n]))
	}
	b.WriteString("]")
	return b.String()
}

func valueText(v Value) string {
	switch v.Kind {
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindExpr:
		return "(" + exprText(v.Expr) + ")"
	default:
		return ""
	}
}

func exprText(e Expr) string {
	switch v := e.(type) {
	case BoolLit:
		return fmt.Sprintf("%t", bool(v))
	case IntLit:
		return fmt.Sprintf("%d", int64(v))
	case FloatLit:
		return fmt.Sprintf("%g", float64(v))
	case StringLit:
		return fmt.Sprintf("%q", string(v))
	case Ref:
		return v.Qualifier + "." + v.Name
	case Compare:
		return exprText(v.Left) + " " + string(v.Op) + " " + exprText(v.Right)
	case Logical:
		return "(" + exprText(v.Left) + " " + string(v.Op) + " " + exprText(v.Right) + ")"
	case Not:
		return "!(" + exprText(v.Operand) + ")"
	default:
		return ""
	}
}

// StringValue constructs a string-kind Value, for callers assembling
// descriptors programmatically (tests, adapters).
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue constructs an int-kind Value.
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// FloatValue constructs a float-kind Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// BoolValue constructs a bool-kind Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// ExprValue constructs an expression-kind Value, used for Requirements.
func ExprValue(e Expr) Value { return Value{Kind: KindExpr, Expr: e} }
