package value

import (
	"fmt"
	"strings"
)

// Value is the closed union of symbolic value shapes. The unexported marker
// keeps the set of implementations inside this package.
type Value interface {
	// Tag returns the wire tag of the variant.
	Tag() string
	isValue()
}

// Wire tags of the Value variants.
const (
	TagBuiltinOperation = "BuiltinOperation"
	TagBuiltinValue     = "BuiltinValue"
	TagFrom             = "From"
	TagMatch            = "Match"
	TagOpaque           = "Opaque"
	TagSubstituting     = "Substituting"
)

// Class tags an Opaque value.
type Class uint8

const (
	ClassInvalid Class = iota
	ClassVariable
	ClassVariant
)

// String returns the wire spelling of the class.
func (c Class) String() string {
	switch c {
	case ClassVariable:
		return "Variable"
	case ClassVariant:
		return "Variant"
	default:
		return "invalid"
	}
}

// ParseClass converts a wire tag into a Class.
func ParseClass(s string) (Class, error) {
	switch s {
	case "Variable":
		return ClassVariable, nil
	case "Variant":
		return ClassVariant, nil
	default:
		return ClassInvalid, &InvalidVariantError{Variant: TagOpaque, Reason: fmt.Sprintf("unknown class %q (expected: Variable|Variant)", s)}
	}
}

// BuiltinOperation references a fixed primitive operation by name.
type BuiltinOperation struct {
	Op string
}

// BuiltinValue references a fixed primitive value by name.
type BuiltinValue struct {
	Name string
}

// OriginType is the builtin value every type ultimately derives from.
var OriginType = BuiltinValue{Name: "OriginType"}

// From abstracts Variable out of Base.
type From struct {
	Base     Id
	Variable Id
}

// Case is one arm of a Match.
type Case struct {
	Pattern Id
	Result  Id
}

// Match selects the result of the first case whose pattern matches Base.
type Match struct {
	Base  Id
	Cases []Case
}

// Opaque is an uninterpreted symbol with its own identity and type.
type Opaque struct {
	Class Class
	ID    Id
	Typee Id
}

// Substituting replaces Target by Value inside Base.
type Substituting struct {
	Base   Id
	Target Id
	Value  Id
}

func (BuiltinOperation) Tag() string { return TagBuiltinOperation }
func (BuiltinValue) Tag() string     { return TagBuiltinValue }
func (From) Tag() string             { return TagFrom }
func (Match) Tag() string            { return TagMatch }
func (Opaque) Tag() string           { return TagOpaque }
func (Substituting) Tag() string     { return TagSubstituting }

func (BuiltinOperation) isValue() {}
func (BuiltinValue) isValue()     {}
func (From) isValue()             {}
func (Match) isValue()            {}
func (Opaque) isValue()           {}
func (Substituting) isValue()     {}

// Refs lists the identifiers v refers to, in field order.
func Refs(v Value) []Id {
	switch v := v.(type) {
	case BuiltinOperation, BuiltinValue:
		return nil
	case From:
		return []Id{v.Base, v.Variable}
	case Match:
		out := make([]Id, 0, 1+2*len(v.Cases))
		out = append(out, v.Base)
		for _, c := range v.Cases {
			out = append(out, c.Pattern, c.Result)
		}
		return out
	case Opaque:
		return []Id{v.ID, v.Typee}
	case Substituting:
		return []Id{v.Base, v.Target, v.Value}
	default:
		return nil
	}
}

// Validate checks the shape of a single value. It does not follow references.
func Validate(v Value) error {
	switch v := v.(type) {
	case nil:
		return &InvalidVariantError{Reason: "nil value"}
	case BuiltinOperation, From, Match, Substituting:
		return nil
	case BuiltinValue:
		if strings.TrimSpace(v.Name) == "" {
			return &InvalidVariantError{Variant: TagBuiltinValue, Reason: "empty name"}
		}
		return nil
	case Opaque:
		if v.Class != ClassVariable && v.Class != ClassVariant {
			return &InvalidVariantError{Variant: TagOpaque, Reason: fmt.Sprintf("class %d is neither Variable nor Variant", v.Class)}
		}
		return nil
	default:
		return &InvalidVariantError{Variant: fmt.Sprintf("%T", v), Reason: "not a member of the value union"}
	}
}

// Summary renders a one-line description of v with identifiers left
// unresolved, e.g. "From(base=<id 1 pool 0>, variable=<id 2 pool 0>)".
func Summary(v Value) string {
	switch v := v.(type) {
	case nil:
		return "<nil>"
	case BuiltinOperation:
		if v.Op == "" {
			return "BuiltinOperation"
		}
		return "BuiltinOperation(" + v.Op + ")"
	case BuiltinValue:
		return "BuiltinValue(" + v.Name + ")"
	case From:
		return fmt.Sprintf("From(base=%s, variable=%s)", v.Base, v.Variable)
	case Match:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Match(base=%s", v.Base)
		for _, c := range v.Cases {
			fmt.Fprintf(&sb, ", %s => %s", c.Pattern, c.Result)
		}
		sb.WriteString(")")
		return sb.String()
	case Opaque:
		return fmt.Sprintf("Opaque(%s, id=%s, type=%s)", v.Class, v.ID, v.Typee)
	case Substituting:
		return fmt.Sprintf("Substituting(base=%s, %s -> %s)", v.Base, v.Target, v.Value)
	default:
		return fmt.Sprintf("<%T>", v)
	}
}
