package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Values are externally tagged on the wire:
//
//	{"BuiltinOperation": ""}
//	{"BuiltinValue": "OriginType"}
//	{"From": {"base": ID, "variable": ID}}
//	{"Match": {"base": ID, "cases": [[ID, ID], ...]}}
//	{"Opaque": {"class": "Variable", "id": ID, "typee": ID}}
//	{"Substituting": {"base": ID, "target": ID, "value": ID}}

type fromBody struct {
	Base     Id `json:"base"`
	Variable Id `json:"variable"`
}

type matchBody struct {
	Base  Id     `json:"base"`
	Cases []Case `json:"cases"`
}

type opaqueBody struct {
	Class string `json:"class"`
	ID    Id     `json:"id"`
	Typee Id     `json:"typee"`
}

type substitutingBody struct {
	Base   Id `json:"base"`
	Target Id `json:"target"`
	Value  Id `json:"value"`
}

// Decoding goes through pointer fields so an absent or null reference is
// told apart from {"pool_id":0,"index":0}.

type fromWire struct {
	Base     *Id `json:"base"`
	Variable *Id `json:"variable"`
}

type matchWire struct {
	Base  *Id     `json:"base"`
	Cases *[]Case `json:"cases"`
}

type opaqueWire struct {
	Class string `json:"class"`
	ID    *Id    `json:"id"`
	Typee *Id    `json:"typee"`
}

type substitutingWire struct {
	Base   *Id `json:"base"`
	Target *Id `json:"target"`
	Value  *Id `json:"value"`
}

type namedRef struct {
	name string
	id   *Id
}

// required reports the first field whose reference is absent.
func required(tag string, fields ...namedRef) error {
	for _, f := range fields {
		if f.id == nil {
			return &InvalidVariantError{Variant: tag, Reason: "missing " + f.name}
		}
	}
	return nil
}

func tagged(tag string, body any) ([]byte, error) {
	return json.Marshal(map[string]any{tag: body})
}

// MarshalJSON implements json.Marshaler.
func (v BuiltinOperation) MarshalJSON() ([]byte, error) { return tagged(TagBuiltinOperation, v.Op) }

// MarshalJSON implements json.Marshaler.
func (v BuiltinValue) MarshalJSON() ([]byte, error) { return tagged(TagBuiltinValue, v.Name) }

// MarshalJSON implements json.Marshaler.
func (v From) MarshalJSON() ([]byte, error) {
	return tagged(TagFrom, fromBody{Base: v.Base, Variable: v.Variable})
}

// MarshalJSON implements json.Marshaler.
func (v Match) MarshalJSON() ([]byte, error) {
	cases := v.Cases
	if cases == nil {
		cases = []Case{}
	}
	return tagged(TagMatch, matchBody{Base: v.Base, Cases: cases})
}

// MarshalJSON implements json.Marshaler.
func (v Opaque) MarshalJSON() ([]byte, error) {
	if v.Class != ClassVariable && v.Class != ClassVariant {
		return nil, &InvalidVariantError{Variant: TagOpaque, Reason: "cannot encode invalid class"}
	}
	return tagged(TagOpaque, opaqueBody{Class: v.Class.String(), ID: v.ID, Typee: v.Typee})
}

// MarshalJSON implements json.Marshaler.
func (v Substituting) MarshalJSON() ([]byte, error) {
	return tagged(TagSubstituting, substitutingBody{Base: v.Base, Target: v.Target, Value: v.Value})
}

// MarshalJSON encodes a case as a two-element array.
func (c Case) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]Id{c.Pattern, c.Result})
}

// UnmarshalJSON decodes a case from a two-element array.
func (c *Case) UnmarshalJSON(data []byte) error {
	var pair []Id
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode match case: %w", err)
	}
	if len(pair) != 2 {
		return &InvalidVariantError{Variant: TagMatch, Reason: fmt.Sprintf("case has %d elements, want 2", len(pair))}
	}
	c.Pattern, c.Result = pair[0], pair[1]
	return nil
}

// DecodeValue decodes a single externally tagged value. Unknown tags, objects
// with more than one tag and malformed bodies yield ErrInvalidVariant.
func DecodeValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		return nil, &InvalidVariantError{Reason: "null value"}
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &InvalidVariantError{Reason: fmt.Sprintf("not a tagged object: %v", err)}
	}
	if len(envelope) != 1 {
		tags := make([]string, 0, len(envelope))
		for k := range envelope {
			tags = append(tags, k)
		}
		sort.Strings(tags)
		return nil, &InvalidVariantError{Reason: fmt.Sprintf("expected exactly one tag, got %v", tags)}
	}
	for tag, body := range envelope {
		v, err := decodeBody(tag, body)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	panic("unreachable")
}

func decodeBody(tag string, body json.RawMessage) (Value, error) {
	bad := func(err error) error {
		return &InvalidVariantError{Variant: tag, Reason: err.Error()}
	}
	switch tag {
	case TagBuiltinOperation:
		var op string
		if err := json.Unmarshal(body, &op); err != nil {
			return nil, bad(err)
		}
		return BuiltinOperation{Op: op}, nil
	case TagBuiltinValue:
		var name string
		if err := json.Unmarshal(body, &name); err != nil {
			return nil, bad(err)
		}
		v := BuiltinValue{Name: name}
		if err := Validate(v); err != nil {
			return nil, err
		}
		return v, nil
	case TagFrom:
		var b fromWire
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, bad(err)
		}
		if err := required(tag, namedRef{"base", b.Base}, namedRef{"variable", b.Variable}); err != nil {
			return nil, err
		}
		return From{Base: *b.Base, Variable: *b.Variable}, nil
	case TagMatch:
		var b matchWire
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, bad(err)
		}
		if err := required(tag, namedRef{"base", b.Base}); err != nil {
			return nil, err
		}
		if b.Cases == nil {
			return nil, &InvalidVariantError{Variant: tag, Reason: "missing cases"}
		}
		return Match{Base: *b.Base, Cases: *b.Cases}, nil
	case TagOpaque:
		var b opaqueWire
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, bad(err)
		}
		class, err := ParseClass(b.Class)
		if err != nil {
			return nil, err
		}
		if err := required(tag, namedRef{"id", b.ID}, namedRef{"typee", b.Typee}); err != nil {
			return nil, err
		}
		return Opaque{Class: class, ID: *b.ID, Typee: *b.Typee}, nil
	case TagSubstituting:
		var b substitutingWire
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, bad(err)
		}
		if err := required(tag, namedRef{"base", b.Base}, namedRef{"target", b.Target}, namedRef{"value", b.Value}); err != nil {
			return nil, err
		}
		return Substituting{Base: *b.Base, Target: *b.Target, Value: *b.Value}, nil
	default:
		return nil, &InvalidVariantError{Variant: tag, Reason: "unknown tag"}
	}
}
