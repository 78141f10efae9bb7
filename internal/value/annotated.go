package value

import (
	"encoding/json"
	"fmt"
)

// AnnotatedValue pairs a value with memoization slots owned by external
// analyses. Each slot goes from absent to present at most once.
type AnnotatedValue struct {
	Value           Value
	CachedType      *Id
	CachedReduction *Id
}

// SetCachedType fills the type slot. Re-setting the same id is a no-op.
func (a *AnnotatedValue) SetCachedType(id Id) error {
	return setOnce(&a.CachedType, id, "cached_type")
}

// SetCachedReduction fills the reduction slot. Re-setting the same id is a no-op.
func (a *AnnotatedValue) SetCachedReduction(id Id) error {
	return setOnce(&a.CachedReduction, id, "cached_reduction")
}

func setOnce(slot **Id, id Id, name string) error {
	if *slot == nil {
		v := id
		*slot = &v
		return nil
	}
	if **slot == id {
		return nil
	}
	return fmt.Errorf("%s: have %s, got %s: %w", name, **slot, id, ErrCacheConflict)
}

type wireAnnotated struct {
	CachedType      *Id             `json:"cached_type"`
	CachedReduction *Id             `json:"cached_reduction"`
	Value           json.RawMessage `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (a AnnotatedValue) MarshalJSON() ([]byte, error) {
	if err := Validate(a.Value); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(a.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireAnnotated{CachedType: a.CachedType, CachedReduction: a.CachedReduction, Value: raw})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AnnotatedValue) UnmarshalJSON(data []byte) error {
	var w wireAnnotated
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode annotated value: %w", err)
	}
	v, err := DecodeValue(w.Value)
	if err != nil {
		return err
	}
	*a = AnnotatedValue{Value: v, CachedType: w.CachedType, CachedReduction: w.CachedReduction}
	return nil
}
