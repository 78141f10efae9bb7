package value

import (
	"encoding/json"
	"fmt"
	"iter"
)

// Pool is an append-only, order-stable sequence addressed by Id. Indices are
// never compacted and the pool id never changes once assigned.
type Pool[T any] struct {
	ID    uint64 `json:"id"`
	Items []T    `json:"items"`
}

// NewPool constructs a pool with the given id and items.
func NewPool[T any](id uint64, items ...T) *Pool[T] {
	return &Pool[T]{ID: id, Items: items}
}

// Len returns the number of items in the pool.
func (p *Pool[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// IDFor returns the identifier of position index in this pool.
func (p *Pool[T]) IDFor(index int) Id {
	return Id{PoolID: p.ID, Index: index}
}

// Get returns the item at index.
func (p *Pool[T]) Get(index int) (T, error) {
	var zero T
	if p == nil {
		return zero, &IndexOutOfRangeError{Index: index}
	}
	if index < 0 || index >= len(p.Items) {
		return zero, &IndexOutOfRangeError{PoolID: p.ID, Index: index, Len: len(p.Items)}
	}
	return p.Items[index], nil
}

// GetID returns the item id refers to, rejecting identifiers of other pools.
func (p *Pool[T]) GetID(id Id) (T, error) {
	if p != nil && id.PoolID != p.ID {
		var zero T
		return zero, &PoolMismatchError{ID: id, PoolID: p.ID}
	}
	return p.Get(id.Index)
}

// Next returns the identifier following after, or false at the end of the pool.
func (p *Pool[T]) Next(after Id) (Id, bool) {
	if p == nil || after.PoolID != p.ID {
		return Id{}, false
	}
	next := after.Index + 1
	if next < 0 || next >= len(p.Items) {
		return Id{}, false
	}
	return p.IDFor(next), true
}

// All iterates over the pool in index order.
func (p *Pool[T]) All() iter.Seq2[Id, T] {
	return func(yield func(Id, T) bool) {
		if p == nil {
			return
		}
		for i, item := range p.Items {
			if !yield(p.IDFor(i), item) {
				return
			}
		}
	}
}

type wirePool struct {
	ID     *uint64           `json:"id"`
	PoolID *uint64           `json:"pool_id"`
	Items  []json.RawMessage `json:"items"`
}

// UnmarshalJSON decodes {"id":..,"items":[..]}; "pool_id" is accepted in
// place of "id". Items of type Value go through DecodeValue.
func (p *Pool[T]) UnmarshalJSON(data []byte) error {
	var w wirePool
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode pool: %w", err)
	}
	switch {
	case w.ID != nil:
		p.ID = *w.ID
	case w.PoolID != nil:
		p.ID = *w.PoolID
	default:
		p.ID = 0
	}
	items := make([]T, len(w.Items))
	for i, raw := range w.Items {
		if err := decodeItem(raw, &items[i]); err != nil {
			return &ItemError{ID: Id{PoolID: p.ID, Index: i}, Err: err}
		}
	}
	p.Items = items
	return nil
}

func decodeItem[T any](raw json.RawMessage, out *T) error {
	if vp, ok := any(out).(*Value); ok {
		v, err := DecodeValue(raw)
		if err != nil {
			return err
		}
		*vp = v
		return nil
	}
	return json.Unmarshal(raw, out)
}

// Pools is the set of loaded pools keyed by pool id.
type Pools[T any] map[uint64]*Pool[T]

// Add registers p. A second pool with the same id is rejected.
func (ps Pools[T]) Add(p *Pool[T]) error {
	if p == nil {
		return fmt.Errorf("add pool: nil pool")
	}
	if _, ok := ps[p.ID]; ok {
		return fmt.Errorf("add pool %d: %w", p.ID, ErrDuplicateID)
	}
	ps[p.ID] = p
	return nil
}

// Resolve looks up the pool named by id and returns the item at id.Index.
func Resolve[T any](id Id, pools Pools[T]) (T, error) {
	p, ok := pools[id.PoolID]
	if !ok || p == nil {
		var zero T
		return zero, &UnknownPoolError{ID: id}
	}
	return p.Get(id.Index)
}

// Resolve is the method form of the package-level Resolve.
func (ps Pools[T]) Resolve(id Id) (T, error) {
	return Resolve(id, ps)
}

// ValidateOptions controls ValidatePool.
type ValidateOptions struct {
	// CheckRefs requires every cross-reference to resolve against the pools.
	CheckRefs bool
}

// ValidatePool checks every item of p and, when requested, that each
// reference resolves in pools. The first failure is returned as *ItemError.
func ValidatePool(p *Pool[Value], pools Pools[Value], opts ValidateOptions) error {
	for id, v := range p.All() {
		if err := Validate(v); err != nil {
			return &ItemError{ID: id, Err: err}
		}
		if !opts.CheckRefs {
			continue
		}
		for _, ref := range Refs(v) {
			if _, err := Resolve(ref, pools); err != nil {
				return &ItemError{ID: id, Err: fmt.Errorf("reference %s: %w", ref, err)}
			}
		}
	}
	return nil
}
