package value

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange reports an index outside a pool's backing slice.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownPool reports an identifier naming a pool that is not loaded.
	ErrUnknownPool = errors.New("unknown pool")
	// ErrPoolMismatch reports an identifier used against the wrong pool.
	ErrPoolMismatch = errors.New("identifier belongs to another pool")
	// ErrInvalidVariant reports a value outside the closed union.
	ErrInvalidVariant = errors.New("invalid value variant")
	// ErrDuplicateID reports a second definition for the same identifier.
	ErrDuplicateID = errors.New("duplicate identifier")
	// ErrCacheConflict reports an attempt to overwrite a filled cache slot
	// with a different identifier.
	ErrCacheConflict = errors.New("cache already holds a different value")
)

// IndexOutOfRangeError is returned by Pool.Get for a bad index.
type IndexOutOfRangeError struct {
	PoolID uint64
	Index  int
	Len    int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("pool %d: index %d out of range [0,%d)", e.PoolID, e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }

// UnknownPoolError is returned by Resolve when no pool has the requested id.
type UnknownPoolError struct {
	ID Id
}

func (e *UnknownPoolError) Error() string {
	return fmt.Sprintf("resolve %s: pool %d is not loaded", e.ID, e.ID.PoolID)
}

func (e *UnknownPoolError) Unwrap() error { return ErrUnknownPool }

// PoolMismatchError is returned by Pool.GetID for an identifier of another pool.
type PoolMismatchError struct {
	ID     Id
	PoolID uint64
}

func (e *PoolMismatchError) Error() string {
	return fmt.Sprintf("%s used against pool %d", e.ID, e.PoolID)
}

func (e *PoolMismatchError) Unwrap() error { return ErrPoolMismatch }

// InvalidVariantError describes a value that fails shape validation.
type InvalidVariantError struct {
	Variant string // tag as seen on the wire or the Go type name
	Reason  string
}

func (e *InvalidVariantError) Error() string {
	if e.Variant == "" {
		return "invalid value variant: " + e.Reason
	}
	return fmt.Sprintf("invalid value variant %q: %s", e.Variant, e.Reason)
}

func (e *InvalidVariantError) Unwrap() error { return ErrInvalidVariant }

// ItemError attaches a pool position to an error found while checking a pool.
type ItemError struct {
	ID  Id
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
