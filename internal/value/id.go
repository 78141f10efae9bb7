package value

import (
	"encoding/json"
	"fmt"

	"fortio.org/safecast"
)

// Id is a position-based reference into a Pool. Two identifiers are the same
// reference iff both fields match, so Id is usable as a map key.
type Id struct {
	PoolID uint64
	Index  int
}

// String renders the identifier for debugging output.
func (id Id) String() string {
	return fmt.Sprintf("<id %d pool %d>", id.Index, id.PoolID)
}

type wireID struct {
	PoolID uint64 `json:"pool_id"`
	Index  uint64 `json:"index"`
}

// MarshalJSON encodes the identifier as {"pool_id":..,"index":..}.
func (id Id) MarshalJSON() ([]byte, error) {
	idx, err := safecast.Conv[uint64](id.Index)
	if err != nil {
		return nil, fmt.Errorf("id index %d: %w", id.Index, err)
	}
	return json.Marshal(wireID{PoolID: id.PoolID, Index: idx})
}

// UnmarshalJSON decodes {"pool_id":..,"index":..}. Both fields are required;
// negative or oversized indices are rejected.
func (id *Id) UnmarshalJSON(data []byte) error {
	var w struct {
		PoolID *uint64 `json:"pool_id"`
		Index  *uint64 `json:"index"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	switch {
	case w.PoolID == nil:
		return fmt.Errorf("decode id: missing pool_id in %s", data)
	case w.Index == nil:
		return fmt.Errorf("decode id: missing index in %s", data)
	}
	idx, err := safecast.Conv[int](*w.Index)
	if err != nil {
		return fmt.Errorf("id index %d: %w", *w.Index, err)
	}
	*id = Id{PoolID: *w.PoolID, Index: idx}
	return nil
}
