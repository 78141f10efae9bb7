package sirdoc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"sire/internal/calltree"
	"sire/internal/trace"
	"sire/internal/value"
)

// Stage3 carries the value pool of the traced program.
type Stage3 struct {
	Values value.Pool[value.Value] `json:"values"`
}

// InputTrace is the flat document produced by instrumentation.
type InputTrace struct {
	Events []calltree.Event `json:"events"`
	Stage3 *Stage3          `json:"stage3,omitempty"`
}

// StructuredTrace is the reconstructed document handed to viewers.
type StructuredTrace struct {
	Events []*calltree.Call `json:"events"`
	Stage3 *Stage3          `json:"stage3,omitempty"`
}

// Pools returns the loaded pools keyed by id. It is empty without stage3.
func (t *StructuredTrace) Pools() value.Pools[value.Value] {
	pools := value.Pools[value.Value]{}
	if t != nil && t.Stage3 != nil {
		pools[t.Stage3.Values.ID] = &t.Stage3.Values
	}
	return pools
}

// Decode reads an input document.
func Decode(r io.Reader) (*InputTrace, error) {
	var in InputTrace
	dec := json.NewDecoder(r)
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode trace document: %w", err)
	}
	if in.Events == nil {
		return nil, fmt.Errorf("decode trace document: missing \"events\"")
	}
	return &in, nil
}

// Encode writes a structured document as one line of JSON. Indenting would
// also reformat every call's args, which are passed through untouched.
func Encode(w io.Writer, t *StructuredTrace) error {
	return json.NewEncoder(w).Encode(t)
}

// EncodeInput writes a flat input document the same way.
func EncodeInput(w io.Writer, t *InputTrace) error {
	return json.NewEncoder(w).Encode(t)
}

// Options controls Build.
type Options struct {
	Reconstruct calltree.Options
	// CheckRefs requires every value reference to resolve within stage3.
	CheckRefs bool
}

// Report describes a build.
type Report struct {
	Events   int
	Calls    int
	MaxDepth int
	Values   int
	Issues   []error
}

// Build reconstructs the call tree of in and validates its value pool.
func Build(ctx context.Context, in *InputTrace, opts Options) (*StructuredTrace, Report, error) {
	var rep Report
	if in == nil {
		return nil, rep, fmt.Errorf("build: nil input")
	}

	_, span := trace.Start(ctx, trace.ScopeStage, "reconstruct")
	res, err := calltree.ReconstructWith(in.Events, opts.Reconstruct)
	span.WithExtra("events", strconv.Itoa(res.Events)).WithExtra("max_depth", strconv.Itoa(res.MaxDepth))
	if err != nil {
		span.Fail(err)
		return nil, rep, fmt.Errorf("reconstruct: %w", err)
	}
	span.End("")

	rep.Events = res.Events
	rep.MaxDepth = res.MaxDepth
	rep.Issues = res.Issues
	rep.Calls = calltree.Stats(res.Calls).Calls

	out := &StructuredTrace{Events: res.Calls, Stage3: in.Stage3}
	if in.Stage3 != nil {
		_, vspan := trace.Start(ctx, trace.ScopeStage, "validate")
		pool := &in.Stage3.Values
		rep.Values = pool.Len()
		err := value.ValidatePool(pool, out.Pools(), value.ValidateOptions{CheckRefs: opts.CheckRefs})
		if err != nil {
			vspan.Fail(err)
			return nil, rep, fmt.Errorf("validate stage3 values: %w", err)
		}
		vspan.End("")
	}
	return out, rep, nil
}
