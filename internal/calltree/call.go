package calltree

import (
	"encoding/json"
	"fmt"
)

// Call is one reconstructed invocation. Body holds the calls made directly
// inside it, in the order they were entered. Enter and Leave are the indices
// of the bracketing events; Leave is -1 for a call closed implicitly at end of
// stream in lenient mode.
type Call struct {
	FnName string
	Args   json.RawMessage
	Body   []*Call
	Enter  int
	Leave  int
}

// Closed reports whether the call had an explicit Leave.
func (c *Call) Closed() bool { return c.Leave >= 0 }

// String renders "name(N children)".
func (c *Call) String() string {
	return fmt.Sprintf("%s(%d children)", c.FnName, len(c.Body))
}

type wireCall struct {
	Event  string          `json:"event"`
	FnName string          `json:"fn_name"`
	Args   json.RawMessage `json:"args"`
	Body   []*Call         `json:"body"`
}

// MarshalJSON encodes {"event":"call","fn_name":..,"args":..,"body":[..]}.
func (c *Call) MarshalJSON() ([]byte, error) {
	body := c.Body
	if body == nil {
		body = []*Call{}
	}
	args := c.Args
	if len(args) == 0 {
		args = json.RawMessage("null")
	}
	return json.Marshal(wireCall{Event: "call", FnName: c.FnName, Args: args, Body: body})
}

// UnmarshalJSON implements json.Unmarshaler. Event positions are not part of
// the wire form and decode as -1.
func (c *Call) UnmarshalJSON(data []byte) error {
	var w wireCall
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode call: %w", err)
	}
	if w.Event != "" && w.Event != "call" {
		return fmt.Errorf("%w: %q (expected: call)", ErrUnknownEvent, w.Event)
	}
	body := w.Body
	if body == nil {
		body = []*Call{}
	}
	*c = Call{FnName: w.FnName, Args: w.Args, Body: body, Enter: -1, Leave: -1}
	return nil
}
