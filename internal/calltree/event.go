package calltree

import (
	"encoding/json"
	"fmt"
)

// Kind distinguishes the two event shapes of an instrumentation log.
type Kind uint8

const (
	// KindEnter marks descent into a call.
	KindEnter Kind = iota + 1
	// KindLeave marks return from the innermost open call.
	KindLeave
)

// String returns the wire spelling of Kind.
func (k Kind) String() string {
	switch k {
	case KindEnter:
		return "enter"
	case KindLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// ParseKind converts a wire tag into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "enter":
		return KindEnter, nil
	case "leave":
		return KindLeave, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected: enter|leave)", ErrUnknownEvent, s)
	}
}

// Event is one entry of the flat log. Args is passed through verbatim; the
// FnName of a Leave is optional and only consulted with Options.MatchNames.
type Event struct {
	Kind   Kind
	FnName string
	Args   json.RawMessage
}

// Enter builds an enter event.
func Enter(name string, args json.RawMessage) Event {
	return Event{Kind: KindEnter, FnName: name, Args: args}
}

// Leave builds an anonymous leave event.
func Leave() Event {
	return Event{Kind: KindLeave}
}

type wireEvent struct {
	Event  string          `json:"event"`
	FnName string          `json:"fn_name,omitempty"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// MarshalJSON encodes {"event":"enter","fn_name":..,"args":..} or
// {"event":"leave"}.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Kind != KindEnter && e.Kind != KindLeave {
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownEvent, e.Kind)
	}
	w := wireEvent{Event: e.Kind.String(), FnName: e.FnName}
	if e.Kind == KindEnter {
		w.Args = e.Args
		if len(w.Args) == 0 {
			w.Args = json.RawMessage("null")
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	kind, err := ParseKind(w.Event)
	if err != nil {
		return err
	}
	*e = Event{Kind: kind, FnName: w.FnName}
	if kind == KindEnter {
		e.Args = w.Args
	}
	return nil
}
