package calltree

// Options tunes reconstruction.
type Options struct {
	// Lenient reproduces the permissive behaviour of interactive viewers: an
	// unmatched top-level Leave ends traversal and calls still open at end of
	// stream are closed implicitly. Every such condition is reported in
	// Result.Issues instead of failing.
	Lenient bool
	// MatchNames requires a named Leave to name the call it closes.
	MatchNames bool
}

// Result carries the reconstructed calls and bookkeeping about the pass.
type Result struct {
	Calls    []*Call
	MaxDepth int     // stack high-water mark, equal to the maximum nesting depth
	Events   int     // events consumed
	Issues   []error // recovered problems, lenient mode only
}

// Reconstruct rebuilds the call tree from events and fails on the first
// malformed event.
func Reconstruct(events []Event) ([]*Call, error) {
	res, err := ReconstructWith(events, Options{})
	if err != nil {
		return nil, err
	}
	return res.Calls, nil
}

// ReconstructWith rebuilds the call tree from events using an explicit stack.
func ReconstructWith(events []Event, opts Options) (Result, error) {
	var (
		res   Result
		stack []*Call
	)
	res.Calls = []*Call{}

	// closeTop pops the innermost open call and attaches it to its parent.
	closeTop := func(leave int) {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c.Leave = leave
		if len(stack) == 0 {
			res.Calls = append(res.Calls, c)
		} else {
			parent := stack[len(stack)-1]
			parent.Body = append(parent.Body, c)
		}
	}

scan:
	for i, ev := range events {
		res.Events = i + 1
		switch ev.Kind {
		case KindEnter:
			stack = append(stack, &Call{
				FnName: ev.FnName,
				Args:   ev.Args,
				Body:   []*Call{},
				Enter:  i,
				Leave:  -1,
			})
			if len(stack) > res.MaxDepth {
				res.MaxDepth = len(stack)
			}
		case KindLeave:
			if len(stack) == 0 {
				err := &UnmatchedLeaveError{Index: i}
				if !opts.Lenient {
					return res, err
				}
				res.Issues = append(res.Issues, err)
				break scan
			}
			if opts.MatchNames && ev.FnName != "" {
				if open := stack[len(stack)-1]; open.FnName != ev.FnName {
					err := &MismatchedLeaveError{Index: i, Got: ev.FnName, Want: open.FnName}
					if !opts.Lenient {
						return res, err
					}
					res.Issues = append(res.Issues, err)
				}
			}
			closeTop(i)
		default:
			err := &UnknownEventError{Index: i, Kind: ev.Kind}
			if !opts.Lenient {
				return res, err
			}
			res.Issues = append(res.Issues, err)
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1]
		err := &UnterminatedCallError{Index: open.Enter, FnName: open.FnName, Depth: len(stack)}
		if !opts.Lenient {
			return res, err
		}
		res.Issues = append(res.Issues, err)
		for len(stack) > 0 {
			closeTop(-1)
		}
	}
	return res, nil
}
