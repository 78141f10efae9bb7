// Package calltree rebuilds nested call trees from flat enter/leave event logs.
//
// An instrumented program emits one Enter when a function is entered and one
// Leave when it returns. Nesting is implicit in stream order, so rebuilding the
// tree is bracket matching: every Enter pairs with the nearest following
// unmatched Leave.
//
// Reconstruction runs in a single pass over an explicit stack, so arbitrarily
// deep traces never grow the goroutine stack. Malformed streams fail with a
// typed error naming the offending event index unless lenient mode is
// requested:
//
//	calls, err := calltree.Reconstruct(events)
//	if errors.Is(err, calltree.ErrUnmatchedLeave) { ... }
//
//	res, _ := calltree.ReconstructWith(events, calltree.Options{Lenient: true})
//	for _, issue := range res.Issues { ... }
package calltree
