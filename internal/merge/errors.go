package merge

import "errors"

// ErrCancelled marks a scenario abandoned by cooperative cancellation.
// Partial results are discarded and the scenario lands in the crash
// registry wrapping this error.
var ErrCancelled = errors.New("merge cancelled")

// ErrNoCommonAncestor is returned when a three-way merge is requested
// without a base root.
var ErrNoCommonAncestor = errors.New("scenario has no base revision")
