package merge

import (
	"context"
	"fmt"
)

// NWay unifies two or more revisions by a left-fold of conditional two-way
// merges: each revision is merged into the accumulated result with
// conditional merge on, so irreconcilable regions become choice artifacts
// whose condition labels are the revision names.
func NWay(ctx context.Context, mc *MergeContext, s *Scenario) (*Result, error) {
	revs := s.Revisions()
	if len(revs) < 2 {
		return nil, fmt.Errorf("n-way merge needs at least two revisions, got %d", len(revs))
	}

	sub := mc.Clone()
	sub.ConditionalMerge = true

	acc := s.Get(revs[0])
	accLabel := string(revs[0])
	conflicts := 0

	for _, rev := range revs[1:] {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		res, err := TwoWay(ctx, sub, acc, s.Get(rev), accLabel, string(rev))
		if err != nil {
			return nil, err
		}
		acc = res.Root
		conflicts += res.Conflicts
	}

	return &Result{Root: acc, Conflicts: conflicts}, nil
}
