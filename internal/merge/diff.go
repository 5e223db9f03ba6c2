package merge

import (
	"context"
	"fmt"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/matcher"
)

// PairDiff is the matching of one revision pair plus the derived change
// counts.
type PairDiff struct {
	From, To *artifact.Artifact
	Matched  int
	Deleted  int // nodes of From without a partner
	Added    int // nodes of To without a partner
}

// DiffResult reports the matchings of a diff-only run.
type DiffResult struct {
	Pairs []*PairDiff
}

// Diff runs only the matching stage. A two-way scenario diffs LEFT against
// RIGHT; a three-way scenario diffs BASE against each side.
func Diff(ctx context.Context, mc *MergeContext, s *Scenario) (*DiffResult, error) {
	var pairs [][2]*artifact.Artifact
	switch {
	case s.IsThreeWay():
		pairs = [][2]*artifact.Artifact{
			{s.Base(), s.Left()},
			{s.Base(), s.Right()},
		}
	case s.Left() != nil && s.Right() != nil:
		pairs = [][2]*artifact.Artifact{{s.Left(), s.Right()}}
	default:
		return nil, fmt.Errorf("diff needs a left/right or left/base/right scenario")
	}

	res := &DiffResult{}
	for _, p := range pairs {
		from, to := p[0], p[1]
		from.ClearMatches()
		to.ClearMatches()
		from.Renumber()
		to.Renumber()
		if err := match(ctx, mc, from, to, matcher.ColorRed); err != nil {
			return nil, err
		}

		pd := &PairDiff{From: from, To: to}
		from.Walk(func(n *artifact.Artifact) {
			if n.HasMatch(to.Revision()) {
				pd.Matched++
			} else {
				pd.Deleted++
			}
		})
		to.Walk(func(n *artifact.Artifact) {
			if !n.HasMatch(from.Revision()) {
				pd.Added++
			}
		})
		res.Pairs = append(res.Pairs, pd)
	}
	return res, nil
}
