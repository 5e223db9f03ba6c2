package matcher

import (
	"context"

	"github.com/t03i/jdime/internal/artifact"
)

// matchOrdered matches the children of two shallowly equal artifacts whose
// child order is semantically significant. Dynamic programming over the
// grid of child indices: a cell either matches the two children (diagonal
// plus subtree score) or skips one of them (maximum of up and left). The
// resulting set preserves order: matched pairs never cross.
func (m *Matcher) matchOrdered(ctx context.Context, l, r *artifact.Artifact) (*result, error) {
	lc, rc := l.Children(), r.Children()

	if len(lc) == 0 || len(rc) == 0 {
		return rooted(l, r, 0, nil), nil
	}

	s, err := m.childScores(ctx, lc, rc)
	if err != nil {
		return nil, err
	}

	dp := make([][]int, len(lc)+1)
	for i := range dp {
		dp[i] = make([]int, len(rc)+1)
	}
	for i := 1; i <= len(lc); i++ {
		for j := 1; j <= len(rc); j++ {
			best := dp[i-1][j]
			if dp[i][j-1] > best {
				best = dp[i][j-1]
			}
			if sc := s[i-1][j-1].score; sc > 0 && dp[i-1][j-1]+sc > best {
				best = dp[i-1][j-1] + sc
			}
			dp[i][j] = best
		}
	}

	// Traceback, preferring the diagonal so equal-score alternatives
	// resolve to the same matching on every run.
	var blocks [][]*Matching
	i, j := len(lc), len(rc)
	for i > 0 && j > 0 {
		if sc := s[i-1][j-1].score; sc > 0 && dp[i][j] == dp[i-1][j-1]+sc {
			blocks = append(blocks, s[i-1][j-1].matchings)
			i--
			j--
		} else if dp[i][j] == dp[i-1][j] {
			i--
		} else {
			j--
		}
	}

	var children []*Matching
	for b := len(blocks) - 1; b >= 0; b-- {
		children = append(children, blocks[b]...)
	}
	return rooted(l, r, dp[len(lc)][len(rc)], children), nil
}
