package matcher

import (
	"context"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/t03i/jdime/internal/artifact"
)

// Look-ahead bounds. Off stops at the first root mismatch, Full always
// descends.
const (
	LookAheadOff  = 0
	LookAheadFull = math.MaxInt
)

// Options configures a matcher run.
type Options struct {
	// LookAhead is the global number of levels to keep searching for
	// matches below a root mismatch.
	LookAhead int

	// LookAheads overrides the global depth per artifact kind.
	LookAheads map[artifact.Kind]int
}

// LookAheadFor returns the per-kind override if present, else the global
// depth.
func (o Options) LookAheadFor(kind artifact.Kind) int {
	if la, ok := o.LookAheads[kind]; ok {
		return la
	}
	return o.LookAhead
}

// memoCapacity bounds the subtree-score cache. Scores are memoized per pair
// of artifact identities within one run.
const memoCapacity = 1 << 16

type pairKey struct {
	leftRev  artifact.Revision
	leftID   int
	rightRev artifact.Revision
	rightID  int
}

type result struct {
	score     int
	matchings []*Matching
}

var emptyResult = &result{}

// Matcher computes optimal matchings between two artifact trees. A Matcher
// is bound to one run; the memoization cache assumes stable identities.
type Matcher struct {
	opts Options
	memo *lru.Cache[pairKey, *result]
}

// New creates a matcher with the given options.
func New(opts Options) *Matcher {
	memo, _ := lru.New[pairKey, *result](memoCapacity)
	return &Matcher{opts: opts, memo: memo}
}

// Match computes the optimal matching between the trees rooted at l and r.
// The returned set leads with the root pair; it is empty when the roots are
// incompatible and look-ahead found nothing.
func (m *Matcher) Match(ctx context.Context, l, r *artifact.Artifact) (*Matchings, error) {
	res, err := m.match(ctx, l, r)
	if err != nil {
		return nil, err
	}
	ms := NewMatchings()
	for _, pair := range res.matchings {
		ms.Add(pair)
	}
	return ms, nil
}

func (m *Matcher) match(ctx context.Context, l, r *artifact.Artifact) (*result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := pairKey{l.Revision(), l.ID(), r.Revision(), r.ID()}
	if res, ok := m.memo.Get(key); ok {
		return res, nil
	}

	var res *result
	var err error

	switch {
	case !l.EqualsShallow(r):
		la := m.opts.LookAheadFor(l.Kind)
		if la == LookAheadOff {
			res = emptyResult
		} else {
			res, err = m.matchLookAhead(ctx, l, r, la)
		}
	case l.Kind.Ordered():
		res, err = m.matchOrdered(ctx, l, r)
	default:
		res, err = m.matchUnordered(ctx, l, r)
	}
	if err != nil {
		return nil, err
	}

	m.memo.Add(key, res)
	return res, nil
}

// childScores computes the pairwise subtree results for two child lists.
func (m *Matcher) childScores(ctx context.Context, lc, rc []*artifact.Artifact) ([][]*result, error) {
	s := make([][]*result, len(lc))
	for i := range lc {
		s[i] = make([]*result, len(rc))
		for j := range rc {
			// Cheap prefilter: structurally equal subtrees always match
			// completely, no recursion needed.
			if lc[i].Hash() == rc[j].Hash() && lc[i].EqualsStructurally(rc[j]) {
				s[i][j] = &result{
					score:     lc[i].Subtree(),
					matchings: equalSubtreeMatchings(lc[i], rc[j]),
				}
				continue
			}
			res, err := m.match(ctx, lc[i], rc[j])
			if err != nil {
				return nil, err
			}
			s[i][j] = res
		}
	}
	return s, nil
}

// equalSubtreeMatchings pairs up two structurally equal subtrees node by
// node.
func equalSubtreeMatchings(l, r *artifact.Artifact) []*Matching {
	size := l.Subtree()
	pairs := []*Matching{{Left: l, Right: r, Score: size}}
	for i, lc := range l.Children() {
		pairs = append(pairs, equalSubtreeMatchings(lc, r.Child(i))...)
	}
	return pairs
}

// rooted wraps child matchings into a result led by the root pair.
func rooted(l, r *artifact.Artifact, childScore int, children []*Matching) *result {
	score := 1 + childScore
	matchings := make([]*Matching, 0, 1+len(children))
	matchings = append(matchings, &Matching{Left: l, Right: r, Score: score})
	matchings = append(matchings, children...)
	return &result{score: score, matchings: matchings}
}

// matchLookAhead keeps descending up to depth levels below a root mismatch,
// searching for the best matching pair within the two subtrees. The
// returned result leads with the (l, r) pair carrying the best subtree
// score found.
func (m *Matcher) matchLookAhead(ctx context.Context, l, r *artifact.Artifact, depth int) (*result, error) {
	lcands := descendants(l, depth)
	rcands := descendants(r, depth)

	best := emptyResult
	for _, dl := range lcands {
		for _, dr := range rcands {
			if dl == l && dr == r {
				continue
			}
			if !dl.EqualsShallow(dr) {
				continue
			}
			res, err := m.match(ctx, dl, dr)
			if err != nil {
				return nil, err
			}
			if res.score > best.score {
				best = res
			}
		}
	}

	if best.score == 0 {
		return emptyResult, nil
	}

	matchings := make([]*Matching, 0, 1+len(best.matchings))
	matchings = append(matchings, &Matching{Left: l, Right: r, Score: best.score})
	matchings = append(matchings, best.matchings...)
	return &result{score: best.score, matchings: matchings}, nil
}

// descendants collects the subtree nodes of a down to the given number of
// levels, a included.
func descendants(a *artifact.Artifact, depth int) []*artifact.Artifact {
	nodes := []*artifact.Artifact{a}
	if depth == 0 {
		return nodes
	}
	for _, c := range a.Children() {
		nodes = append(nodes, descendants(c, depth-1)...)
	}
	return nodes
}
