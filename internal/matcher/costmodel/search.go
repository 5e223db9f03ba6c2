package costmodel

import (
	"context"
	"math/rand"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/matcher"
)

// problem is one Match invocation: the two node lists in preorder, index
// lookups, and the per-kind candidate sets.
type problem struct {
	opts   Options
	left   []*artifact.Artifact
	right  []*artifact.Artifact
	lIndex map[*artifact.Artifact]int
	rIndex map[*artifact.Artifact]int
	// candidates[i]: right indices with the same kind as left[i]
	candidates [][]int
}

func newProblem(l, r *artifact.Artifact, opts Options) *problem {
	p := &problem{
		opts:   opts,
		left:   preorder(l),
		right:  preorder(r),
		lIndex: make(map[*artifact.Artifact]int),
		rIndex: make(map[*artifact.Artifact]int),
	}
	for i, n := range p.left {
		p.lIndex[n] = i
	}
	for j, n := range p.right {
		p.rIndex[n] = j
	}
	p.candidates = make([][]int, len(p.left))
	for i, n := range p.left {
		for j, m := range p.right {
			if n.Kind == m.Kind {
				p.candidates[i] = append(p.candidates[i], j)
			}
		}
	}
	return p
}

func preorder(a *artifact.Artifact) []*artifact.Artifact {
	var nodes []*artifact.Artifact
	a.Walk(func(n *artifact.Artifact) { nodes = append(nodes, n) })
	return nodes
}

// search runs one iterated local improvement from a random start. The
// roots stay pinned to each other throughout.
func (p *problem) search(ctx context.Context, rng *rand.Rand) ([]int, float64, error) {
	current := p.randomAssignment(rng)
	curCost := p.cost(current)

	best := append([]int(nil), current...)
	bestCost := curCost

	for it := 0; it < p.opts.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		if len(p.left) == 1 {
			break
		}
		fixed := p.pinned(current, rng)

		i := 1 + rng.Intn(len(p.left)-1) // never the root
		if fixed[i] {
			continue
		}

		proposal := append([]int(nil), current...)
		if rng.Float64() < p.opts.PAssign {
			p.rouletteReassign(proposal, i, rng)
		} else {
			p.randomReassign(proposal, i, rng)
		}

		propCost := p.cost(proposal)
		if propCost <= curCost {
			current, curCost = proposal, propCost
		}
		if propCost < bestCost {
			best = append([]int(nil), proposal...)
			bestCost = propCost
		}
	}

	return best, bestCost, nil
}

// randomAssignment pairs the roots and gives every other left node a random
// same-kind partner or none, injective by construction.
func (p *problem) randomAssignment(rng *rand.Rand) []int {
	a := make([]int, len(p.left))
	taken := make([]bool, len(p.right))
	a[0] = 0
	taken[0] = true
	for i := 1; i < len(p.left); i++ {
		a[i] = -1
		cands := p.candidates[i]
		if len(cands) == 0 || rng.Float64() < 0.5 {
			continue
		}
		j := cands[rng.Intn(len(cands))]
		if !taken[j] {
			a[i] = j
			taken[j] = true
		}
	}
	return a
}

// pinned marks a random fraction of the current assignment, drawn between
// the configured lower and upper bounds, as untouchable this iteration.
func (p *problem) pinned(current []int, rng *rand.Rand) []bool {
	fixed := make([]bool, len(current))
	fixed[0] = true
	if !p.opts.FixRandomPercentage {
		return fixed
	}
	frac := p.opts.FixLower + rng.Float64()*(p.opts.FixUpper-p.opts.FixLower)
	for i := 1; i < len(current); i++ {
		if current[i] >= 0 && rng.Float64() < frac {
			fixed[i] = true
		}
	}
	return fixed
}

// rouletteReassign picks node i's new partner by a roulette over the
// same-kind candidates, weighted by the inverse of the cost change each
// candidate would incur.
func (p *problem) rouletteReassign(a []int, i int, rng *rand.Rand) {
	cands := p.availableCandidates(a, i)
	if len(cands) == 0 {
		a[i] = -1
		return
	}

	base := p.cost(a)
	weights := make([]float64, len(cands))
	total := 0.0
	for k, j := range cands {
		prev := a[i]
		a[i] = j
		delta := p.cost(a) - base
		a[i] = prev
		if delta < 0 {
			delta = 0
		}
		weights[k] = 1 / (1 + delta)
		total += weights[k]
	}

	pick := rng.Float64() * total
	for k, w := range weights {
		pick -= w
		if pick <= 0 {
			a[i] = cands[k]
			return
		}
	}
	a[i] = cands[len(cands)-1]
}

// randomReassign gives node i a random unmatched partner, or unmatches it
// when none is available.
func (p *problem) randomReassign(a []int, i int, rng *rand.Rand) {
	cands := p.availableCandidates(a, i)
	if len(cands) == 0 {
		a[i] = -1
		return
	}
	a[i] = cands[rng.Intn(len(cands))]
}

// availableCandidates returns the same-kind right indices not currently
// assigned to another left node.
func (p *problem) availableCandidates(a []int, i int) []int {
	taken := make(map[int]bool, len(a))
	for k, j := range a {
		if k != i && j >= 0 {
			taken[j] = true
		}
	}
	var out []int
	for _, j := range p.candidates[i] {
		if !taken[j] {
			out = append(out, j)
		}
	}
	return out
}

// matchings converts an assignment into a matching set led by the root
// pair. A pair's score is the number of assigned pairs inside its subtree
// pair, mirroring the divide-and-conquer matchers' score semantics.
func (p *problem) matchings(a []int) *matcher.Matchings {
	ms := matcher.NewMatchings()
	for i, j := range a {
		if j < 0 {
			continue
		}
		ms.Add(&matcher.Matching{
			Left:  p.left[i],
			Right: p.right[j],
			Score: p.subtreeScore(a, i),
		})
	}
	return ms
}

// subtreeScore counts assigned pairs whose left node lies in left[i]'s
// subtree and whose right node lies in the partner subtree.
func (p *problem) subtreeScore(a []int, i int) int {
	root := p.left[i]
	partner := p.right[a[i]]
	count := 0
	root.Walk(func(n *artifact.Artifact) {
		ni := p.lIndex[n]
		if a[ni] < 0 {
			return
		}
		if within(p.right[a[ni]], partner) {
			count++
		}
	})
	return count
}

func within(n, root *artifact.Artifact) bool {
	for ; n != nil; n = n.Parent() {
		if n == root {
			return true
		}
	}
	return false
}
