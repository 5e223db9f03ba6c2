package costmodel

import (
	"context"
	"math/rand"
)

// cost evaluates the five additive terms of an assignment.
//
//	renaming:  pair is matched but differs in payload        (wr)
//	ancestry:  parents of a matched pair are not paired      (wn)
//	sibling:   left siblings whose partners are not siblings (ws)
//	order:     order inversions among matched siblings       (wo)
//	unmatched: node on either side left without a partner    (wa)
func (p *problem) cost(a []int) float64 {
	total := 0.0

	matchedRight := make([]bool, len(p.right))
	for i, j := range a {
		if j < 0 {
			total += p.opts.WA
			continue
		}
		matchedRight[j] = true

		l, r := p.left[i], p.right[j]
		if l.Payload != r.Payload {
			total += p.opts.WR
		}

		lp, rp := l.Parent(), r.Parent()
		if lp != nil && rp != nil {
			pi, pok := p.lIndex[lp]
			rj, rok := p.rIndex[rp]
			if !pok || !rok || a[pi] != rj {
				total += p.opts.WN
			}
		}
	}
	for _, m := range matchedRight {
		if !m {
			total += p.opts.WA
		}
	}

	// Sibling and order terms, per group of matched left siblings.
	for i, j := range a {
		if j < 0 {
			continue
		}
		for k := i + 1; k < len(a); k++ {
			if a[k] < 0 {
				continue
			}
			li, lk := p.left[i], p.left[k]
			if li.Parent() == nil || li.Parent() != lk.Parent() {
				continue
			}
			ri, rk := p.right[j], p.right[a[k]]
			if ri.Parent() == nil || ri.Parent() != rk.Parent() {
				total += p.opts.WS
				continue
			}
			// Preorder indices grow with sibling position, so an
			// inversion shows as a reversed right-side order.
			if li.Parent().Kind.Ordered() && a[i] > a[k] {
				total += p.opts.WO
			}
		}
	}

	return total
}

// localCost evaluates the cost restricted to a matched pair's subtrees.
func (p *problem) localCost(a []int, i int) float64 {
	sub := newProblem(p.left[i], p.right[a[i]], p.opts)
	restricted := make([]int, len(sub.left))
	for si, n := range sub.left {
		restricted[si] = -1
		ni := p.lIndex[n]
		if a[ni] < 0 {
			continue
		}
		if sj, ok := sub.rIndex[p.right[a[ni]]]; ok {
			restricted[si] = sj
		}
	}
	return sub.cost(restricted)
}

// rematch re-runs the search on subtrees whose local assignment cost
// exceeds the configured bound times the best total cost, splicing the
// improved sub-assignments back in.
func (p *problem) rematch(ctx context.Context, a []int, bestCost float64, opts Options) []int {
	bound := opts.ReMatchBound * bestCost
	if bound <= 0 {
		return a
	}

	out := append([]int(nil), a...)
	for i, j := range a {
		if j < 0 || i == 0 || p.left[i].IsLeaf() {
			continue
		}
		if p.localCost(a, i) <= bound {
			continue
		}

		sub := newProblem(p.left[i], p.right[j], opts)
		seed := baseSeed(opts) + int64(i)
		subAssign, _, err := sub.search(ctx, rand.New(rand.NewSource(seed)))
		if err != nil {
			return out
		}
		// Clear the old sub-assignment, then splice in the new one,
		// skipping partners already taken by pairs outside the subtree.
		for _, n := range sub.left {
			out[p.lIndex[n]] = -1
		}
		taken := make(map[int]bool, len(out))
		for _, oj := range out {
			if oj >= 0 {
				taken[oj] = true
			}
		}
		for si, n := range sub.left {
			if subAssign[si] < 0 {
				continue
			}
			nj := p.rIndex[sub.right[subAssign[si]]]
			if !taken[nj] {
				out[p.lIndex[n]] = nj
				taken[nj] = true
			}
		}
	}
	return out
}
