// Package costmodel implements the optional global matcher. Instead of the
// divide-and-conquer matchers it searches the space of whole-tree
// assignments, scoring each candidate with a weighted cost over renaming,
// broken ancestry, broken sibling relations, order violations and
// unmatched nodes, and improving it by iterated probabilistic local search.
package costmodel

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/matcher"
)

// Options are the cost-model parameters. The weights correspond to the five
// additive cost terms; the remaining fields steer the search.
type Options struct {
	Iterations          int
	PAssign             float64
	WR, WN, WA, WS, WO  float64
	FixLower, FixUpper  float64
	FixRandomPercentage bool
	Parallel            bool
	Seed                *int64 // nil: nondeterministic by design
	ReMatchBound        float64
}

// restarts is the number of independent searches run per Match call. Kept
// fixed so a seeded run is reproducible under any worker count.
const restarts = 4

// Match computes a whole-tree assignment between l and r and returns it as
// a matching set led by the root pair.
func Match(ctx context.Context, l, r *artifact.Artifact, opts Options) (*matcher.Matchings, error) {
	p := newProblem(l, r, opts)

	type outcome struct {
		assignment []int
		cost       float64
	}
	results := make([]outcome, restarts)

	runOne := func(i int) error {
		seed := baseSeed(opts) + int64(i)
		a, c, err := p.search(ctx, rand.New(rand.NewSource(seed)))
		if err != nil {
			return err
		}
		results[i] = outcome{a, c}
		return nil
	}

	if opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.NumCPU())
		for i := 0; i < restarts; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return runOne(i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := 0; i < restarts; i++ {
			if err := runOne(i); err != nil {
				return nil, err
			}
		}
	}

	// Lowest cost wins, ties broken by lowest restart index.
	best := 0
	for i := 1; i < restarts; i++ {
		if results[i].cost < results[best].cost {
			best = i
		}
	}

	assignment := results[best].assignment
	if opts.ReMatchBound > 0 {
		assignment = p.rematch(ctx, assignment, results[best].cost, opts)
	}

	return p.matchings(assignment), nil
}

func baseSeed(opts Options) int64 {
	if opts.Seed != nil {
		return *opts.Seed
	}
	return rand.Int63()
}
