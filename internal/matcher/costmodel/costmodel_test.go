package costmodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/matcher"
)

func tree(rev artifact.Revision, kind artifact.Kind, payload string, children ...*artifact.Artifact) *artifact.Artifact {
	a := artifact.New(rev, kind, payload)
	for _, c := range children {
		a.AddChild(c)
	}
	return a
}

func testTrees() (*artifact.Artifact, *artifact.Artifact) {
	l := tree(artifact.Base, artifact.KindClass, "C",
		tree(artifact.Base, artifact.KindMethod, "m1", artifact.New(artifact.Base, artifact.KindStatement, "a")),
		tree(artifact.Base, artifact.KindMethod, "m2", artifact.New(artifact.Base, artifact.KindStatement, "b")),
	)
	r := tree(artifact.Left, artifact.KindClass, "C",
		tree(artifact.Left, artifact.KindMethod, "m1", artifact.New(artifact.Left, artifact.KindStatement, "a")),
		tree(artifact.Left, artifact.KindMethod, "m2", artifact.New(artifact.Left, artifact.KindStatement, "c")),
	)
	l.Renumber()
	r.Renumber()
	return l, r
}

func testOptions(seed int64) Options {
	return Options{
		Iterations:          200,
		PAssign:             0.7,
		WR:                  1,
		WN:                  1,
		WA:                  1,
		WS:                  1,
		WO:                  1,
		FixLower:            0.25,
		FixUpper:            0.5,
		FixRandomPercentage: true,
		Seed:                &seed,
	}
}

func TestMatch_RootsAlwaysPaired(t *testing.T) {
	l, r := testTrees()
	ms, err := Match(context.Background(), l, r, testOptions(42))
	require.NoError(t, err)

	require.NotZero(t, ms.Len())
	top := ms.All()[0]
	assert.Same(t, l, top.Left)
	assert.Same(t, r, top.Right)
}

func TestMatch_AtMostOnePartnerPerNode(t *testing.T) {
	l, r := testTrees()
	ms, err := Match(context.Background(), l, r, testOptions(7))
	require.NoError(t, err)

	seenLeft := make(map[*artifact.Artifact]bool)
	seenRight := make(map[*artifact.Artifact]bool)
	for _, m := range ms.All() {
		assert.False(t, seenLeft[m.Left], "left node paired twice")
		assert.False(t, seenRight[m.Right], "right node paired twice")
		seenLeft[m.Left] = true
		seenRight[m.Right] = true
		assert.Equal(t, m.Left.Kind, m.Right.Kind, "candidates are restricted to equal kinds")
	}
}

func TestMatch_DeterministicForFixedSeed(t *testing.T) {
	key := func(ms *matcher.Matchings) [][2]int {
		var out [][2]int
		for _, m := range ms.All() {
			out = append(out, [2]int{m.Left.ID(), m.Right.ID()})
		}
		return out
	}

	l1, r1 := testTrees()
	ms1, err := Match(context.Background(), l1, r1, testOptions(42))
	require.NoError(t, err)

	l2, r2 := testTrees()
	ms2, err := Match(context.Background(), l2, r2, testOptions(42))
	require.NoError(t, err)

	assert.Equal(t, key(ms1), key(ms2))
}

func TestMatch_ParallelMatchesSequential(t *testing.T) {
	l1, r1 := testTrees()
	seq, err := Match(context.Background(), l1, r1, testOptions(42))
	require.NoError(t, err)

	opts := testOptions(42)
	opts.Parallel = true
	l2, r2 := testTrees()
	par, err := Match(context.Background(), l2, r2, opts)
	require.NoError(t, err)

	assert.Equal(t, seq.Len(), par.Len(), "restart count is fixed, so parallelism cannot change the result")
}

func TestMatch_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, r := testTrees()
	_, err := Match(ctx, l, r, testOptions(42))
	assert.Error(t, err)
}

func TestCost_UnmatchedNodesArePenalized(t *testing.T) {
	l, r := testTrees()
	p := newProblem(l, r, testOptions(1))

	nothing := make([]int, len(p.left))
	for i := range nothing {
		nothing[i] = -1
	}
	everything := make([]int, len(p.left))
	for i := range everything {
		everything[i] = i // trees are isomorphic, preorder aligns
	}

	assert.Greater(t, p.cost(nothing), p.cost(everything))
}
