package matcher

import (
	"context"

	"github.com/t03i/jdime/internal/artifact"
)

// matchUnordered matches the children of two shallowly equal artifacts
// whose child order carries no meaning. The children form a bipartite graph
// with recursive subtree scores as edge weights; a maximum-weight
// assignment picks at most one partner per child.
func (m *Matcher) matchUnordered(ctx context.Context, l, r *artifact.Artifact) (*result, error) {
	lc, rc := l.Children(), r.Children()

	if len(lc) == 0 || len(rc) == 0 {
		return rooted(l, r, 0, nil), nil
	}

	s, err := m.childScores(ctx, lc, rc)
	if err != nil {
		return nil, err
	}

	assignment := maxWeightAssignment(len(lc), len(rc), func(i, j int) int {
		return s[i][j].score
	})

	total := 0
	var children []*Matching
	for i, j := range assignment {
		if j < 0 || s[i][j].score == 0 {
			continue
		}
		total += s[i][j].score
		children = append(children, s[i][j].matchings...)
	}

	return rooted(l, r, total, children), nil
}

// maxWeightAssignment solves the assignment problem on an n x m weight
// matrix, maximizing total weight. Returns, for each row, the assigned
// column or -1. Hungarian algorithm with potentials on the square padded
// matrix; zero-weight padding makes leaving a child unmatched free.
func maxWeightAssignment(n, m int, weight func(i, j int) int) []int {
	dim := n
	if m > dim {
		dim = m
	}

	// The algorithm minimizes, so negate the weights.
	cost := func(i, j int) int {
		if i < n && j < m {
			return -weight(i, j)
		}
		return 0
	}

	const inf = int(^uint(0) >> 1)

	u := make([]int, dim+1)
	v := make([]int, dim+1)
	p := make([]int, dim+1) // p[j]: row matched to column j
	way := make([]int, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0
		minv := make([]int, dim+1)
		used := make([]bool, dim+1)
		for j := range minv {
			minv[j] = inf
		}
		for {
			used[j0] = true
			i0, delta, j1 := p[j0], inf, 0
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := cost(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
			if j0 == 0 {
				break
			}
		}
	}

	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = -1
	}
	for j := 1; j <= dim; j++ {
		if i := p[j]; i >= 1 && i <= n && j <= m {
			assignment[i-1] = j - 1
		}
	}
	return assignment
}
