// Package matcher computes node correspondences between two artifact trees.
// The driver dispatches to an ordered matcher (LCS-style dynamic
// programming) or an unordered matcher (maximum-weight bipartite
// assignment) depending on the kind of the compared nodes, with optional
// look-ahead past root mismatches. The cost-model matcher in the costmodel
// subpackage can replace this divide-and-conquer scheme entirely.
package matcher

import (
	"fmt"

	"github.com/t03i/jdime/internal/artifact"
)

// Color tags a matching for diagnostic output only; it has no semantic
// meaning.
type Color int

const (
	ColorNone Color = iota
	ColorGreen
	ColorBlue
	ColorRed
	ColorYellow
)

func (c Color) String() string {
	switch c {
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorRed:
		return "red"
	case ColorYellow:
		return "yellow"
	default:
		return "none"
	}
}

// Matching is a pair of artifacts from two revisions declared correspondent,
// with the score of the optimal matching between their subtrees.
type Matching struct {
	Left  *artifact.Artifact
	Right *artifact.Artifact
	Score int
	Color Color
}

func (m *Matching) String() string {
	return fmt.Sprintf("(%s, %s) = %d", m.Left, m.Right, m.Score)
}

// Matchings is a set of matchings indexed both ways.
type Matchings struct {
	list    []*Matching
	byLeft  map[*artifact.Artifact]*Matching
	byRight map[*artifact.Artifact]*Matching
}

// NewMatchings creates an empty matching set.
func NewMatchings() *Matchings {
	return &Matchings{
		byLeft:  make(map[*artifact.Artifact]*Matching),
		byRight: make(map[*artifact.Artifact]*Matching),
	}
}

// Add inserts a matching into the set.
func (ms *Matchings) Add(m *Matching) {
	ms.list = append(ms.list, m)
	ms.byLeft[m.Left] = m
	ms.byRight[m.Right] = m
}

// All returns the matchings in insertion order.
func (ms *Matchings) All() []*Matching { return ms.list }

// Len returns the number of matchings in the set.
func (ms *Matchings) Len() int { return len(ms.list) }

// ForLeft returns the matching whose left component is a, or nil.
func (ms *Matchings) ForLeft(a *artifact.Artifact) *Matching { return ms.byLeft[a] }

// ForRight returns the matching whose right component is a, or nil.
func (ms *Matchings) ForRight(a *artifact.Artifact) *Matching { return ms.byRight[a] }

// TopScore returns the score of the root pair, zero when the set is empty.
func (ms *Matchings) TopScore() int {
	if len(ms.list) == 0 {
		return 0
	}
	return ms.list[0].Score
}

// Apply records every pair in the artifacts' symmetric matches maps and
// colors the matchings for diagnostic output.
func (ms *Matchings) Apply(color Color) {
	for _, m := range ms.list {
		m.Color = color
		m.Left.SetMatch(m.Right)
	}
}
