package merge

import (
	"fmt"
	"strings"

	"github.com/t03i/jdime/internal/artifact"
)

// Scenario binds revision names to the artifact roots being merged
// together. Arity 2 or 3 for ordinary merges, 2 or more for n-way.
// Immutable after construction.
type Scenario struct {
	revisions []artifact.Revision
	roots     map[artifact.Revision]*artifact.Artifact
}

// NewTwoWay builds a left/right scenario (diff-only runs).
func NewTwoWay(left, right *artifact.Artifact) *Scenario {
	return newScenario(
		[]artifact.Revision{artifact.Left, artifact.Right},
		[]*artifact.Artifact{left, right},
	)
}

// NewThreeWay builds a left/base/right scenario.
func NewThreeWay(left, base, right *artifact.Artifact) *Scenario {
	return newScenario(
		[]artifact.Revision{artifact.Left, artifact.Base, artifact.Right},
		[]*artifact.Artifact{left, base, right},
	)
}

// NewNWay builds a scenario over the given roots under successive revision
// names, re-tagging each root into its assigned revision.
func NewNWay(roots []*artifact.Artifact) *Scenario {
	var sup artifact.RevisionSupplier
	revs := make([]artifact.Revision, len(roots))
	tagged := make([]*artifact.Artifact, len(roots))
	for i, root := range roots {
		revs[i] = sup.Next()
		tagged[i] = root.CloneDeep(revs[i])
		tagged[i].Renumber()
	}
	return newScenario(revs, tagged)
}

// NewNWayOver builds an n-way scenario over roots that already carry their
// revision tags.
func NewNWayOver(roots []*artifact.Artifact) *Scenario {
	revs := make([]artifact.Revision, len(roots))
	for i, root := range roots {
		revs[i] = root.Revision()
	}
	return newScenario(revs, roots)
}

func newScenario(revs []artifact.Revision, roots []*artifact.Artifact) *Scenario {
	if len(revs) != len(roots) {
		panic("revision/root arity mismatch")
	}
	s := &Scenario{
		revisions: revs,
		roots:     make(map[artifact.Revision]*artifact.Artifact, len(roots)),
	}
	for i, rev := range revs {
		if _, dup := s.roots[rev]; dup {
			panic(fmt.Sprintf("duplicate revision %q in scenario", rev))
		}
		s.roots[rev] = roots[i]
	}
	return s
}

// Revisions returns the revision names in scenario order.
func (s *Scenario) Revisions() []artifact.Revision { return s.revisions }

// Get returns the root bound to the given revision, or nil.
func (s *Scenario) Get(rev artifact.Revision) *artifact.Artifact { return s.roots[rev] }

// Left returns the LEFT root.
func (s *Scenario) Left() *artifact.Artifact { return s.roots[artifact.Left] }

// Base returns the BASE root.
func (s *Scenario) Base() *artifact.Artifact { return s.roots[artifact.Base] }

// Right returns the RIGHT root.
func (s *Scenario) Right() *artifact.Artifact { return s.roots[artifact.Right] }

// Arity returns the number of revisions in the scenario.
func (s *Scenario) Arity() int { return len(s.revisions) }

// IsThreeWay reports whether the scenario has left, base and right roots.
func (s *Scenario) IsThreeWay() bool {
	return s.Left() != nil && s.Base() != nil && s.Right() != nil
}

// Key identifies the scenario in the crash registry.
func (s *Scenario) Key() string {
	parts := make([]string, len(s.revisions))
	for i, rev := range s.revisions {
		root := s.roots[rev]
		if root == nil {
			parts[i] = fmt.Sprintf("%s:-", rev)
		} else {
			parts[i] = fmt.Sprintf("%s:%d", rev, root.ID())
		}
	}
	return strings.Join(parts, "|")
}

func (s *Scenario) String() string { return s.Key() }
