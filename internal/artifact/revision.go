package artifact

import "fmt"

// Revision names the version of an artifact tree a node belongs to.
type Revision string

// The revisions of an ordinary two- or three-way merge.
const (
	Left  Revision = "left"
	Base  Revision = "base"
	Right Revision = "right"
	Merge Revision = "merge"
)

// RevisionSupplier hands out successive revision names ("0", "1", ...) for
// n-way merges where no left/base/right assignment applies.
type RevisionSupplier struct {
	next int
}

// Next returns the next successive revision name.
func (s *RevisionSupplier) Next() Revision {
	rev := Revision(fmt.Sprintf("%d", s.next))
	s.next++
	return rev
}
