package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/matcher"
	"github.com/t03i/jdime/internal/matcher/costmodel"
)

// Result is the outcome of a tree merge.
type Result struct {
	Root      *artifact.Artifact
	Conflicts int
}

// ThreeWay merges the scenario's left and right trees against its base.
// Matchings BASE-LEFT and BASE-RIGHT are computed first, then the merged
// tree is synthesized in revision MERGE.
func ThreeWay(ctx context.Context, mc *MergeContext, s *Scenario) (*Result, error) {
	left, base, right := s.Left(), s.Base(), s.Right()
	if !s.IsThreeWay() {
		return nil, ErrNoCommonAncestor
	}

	for _, root := range []*artifact.Artifact{left, base, right} {
		root.ClearMatches()
		root.Renumber()
	}

	if err := match(ctx, mc, base, left, matcher.ColorGreen); err != nil {
		return nil, err
	}
	if err := match(ctx, mc, base, right, matcher.ColorBlue); err != nil {
		return nil, err
	}

	m := &merger{
		mc:         mc,
		baseRev:    base.Revision(),
		leftRev:    left.Revision(),
		rightRev:   right.Revision(),
		leftLabel:  string(left.Revision()),
		rightLabel: string(right.Revision()),
	}
	root := m.mergeNodes(left, base, right)
	root.Renumber()

	return &Result{Root: root, Conflicts: m.conflicts}, nil
}

// TwoWay merges the left tree with the right tree directly, with no common
// ancestor; everything unmatched counts as added. Used by the n-way driver
// and by structured merges of two inputs.
func TwoWay(ctx context.Context, mc *MergeContext, left, right *artifact.Artifact, leftLabel, rightLabel string) (*Result, error) {
	left.ClearMatches()
	right.ClearMatches()
	left.Renumber()
	right.Renumber()

	if err := match(ctx, mc, left, right, matcher.ColorYellow); err != nil {
		return nil, err
	}

	m := &merger{
		mc:         mc,
		leftRev:    left.Revision(),
		rightRev:   right.Revision(),
		leftLabel:  leftLabel,
		rightLabel: rightLabel,
	}
	root := m.mergeNodes(left, nil, right)
	root.Renumber()

	return &Result{Root: root, Conflicts: m.conflicts}, nil
}

// match computes and applies the matching between two trees, via the
// cost-model matcher when enabled.
func match(ctx context.Context, mc *MergeContext, a, b *artifact.Artifact, color matcher.Color) error {
	var ms *matcher.Matchings
	var err error
	if mc.CMMatcherMode != CMOff {
		ms, err = costmodel.Match(ctx, a, b, mc.CostModelOptions())
	} else {
		ms, err = matcher.New(mc.MatcherOptions()).Match(ctx, a, b)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		return err
	}
	ms.Apply(color)
	return nil
}

// merger synthesizes the merged tree from the matchings recorded on the
// input trees.
type merger struct {
	mc *MergeContext

	baseRev  artifact.Revision // empty for two-way merges
	leftRev  artifact.Revision
	rightRev artifact.Revision

	leftLabel  string
	rightLabel string

	conflicts int
}

// mergeNodes merges a corresponding triple. b is nil for added pairs and
// for two-way merges.
func (m *merger) mergeNodes(l, b, r *artifact.Artifact) *artifact.Artifact {
	if l.Kind != r.Kind {
		return m.conflictOrChoice(l, r)
	}

	payload, ok := m.mergePayload(l, b, r)
	if !ok {
		// Both sides changed the payload incompatibly. For textual
		// leaves the line merger gets a chance first.
		if l.IsLeaf() && r.IsLeaf() && (b == nil || b.IsLeaf()) && textual(l, b, r) {
			return m.mergeLeafText(l, b, r)
		}
		return m.conflictOrChoice(l, r)
	}

	out := artifact.New(artifact.Merge, l.Kind, payload)
	out.Merged = true
	m.mergeChildren(l, b, r, out)
	return out
}

// mergePayload resolves the payload of a merged node: an unchanged side
// yields to the changed one.
func (m *merger) mergePayload(l, b, r *artifact.Artifact) (string, bool) {
	switch {
	case l.Payload == r.Payload:
		return l.Payload, true
	case b != nil && l.Payload == b.Payload:
		return r.Payload, true
	case b != nil && r.Payload == b.Payload:
		return l.Payload, true
	default:
		return "", false
	}
}

func textual(l, b, r *artifact.Artifact) bool {
	if l.Kind == artifact.KindLine || l.Kind == artifact.KindFile {
		return true
	}
	if strings.Contains(l.Payload, "\n") || strings.Contains(r.Payload, "\n") {
		return true
	}
	return b != nil && strings.Contains(b.Payload, "\n")
}

// mergeLeafText delegates a textual leaf to the line merger. A clean line
// merge yields a single merged leaf; otherwise the leaf becomes a conflict
// (or choice) carrying the two variants.
func (m *merger) mergeLeafText(l, b, r *artifact.Artifact) *artifact.Artifact {
	var base []byte
	if b != nil {
		base = []byte(b.Payload)
	}
	res := MergeLines(base, []byte(l.Payload), []byte(r.Payload), m.leftLabel, m.rightLabel)
	if res.Conflicts == 0 {
		out := artifact.New(artifact.Merge, l.Kind, res.Text)
		out.Merged = true
		return out
	}
	out := m.conflictOrChoice(l, r)
	if out.IsConflict() {
		// the conflict artifact subsumes the line conflicts
		m.conflicts += res.Conflicts - 1
	}
	return out
}

// conflictOrChoice wraps the two variants in a conflict artifact, or in a
// choice artifact when conditional merge applies to this region. Either
// side may be nil (delete-vs-modify). When the left variant already is a
// choice artifact the right variant joins it as another labeled variant.
func (m *merger) conflictOrChoice(l, r *artifact.Artifact) *artifact.Artifact {
	kind := artifact.KindStatement
	if l != nil {
		kind = l.Kind
	} else if r != nil {
		kind = r.Kind
	}

	conditionalOn := l
	if conditionalOn == nil {
		conditionalOn = r
	}

	if m.mc.ConditionalMergeFor(conditionalOn) {
		if l != nil && l.IsChoice() {
			choice := l.CloneDeep(artifact.Merge)
			if r != nil {
				choice.AddVariant(m.rightLabel, r.CloneDeep(artifact.Merge))
			}
			return choice
		}
		choice := artifact.NewChoice(kind)
		if l != nil {
			choice.AddVariant(m.leftLabel, l.CloneDeep(artifact.Merge))
		}
		if r != nil {
			choice.AddVariant(m.rightLabel, r.CloneDeep(artifact.Merge))
		}
		return choice
	}

	var leftVar, rightVar *artifact.Artifact
	if l != nil {
		leftVar = l.CloneDeep(artifact.Merge)
	}
	if r != nil {
		rightVar = r.CloneDeep(artifact.Merge)
	}
	m.conflicts++
	return artifact.NewConflict(kind, leftVar, rightVar)
}

// baseMatch returns the base correspondent of a child, or nil for two-way
// merges.
func (m *merger) baseMatch(c *artifact.Artifact) *artifact.Artifact {
	if m.baseRev == "" {
		return nil
	}
	return c.MatchIn(m.baseRev)
}

// pendingEntry is a right-side child waiting to be spliced: an addition,
// or a delete-vs-modify conflict anchored at the same position.
type pendingEntry struct {
	node     *artifact.Artifact
	conflict bool
}

// mergeChildren merges the child sequences. Matched children are emitted
// in the order imposed by the left sequence; unmatched right children are
// inserted after their nearest preceding matched neighbor's merged output,
// with left additions preceding right additions at the same anchor.
func (m *merger) mergeChildren(l, b, r *artifact.Artifact, out *artifact.Artifact) {
	// Group the right-side leftovers by their anchor: the last preceding
	// right child that participates in the merge through a match.
	pendingAfter := make(map[*artifact.Artifact][]pendingEntry)
	var anchor *artifact.Artifact
	for _, rc := range r.Children() {
		bc := m.baseMatch(rc)
		switch {
		case bc == nil && rc.MatchIn(m.leftRev) != nil:
			anchor = rc
		case bc == nil:
			pendingAfter[anchor] = append(pendingAfter[anchor], pendingEntry{node: rc})
		case bc.MatchIn(m.leftRev) != nil:
			anchor = rc
		case rc.EqualsStructurally(bc):
			// deleted on left, unchanged on right: gone
		default:
			// deleted on left, changed on right
			pendingAfter[anchor] = append(pendingAfter[anchor], pendingEntry{node: rc, conflict: true})
		}
	}

	flushed := make(map[*artifact.Artifact]bool)
	flush := func(anchor *artifact.Artifact, pending []pendingEntry) {
		flushed[anchor] = true
		for _, p := range pending {
			if p.consumed() {
				continue
			}
			if p.conflict {
				out.AddChild(m.conflictOrChoice(nil, p.node))
			} else {
				out.AddChild(m.emitAddition(p.node))
			}
		}
	}

	pending := pendingAfter[nil]
	pendingAnchor := (*artifact.Artifact)(nil)

	for _, lc := range l.Children() {
		bc := m.baseMatch(lc)
		var rc *artifact.Artifact
		if bc != nil {
			rc = bc.MatchIn(m.rightRev)
		} else {
			rc = lc.MatchIn(m.rightRev)
		}

		if bc == nil && rc == nil {
			// Added on left. A same-kind right addition at this anchor is
			// its counterpart: one copy when equal, a conflict otherwise.
			if i := sameKindPending(pending, lc.Kind); i >= 0 {
				counterpart := pending[i].node
				pending[i].node = nil
				if lc.EqualsStructurally(counterpart) {
					out.AddChild(m.emitAddition(lc))
				} else {
					out.AddChild(m.conflictOrChoice(lc, counterpart))
				}
			} else {
				out.AddChild(m.emitAddition(lc))
			}
			continue
		}

		if rc == nil {
			// Deleted on right.
			if lc.EqualsStructurally(bc) {
				continue
			}
			out.AddChild(m.conflictOrChoice(lc, nil))
			continue
		}

		if bc != nil && lc.EqualsStructurally(bc) && rc.EqualsStructurally(bc) {
			// Unchanged on both sides.
			flush(pendingAnchor, pending)
			pending, pendingAnchor = pendingAfter[rc], rc
			clone := bc.CloneDeep(artifact.Merge)
			out.AddChild(clone)
			continue
		}

		flush(pendingAnchor, pending)
		pending, pendingAnchor = pendingAfter[rc], rc
		out.AddChild(m.mergeNodes(lc, bc, rc))
	}

	flush(pendingAnchor, pending)

	// Right groups whose anchor never surfaced on the left (reordered or
	// vanished anchors) still have to be spliced, in right-side order.
	for _, rc := range r.Children() {
		if group, ok := pendingAfter[rc]; ok && !flushed[rc] {
			flush(rc, group)
		}
	}
}

func (p pendingEntry) consumed() bool { return p.node == nil }

func sameKindPending(pending []pendingEntry, kind artifact.Kind) int {
	for i, p := range pending {
		if !p.consumed() && !p.conflict && p.node.Kind == kind {
			return i
		}
	}
	return -1
}

// emitAddition clones an added subtree into the merge revision.
func (m *merger) emitAddition(a *artifact.Artifact) *artifact.Artifact {
	clone := a.CloneDeep(artifact.Merge)
	clone.Added = true
	return clone
}
