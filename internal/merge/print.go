package merge

import (
	"strings"

	"github.com/t03i/jdime/internal/artifact"
)

// Choice-node serialization for textual output: an inline construct
// labeled by revision name enclosing each variant's content.
const (
	choiceStart = "// #if "
	choiceEnd   = "// #endif"
)

// Render serializes a merged tree back to text. Conflict artifacts print
// as marker-bracketed blocks carrying the given revision names; choice
// artifacts print each variant inside labeled guards. The output is
// normalized: tokens of a statement joined by spaces, higher-level
// constructs separated by newlines.
func Render(a *artifact.Artifact, leftLabel, rightLabel string) string {
	var sb strings.Builder
	render(&sb, a, leftLabel, rightLabel)
	return sb.String()
}

func render(sb *strings.Builder, a *artifact.Artifact, leftLabel, rightLabel string) {
	switch {
	case a.IsConflict():
		sb.WriteString(ConflictStart + " " + leftLabel + "\n")
		if l := a.ConflictLeft(); l != nil {
			render(sb, l, leftLabel, rightLabel)
			sb.WriteString("\n")
		}
		sb.WriteString(ConflictSep + "\n")
		if r := a.ConflictRight(); r != nil {
			render(sb, r, leftLabel, rightLabel)
			sb.WriteString("\n")
		}
		sb.WriteString(ConflictEnd + " " + rightLabel)

	case a.IsChoice():
		for i, label := range a.Variants() {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(choiceStart + label + "\n")
			render(sb, a.Variant(label), leftLabel, rightLabel)
			sb.WriteString("\n" + choiceEnd)
		}

	case a.IsLeaf():
		sb.WriteString(a.Payload)

	default:
		sep := "\n"
		if a.Kind == artifact.KindStatement || a.Kind == artifact.KindExpression {
			sep = " "
		}
		for i, c := range a.Children() {
			if i > 0 {
				sb.WriteString(sep)
			}
			render(sb, c, leftLabel, rightLabel)
		}
	}
}
