package artifact

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDumpTree_AnnotatesNodes(t *testing.T) {
	root := tree(Left, KindClass, "C", tree(Left, KindMethod, "m", New(Left, KindStatement, "s")))
	root.Renumber()
	root.SetMatch(New(Base, KindClass, "C"))

	var buf bytes.Buffer
	DumpTree(&buf, root)
	out := buf.String()

	assert.Contains(t, out, `(0) class "C"`)
	assert.Contains(t, out, `  (1) method "m"`)
	assert.Contains(t, out, `    (2) statement "s"`)
	assert.Contains(t, out, "=base:0", "matched nodes carry their partner's revision and identity")
}

func TestDumpTree_ConflictAndChoiceVariants(t *testing.T) {
	conflict := NewConflict(KindMethod, New(Merge, KindMethod, "l"), New(Merge, KindMethod, "r"))
	conflict.Renumber()

	var buf bytes.Buffer
	DumpTree(&buf, conflict)
	assert.Contains(t, buf.String(), "<conflict>")
	assert.Contains(t, buf.String(), "[left]")
	assert.Contains(t, buf.String(), "[right]")

	choice := NewChoice(KindStatement)
	choice.AddVariant("v1", New(Merge, KindStatement, "a"))
	choice.AddVariant("v2", New(Merge, KindStatement, "b"))
	choice.Renumber()

	buf.Reset()
	DumpTree(&buf, choice)
	assert.Contains(t, buf.String(), "<choice v1|v2>")
	assert.Contains(t, buf.String(), "[v1]")
	assert.Contains(t, buf.String(), "[v2]")
}
