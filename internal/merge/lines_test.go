package merge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLines_DistinctChanges(t *testing.T) {
	res := MergeLines(
		[]byte("a\nb\nc\n"),
		[]byte("a\nB\nc\n"),
		[]byte("a\nb\nC\n"),
		"left", "right",
	)

	assert.Equal(t, "a\nB\nC\n", res.Text)
	assert.Equal(t, 0, res.Conflicts)
}

func TestMergeLines_Conflict(t *testing.T) {
	res := MergeLines(
		[]byte("a\nb\nc\n"),
		[]byte("a\nX\nc\n"),
		[]byte("a\nY\nc\n"),
		"left", "right",
	)

	expected := "a\n" +
		"<<<<<<< left\n" +
		"X\n" +
		"=======\n" +
		"Y\n" +
		">>>>>>> right\n" +
		"c\n"
	assert.Equal(t, expected, res.Text)
	assert.Equal(t, 1, res.Conflicts)
}

func TestMergeLines_IdenticalInputs(t *testing.T) {
	content := []byte("a\nb\nc\n")
	res := MergeLines(content, content, content, "left", "right")

	assert.Equal(t, string(content), res.Text)
	assert.Zero(t, res.Conflicts)
}

func TestMergeLines_OneSideUnchanged(t *testing.T) {
	base := []byte("a\nb\nc\n")
	changed := []byte("a\nnew\nb\nc\n")

	res := MergeLines(base, changed, base, "left", "right")
	assert.Equal(t, string(changed), res.Text)
	assert.Zero(t, res.Conflicts)

	res = MergeLines(base, base, changed, "left", "right")
	assert.Equal(t, string(changed), res.Text)
	assert.Zero(t, res.Conflicts)
}

func TestMergeLines_BothSidesSameChange(t *testing.T) {
	base := []byte("a\nb\nc\n")
	changed := []byte("a\nZ\nc\n")

	res := MergeLines(base, changed, changed, "left", "right")
	assert.Equal(t, string(changed), res.Text)
	assert.Zero(t, res.Conflicts)
}

func TestMergeLines_BothDelete(t *testing.T) {
	res := MergeLines(
		[]byte("a\nb\nc\n"),
		[]byte("a\nc\n"),
		[]byte("a\nc\n"),
		"left", "right",
	)
	assert.Equal(t, "a\nc\n", res.Text)
	assert.Zero(t, res.Conflicts)
}

func TestMergeLines_DeleteVersusModify(t *testing.T) {
	res := MergeLines(
		[]byte("a\nb\nc\n"),
		[]byte("a\nc\n"),
		[]byte("a\nB\nc\n"),
		"left", "right",
	)

	assert.Equal(t, 1, res.Conflicts)
	assert.Contains(t, res.Text, "<<<<<<< left\n=======\nB\n>>>>>>> right\n")
}

func TestMergeLines_InsertAtSamePointConflicts(t *testing.T) {
	res := MergeLines(
		[]byte("a\nb\n"),
		[]byte("a\nx\nb\n"),
		[]byte("a\ny\nb\n"),
		"left", "right",
	)

	assert.Equal(t, 1, res.Conflicts)
	assert.Contains(t, res.Text, "x")
	assert.Contains(t, res.Text, "y")
}

func TestMergeLines_EqualInsertsCollapse(t *testing.T) {
	res := MergeLines(
		[]byte("a\nb\n"),
		[]byte("a\nx\nb\n"),
		[]byte("a\nx\nb\n"),
		"left", "right",
	)

	assert.Equal(t, "a\nx\nb\n", res.Text)
	assert.Zero(t, res.Conflicts)
}

func TestMergeLines_EmptyBase(t *testing.T) {
	res := MergeLines(nil, []byte("x\n"), []byte("y\n"), "left", "right")

	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, "<<<<<<< left\nx\n=======\ny\n>>>>>>> right\n", res.Text)
}

func TestMergeLines_MarkersCarryRevisionNames(t *testing.T) {
	res := MergeLines([]byte("b\n"), []byte("x\n"), []byte("y\n"), "mine", "theirs")

	assert.Contains(t, res.Text, fmt.Sprintf("%s mine\n", ConflictStart))
	assert.Contains(t, res.Text, fmt.Sprintf("%s theirs\n", ConflictEnd))
}
