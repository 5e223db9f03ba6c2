package strategy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/merge"
)

func newOutput(t *testing.T, path string) *artifact.FileArtifact {
	t.Helper()
	return artifact.NewOutputFileArtifact(path, false)
}

func newOutputDir(path string) *artifact.FileArtifact {
	return artifact.NewOutputFileArtifact(path, true)
}

func TestParse_CanonicalNames(t *testing.T) {
	for _, name := range []string{LineBased, Unstructured, Structured, Combined, AutoTuning, NWay, Variants} {
		s, err := Parse(name)
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}
}

func TestParse_NormalizesCaseAndWhitespace(t *testing.T) {
	cases := map[string]string{
		"  Structured ": Structured,
		"LINEBASED":     LineBased,
		"\tCombined\n":  Combined,
		" VARIANTS ":    NWay,
	}
	for input, want := range cases {
		s, err := Parse(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, s.Name())
	}
}

func TestParse_AliasesShareTheStrategy(t *testing.T) {
	line, err := Parse(Unstructured)
	require.NoError(t, err)
	assert.Equal(t, LineBased, line.Name())

	auto, err := Parse(AutoTuning)
	require.NoError(t, err)
	assert.Equal(t, Combined, auto.Name())
}

func TestParse_UnknownName(t *testing.T) {
	_, err := Parse("definitely-not-a-strategy")
	assert.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestList_ContainsAllNames(t *testing.T) {
	names := List()
	assert.Len(t, names, 7)
	assert.Contains(t, names, LineBased)
	assert.Contains(t, names, NWay)
}

func writeFiles(t *testing.T, contents map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range contents {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func inputSet(t *testing.T, paths ...string) *FileSet {
	t.Helper()
	fs, err := NewInputSet(paths, false)
	require.NoError(t, err)
	return fs
}

func TestLineBased_CleanMerge(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"left":  "a\nB\nc\n",
		"base":  "a\nb\nc\n",
		"right": "a\nb\nC\n",
	})
	files := inputSet(t, filepath.Join(dir, "left"), filepath.Join(dir, "base"), filepath.Join(dir, "right"))

	st, err := Parse(LineBased)
	require.NoError(t, err)

	mc := merge.NewMergeContext()
	conflicts, err := st.Merge(context.Background(), mc, files)
	require.NoError(t, err)

	assert.Zero(t, conflicts)
	assert.Equal(t, "a\nB\nC\n", mc.Output())
}

func TestLineBased_ConflictWritesMarkers(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"left":  "a\nX\nc\n",
		"base":  "a\nb\nc\n",
		"right": "a\nY\nc\n",
	})
	out := filepath.Join(dir, "merged")
	files := inputSet(t, filepath.Join(dir, "left"), filepath.Join(dir, "base"), filepath.Join(dir, "right"))
	files.Output = newOutput(t, out)

	st, _ := Parse(LineBased)
	mc := merge.NewMergeContext()
	conflicts, err := st.Merge(context.Background(), mc, files)
	require.NoError(t, err)

	assert.Equal(t, 1, conflicts)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), merge.ConflictStart+" left")
	assert.Contains(t, string(data), merge.ConflictEnd+" right")
}

func TestLineBased_PretendSkipsWriting(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"left":  "a\n",
		"base":  "a\n",
		"right": "a\n",
	})
	out := filepath.Join(dir, "merged")
	files := inputSet(t, filepath.Join(dir, "left"), filepath.Join(dir, "base"), filepath.Join(dir, "right"))
	files.Output = newOutput(t, out)

	mc := merge.NewMergeContext()
	mc.Pretend = true

	st, _ := Parse(LineBased)
	_, err := st.Merge(context.Background(), mc, files)
	require.NoError(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "pretend must not write the output file")
	assert.Equal(t, "a\n", mc.Output())
}

func TestCombined_FallsBackOnParseFailure(t *testing.T) {
	// .txt files have no grammar, so the structured half fails with a
	// parse error and the line-based fallback takes over
	dir := writeFiles(t, map[string]string{
		"left.txt":  "a\nB\nc\n",
		"base.txt":  "a\nb\nc\n",
		"right.txt": "a\nb\nC\n",
	})
	files := inputSet(t, filepath.Join(dir, "left.txt"), filepath.Join(dir, "base.txt"), filepath.Join(dir, "right.txt"))

	st, err := Parse(Combined)
	require.NoError(t, err)

	mc := merge.NewMergeContext()
	conflicts, err := st.Merge(context.Background(), mc, files)
	require.NoError(t, err)

	assert.Zero(t, conflicts)
	assert.Equal(t, "a\nB\nC\n", mc.Output())
	assert.Contains(t, mc.Diagnostics(), "falling back")
}

func TestRun_KeepGoingRecordsCrash(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"left.txt":  "a\n",
		"base.txt":  "a\n",
		"right.txt": "a\n",
	})
	files := inputSet(t, filepath.Join(dir, "left.txt"), filepath.Join(dir, "base.txt"), filepath.Join(dir, "right.txt"))

	st, err := Parse(Structured)
	require.NoError(t, err)

	mc := merge.NewMergeContext()
	mc.InputFiles = files.Inputs
	mc.KeepGoing = true

	conflicts, err := Run(context.Background(), mc, st)
	require.NoError(t, err, "keepGoing swallows per-scenario failures")
	assert.Zero(t, conflicts)
	assert.Len(t, mc.Crashes(), 1)
}

func TestRun_ErrorWithoutKeepGoingSurfaces(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"left.txt":  "a\n",
		"base.txt":  "a\n",
		"right.txt": "a\n",
	})
	files := inputSet(t, filepath.Join(dir, "left.txt"), filepath.Join(dir, "base.txt"), filepath.Join(dir, "right.txt"))

	st, _ := Parse(Structured)
	mc := merge.NewMergeContext()
	mc.InputFiles = files.Inputs

	_, err := Run(context.Background(), mc, st)
	assert.Error(t, err)
}

func TestRun_DirectoriesPairedByName(t *testing.T) {
	leftDir := writeFiles(t, map[string]string{
		"common":    "a\nB\nc\n",
		"left_only": "added\n",
	})
	baseDir := writeFiles(t, map[string]string{
		"common": "a\nb\nc\n",
		"gone":   "obsolete\n",
	})
	rightDir := writeFiles(t, map[string]string{
		"common": "a\nb\nC\n",
		"gone":   "obsolete\n",
	})
	outDir := t.TempDir()

	files := inputSet(t, leftDir, baseDir, rightDir)

	st, _ := Parse(LineBased)
	mc := merge.NewMergeContext()
	mc.InputFiles = files.Inputs
	mc.Recursive = true
	mc.OutputFile = newOutputDir(outDir)

	conflicts, err := Run(context.Background(), mc, st)
	require.NoError(t, err)
	assert.Zero(t, conflicts)

	merged, err := os.ReadFile(filepath.Join(outDir, "common"))
	require.NoError(t, err)
	assert.Equal(t, "a\nB\nC\n", string(merged))

	added, err := os.ReadFile(filepath.Join(outDir, "left_only"))
	require.NoError(t, err)
	assert.Equal(t, "added\n", string(added))

	_, statErr := os.Stat(filepath.Join(outDir, "gone"))
	assert.True(t, os.IsNotExist(statErr), "file deleted on one side and unchanged on the other is removed")
}

func TestRun_AddedAndDeletedSubdirectories(t *testing.T) {
	leftDir := writeFiles(t, map[string]string{
		"common":             "same\n",
		"newdir/added":       "fresh\n",
		"newdir/nested/deep": "deeper\n",
	})
	baseDir := writeFiles(t, map[string]string{
		"common":       "same\n",
		"olddir/stale": "old\n",
	})
	rightDir := writeFiles(t, map[string]string{
		"common":       "same\n",
		"olddir/stale": "old\n",
	})
	outDir := t.TempDir()

	files := inputSet(t, leftDir, baseDir, rightDir)

	st, _ := Parse(LineBased)
	mc := merge.NewMergeContext()
	mc.InputFiles = files.Inputs
	mc.Recursive = true
	mc.OutputFile = newOutputDir(outDir)

	conflicts, err := Run(context.Background(), mc, st)
	require.NoError(t, err)
	assert.Zero(t, conflicts)

	added, err := os.ReadFile(filepath.Join(outDir, "newdir", "added"))
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(added), "subtree added on one side is copied through")

	deep, err := os.ReadFile(filepath.Join(outDir, "newdir", "nested", "deep"))
	require.NoError(t, err)
	assert.Equal(t, "deeper\n", string(deep))

	_, statErr := os.Stat(filepath.Join(outDir, "olddir"))
	assert.True(t, os.IsNotExist(statErr), "subtree deleted on one side and unchanged on the other is removed")
}

func TestRun_DeletedSubdirectoryWithModifiedFileConflicts(t *testing.T) {
	leftDir := writeFiles(t, map[string]string{"keep": "k\n"})
	baseDir := writeFiles(t, map[string]string{"keep": "k\n", "sub/f": "old\n"})
	rightDir := writeFiles(t, map[string]string{"keep": "k\n", "sub/f": "new\n"})
	outDir := t.TempDir()

	files := inputSet(t, leftDir, baseDir, rightDir)

	st, _ := Parse(LineBased)
	mc := merge.NewMergeContext()
	mc.InputFiles = files.Inputs
	mc.Recursive = true
	mc.OutputFile = newOutputDir(outDir)

	conflicts, err := Run(context.Background(), mc, st)
	require.NoError(t, err)
	assert.Equal(t, 1, conflicts)

	data, err := os.ReadFile(filepath.Join(outDir, "sub", "f"))
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data), "the modified file inside a deleted subtree survives")
}

func TestRun_DirectoryDeleteVersusModify(t *testing.T) {
	leftDir := writeFiles(t, map[string]string{})
	baseDir := writeFiles(t, map[string]string{"f": "old\n"})
	rightDir := writeFiles(t, map[string]string{"f": "new\n"})
	outDir := t.TempDir()

	files := inputSet(t, leftDir, baseDir, rightDir)

	st, _ := Parse(LineBased)
	mc := merge.NewMergeContext()
	mc.InputFiles = files.Inputs
	mc.Recursive = true
	mc.OutputFile = newOutputDir(outDir)

	conflicts, err := Run(context.Background(), mc, st)
	require.NoError(t, err)
	assert.Equal(t, 1, conflicts)

	data, err := os.ReadFile(filepath.Join(outDir, "f"))
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data), "the modified side survives a delete-vs-modify")
}

func TestRun_RequiresRecursiveForDirectories(t *testing.T) {
	files := inputSet(t, t.TempDir(), t.TempDir())
	mc := merge.NewMergeContext()
	mc.InputFiles = files.Inputs

	st, _ := Parse(LineBased)
	_, err := Run(context.Background(), mc, st)
	assert.ErrorContains(t, err, "recursive")
}
