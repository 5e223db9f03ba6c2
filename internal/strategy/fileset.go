package strategy

import (
	"fmt"
	"strings"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/merge"
)

// Arity returns the number of input revisions.
func (fs *FileSet) Arity() int { return len(fs.Inputs) }

// Left returns the first input.
func (fs *FileSet) Left() *artifact.FileArtifact { return fs.Inputs[0] }

// Base returns the middle input of a three-way set, nil otherwise.
func (fs *FileSet) Base() *artifact.FileArtifact {
	if len(fs.Inputs) == 3 {
		return fs.Inputs[1]
	}
	return nil
}

// Right returns the last input.
func (fs *FileSet) Right() *artifact.FileArtifact { return fs.Inputs[len(fs.Inputs)-1] }

// Key identifies the file scenario in diagnostics and the crash registry.
func (fs *FileSet) Key() string {
	parts := make([]string, len(fs.Inputs))
	for i, f := range fs.Inputs {
		parts[i] = f.String()
	}
	return strings.Join(parts, "|")
}

// writeResult delivers merged text: to the output file artifact when one
// is set and the run is not a dry run, to the context's buffered output
// sink otherwise.
func writeResult(mc *merge.MergeContext, files *FileSet, text string) error {
	if files.Output != nil && !mc.Pretend {
		return files.Output.Write([]byte(text))
	}
	if !mc.Quiet {
		mc.Append(text)
	}
	return nil
}

// label returns the revision name used in conflict markers and choice
// conditions for a file artifact.
func label(f *artifact.FileArtifact) string {
	return string(f.Revision())
}

// NewInputSet builds a FileSet over paths, assigning left/right,
// left/base/right, or successive revisions depending on arity and mode.
func NewInputSet(paths []string, conditional bool) (*FileSet, error) {
	fs := &FileSet{}

	var revs []artifact.Revision
	switch {
	case conditional || len(paths) > 3:
		var sup artifact.RevisionSupplier
		for range paths {
			revs = append(revs, sup.Next())
		}
	case len(paths) == 2:
		revs = []artifact.Revision{artifact.Left, artifact.Right}
	case len(paths) == 3:
		revs = []artifact.Revision{artifact.Left, artifact.Base, artifact.Right}
	default:
		return nil, fmt.Errorf("expected at least two input files, got %d", len(paths))
	}

	for i, path := range paths {
		f, err := artifact.NewFileArtifact(revs[i], path)
		if err != nil {
			return nil, err
		}
		fs.Inputs = append(fs.Inputs, f)
	}
	return fs, nil
}
