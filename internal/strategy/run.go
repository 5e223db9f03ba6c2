package strategy

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/merge"
)

// Run executes the strategy over the context's input files and returns the
// total number of conflicts. Directory inputs are recursed when the
// context asks for it, pairing entries by name; per-file failures are
// recorded in the crash registry under keepGoing, and abort the run under
// exitOnError.
func Run(ctx context.Context, mc *merge.MergeContext, st Strategy) (int, error) {
	inputs := mc.InputFiles
	if len(inputs) < 2 {
		return 0, fmt.Errorf("expected at least two input files, got %d", len(inputs))
	}

	dirs := 0
	for _, f := range inputs {
		if f.IsDirectory() {
			dirs++
		}
	}
	switch {
	case dirs == 0:
		files := &FileSet{Inputs: inputs, Output: mc.OutputFile}
		return runOne(ctx, mc, st, files)
	case dirs == len(inputs):
		if !mc.Recursive {
			return 0, fmt.Errorf("directory inputs require recursive merging")
		}
		return runDirectories(ctx, mc, st, inputs, mc.OutputFile)
	default:
		return 0, fmt.Errorf("cannot mix file and directory inputs")
	}
}

// runOne merges a single file scenario, applying the error policy.
func runOne(ctx context.Context, mc *merge.MergeContext, st Strategy, files *FileSet) (int, error) {
	conflicts, err := st.Merge(ctx, mc, files)
	if err == nil {
		return conflicts, nil
	}
	if ctx.Err() != nil {
		mc.AddCrash(files.Key(), fmt.Errorf("%w: %w", merge.ErrCancelled, ctx.Err()))
		return 0, err
	}
	if mc.ExitOnError || !mc.KeepGoing {
		return 0, err
	}
	mc.AddCrash(files.Key(), err)
	mc.AppendErrorLine(fmt.Sprintf("skipping %s: %v", files.Key(), err))
	return 0, nil
}

// entry is one name paired across the input directories; missing revisions
// hold nil.
type entry struct {
	name    string
	files   []*artifact.FileArtifact
	present int
}

// runDirectories pairs the directories' children by name and merges each
// group. Independent file scenarios run concurrently when each writes its
// own output file; when merged text goes to the shared output sink they run
// one at a time in name order. Results are folded in name order so output
// stays deterministic.
func runDirectories(ctx context.Context, mc *merge.MergeContext, st Strategy, dirs []*artifact.FileArtifact, out *artifact.FileArtifact) (int, error) {
	entries, err := pairChildren(dirs)
	if err != nil {
		return 0, err
	}

	conflicts := make([]int, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	if out == nil || mc.Pretend {
		g.SetLimit(1)
	} else {
		g.SetLimit(runtime.NumCPU())
	}

	for i, e := range entries {
		g.Go(func() error {
			n, err := mergeEntry(gctx, mc, st, e, out)
			conflicts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range conflicts {
		total += n
	}
	return total, nil
}

// pairChildren pairs the directories' entries by name. A nil directory
// stands for a revision the subtree is absent from; its slots stay nil.
func pairChildren(dirs []*artifact.FileArtifact) ([]*entry, error) {
	byName := make(map[string]*entry)
	for i, dir := range dirs {
		if dir == nil {
			continue
		}
		children, err := dir.ListChildren()
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			e, ok := byName[c.Name()]
			if !ok {
				e = &entry{name: c.Name(), files: make([]*artifact.FileArtifact, len(dirs))}
				byName[c.Name()] = e
			}
			e.files[i] = c
			e.present++
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]*entry, len(names))
	for i, name := range names {
		entries[i] = byName[name]
	}
	return entries, nil
}

// mergeEntry handles one name across the revisions, mirroring the
// add/delete merge rules at the file system level.
func mergeEntry(ctx context.Context, mc *merge.MergeContext, st Strategy, e *entry, out *artifact.FileArtifact) (int, error) {
	var target *artifact.FileArtifact
	if out != nil {
		target = out.Child(e.name)
	}

	present := make([]*artifact.FileArtifact, 0, len(e.files))
	for _, f := range e.files {
		if f != nil {
			present = append(present, f)
		}
	}

	// Nested directories recurse; a revision the subtree is absent from
	// walks along as a missing directory, so added and deleted subtrees
	// mirror the add/delete rules file by file.
	if allDirectories(present) {
		return runDirectories(ctx, mc, st, e.files, target)
	}
	if anyDirectory(present) {
		return 0, fmt.Errorf("%s is a directory in some revisions and a file in others", e.name)
	}

	// Three-way presence rules.
	if len(e.files) == 3 {
		left, base, right := e.files[0], e.files[1], e.files[2]
		switch {
		case e.present == 3:
			return runOne(ctx, mc, st, &FileSet{Inputs: e.files, Output: target})
		case base == nil && left != nil && right != nil:
			// added on both sides: equal content collapses to one copy,
			// anything else is merged without an ancestor
			if same, err := sameContent(left, right); err != nil {
				return 0, err
			} else if same {
				return 0, copyThrough(mc, left, target)
			}
			return runOne(ctx, mc, st, &FileSet{
				Inputs: []*artifact.FileArtifact{left, right},
				Output: target,
			})
		case base == nil:
			// added on one side only
			return 0, copyThrough(mc, firstPresent(left, right), target)
		case left == nil && right == nil:
			// deleted on both sides
			return 0, nil
		default:
			// deleted on one side; a change on the other is a
			// delete-vs-modify conflict resolved toward the change
			side := firstPresent(left, right)
			if same, err := sameContent(base, side); err != nil {
				return 0, err
			} else if same {
				return 0, nil
			}
			mc.AppendErrorLine(fmt.Sprintf("conflict: %s deleted in one revision and modified in another", e.name))
			return 1, copyThrough(mc, side, target)
		}
	}

	// Two-way and n-way: merge whatever is present, copy singletons.
	if len(present) == 1 {
		return 0, copyThrough(mc, present[0], target)
	}
	return runOne(ctx, mc, st, &FileSet{Inputs: present, Output: target})
}

func anyDirectory(files []*artifact.FileArtifact) bool {
	for _, f := range files {
		if f.IsDirectory() {
			return true
		}
	}
	return false
}

func allDirectories(files []*artifact.FileArtifact) bool {
	for _, f := range files {
		if !f.IsDirectory() {
			return false
		}
	}
	return true
}

func firstPresent(files ...*artifact.FileArtifact) *artifact.FileArtifact {
	for _, f := range files {
		if f != nil {
			return f
		}
	}
	return nil
}

func sameContent(a, b *artifact.FileArtifact) (bool, error) {
	da, err := a.Read()
	if err != nil {
		return false, err
	}
	db, err := b.Read()
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

func copyThrough(mc *merge.MergeContext, src, target *artifact.FileArtifact) error {
	data, err := src.Read()
	if err != nil {
		return err
	}
	if target != nil && !mc.Pretend {
		return target.Write(data)
	}
	if !mc.Quiet {
		mc.Append(string(data))
	}
	return nil
}
