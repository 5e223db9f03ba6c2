// Package strategy selects and composes the merge algorithms for a
// scenario: line-based, structured, combined (structured with line-based
// fallback) and n-way. Strategies are values selected by name.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/merge"
)

// Canonical strategy names. Lookup is case-insensitive and
// whitespace-trimmed; unstructured, autotuning and variants are aliases.
const (
	LineBased    = "linebased"
	Unstructured = "unstructured"
	Structured   = "structured"
	Combined     = "combined"
	AutoTuning   = "autotuning"
	NWay         = "nway"
	Variants     = "variants"
)

// ErrStrategyNotFound reports an unknown strategy name. It is fatal before
// any merging begins.
var ErrStrategyNotFound = errors.New("strategy not found")

// FileSet is one merge scenario at the file level: the input file
// artifacts in scenario order (left/right, left/base/right, or n
// successive revisions) and an optional output target.
type FileSet struct {
	Inputs []*artifact.FileArtifact
	Output *artifact.FileArtifact
}

// Strategy merges one file-level scenario and returns the number of
// conflicts left in the output.
type Strategy interface {
	Name() string
	Merge(ctx context.Context, mc *merge.MergeContext, files *FileSet) (int, error)
}

var strategies = func() map[string]Strategy {
	line := &lineBasedStrategy{}
	structured := &structuredStrategy{}
	combined := &combinedStrategy{structured: structured, fallback: line}
	nway := &nwayStrategy{}

	return map[string]Strategy{
		LineBased:    line,
		Unstructured: line,
		Structured:   structured,
		Combined:     combined,
		AutoTuning:   combined,
		NWay:         nway,
		Variants:     nway,
	}
}()

// Parse resolves a strategy name, ignoring case and surrounding
// whitespace.
func Parse(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	s, ok := strategies[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStrategyNotFound, name)
	}
	return s, nil
}

// List returns the known strategy names, sorted.
func List() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
