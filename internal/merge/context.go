// Package merge implements the three-way merge driver, the n-way variant
// merge and the line-based textual merge, together with the MergeContext
// that configures a run.
package merge

import (
	"bytes"
	"sync"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/matcher"
	"github.com/t03i/jdime/internal/matcher/costmodel"
	"github.com/t03i/jdime/internal/stats"
)

// Look-ahead bounds, re-exported for configuration surfaces.
const (
	LookAheadOff  = matcher.LookAheadOff
	LookAheadFull = matcher.LookAheadFull
)

// CMMode selects whether the cost-model matcher replaces the
// divide-and-conquer matchers.
type CMMode int

const (
	CMOff CMMode = iota
	CMOn
)

// MergeContext is the configuration record plus mutable per-run state of a
// merge invocation. It is owned by the top-level invocation and passed by
// reference into sub-merges; Clone produces an isolated view.
type MergeContext struct {
	ConditionalMerge          bool
	ConditionalOutsideMethods bool
	DiffOnly                  bool
	Consecutive               bool
	ForceOverwriting          bool
	KeepGoing                 bool
	ExitOnError               bool
	Quiet                     bool
	Pretend                   bool
	Recursive                 bool

	InputFiles []*artifact.FileArtifact
	OutputFile *artifact.FileArtifact

	CollectStatistics bool
	Statistics        *stats.Statistics

	// LookAhead is the global depth; LookAheads overrides it per kind.
	LookAhead  int
	LookAheads map[artifact.Kind]int

	// Cost-model parameters.
	CMMatcherMode         CMMode
	CMReMatchBound        float64
	WR, WN, WA, WS, WO    float64
	PAssign               float64
	FixLower, FixUpper    float64
	Seed                  *int64 // nil means no fixed seed
	CostModelIterations   int
	CMMatcherParallel     bool
	CMFixRandomPercentage bool

	mu      sync.Mutex
	crashes map[string]error
	out     bytes.Buffer
	diag    bytes.Buffer
}

// NewMergeContext constructs a context with all options at their defaults.
func NewMergeContext() *MergeContext {
	seed := int64(42)
	return &MergeContext{
		ConditionalOutsideMethods: true,
		LookAhead:                 LookAheadOff,
		LookAheads:                make(map[artifact.Kind]int),
		CMMatcherMode:             CMOff,
		CMReMatchBound:            0.3,
		WR:                        1,
		WN:                        1,
		WA:                        1,
		WS:                        1,
		WO:                        1,
		PAssign:                   0.7,
		FixLower:                  0.25,
		FixUpper:                  0.5,
		Seed:                      &seed,
		CostModelIterations:       100,
		CMMatcherParallel:         true,
		CMFixRandomPercentage:     true,
		crashes:                   make(map[string]error),
	}
}

// Clone deep-copies the context so a sub-merge cannot observe the caller's
// later mutations. The buffered sinks start empty; the crash registry is
// copied.
func (mc *MergeContext) Clone() *MergeContext {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	c := &MergeContext{
		ConditionalMerge:          mc.ConditionalMerge,
		ConditionalOutsideMethods: mc.ConditionalOutsideMethods,
		DiffOnly:                  mc.DiffOnly,
		Consecutive:               mc.Consecutive,
		ForceOverwriting:          mc.ForceOverwriting,
		KeepGoing:                 mc.KeepGoing,
		ExitOnError:               mc.ExitOnError,
		Quiet:                     mc.Quiet,
		Pretend:                   mc.Pretend,
		Recursive:                 mc.Recursive,
		InputFiles:                append([]*artifact.FileArtifact(nil), mc.InputFiles...),
		OutputFile:                mc.OutputFile,
		CollectStatistics:         mc.CollectStatistics,
		Statistics:                mc.Statistics,
		LookAhead:                 mc.LookAhead,
		LookAheads:                make(map[artifact.Kind]int, len(mc.LookAheads)),
		CMMatcherMode:             mc.CMMatcherMode,
		CMReMatchBound:            mc.CMReMatchBound,
		WR:                        mc.WR,
		WN:                        mc.WN,
		WA:                        mc.WA,
		WS:                        mc.WS,
		WO:                        mc.WO,
		PAssign:                   mc.PAssign,
		FixLower:                  mc.FixLower,
		FixUpper:                  mc.FixUpper,
		CostModelIterations:       mc.CostModelIterations,
		CMMatcherParallel:         mc.CMMatcherParallel,
		CMFixRandomPercentage:     mc.CMFixRandomPercentage,
		crashes:                   make(map[string]error, len(mc.crashes)),
	}
	for k, v := range mc.LookAheads {
		c.LookAheads[k] = v
	}
	for k, v := range mc.crashes {
		c.crashes[k] = v
	}
	if mc.Seed != nil {
		seed := *mc.Seed
		c.Seed = &seed
	}
	if mc.CollectStatistics && mc.Statistics != nil {
		c.Statistics = stats.New()
	}
	return c
}

// LookAheadFor returns the per-kind override if present, else the global
// depth.
func (mc *MergeContext) LookAheadFor(kind artifact.Kind) int {
	if la, ok := mc.LookAheads[kind]; ok {
		return la
	}
	return mc.LookAhead
}

// IsLookAhead reports whether any look-ahead is configured.
func (mc *MergeContext) IsLookAhead() bool {
	return len(mc.LookAheads) > 0 || mc.LookAhead != LookAheadOff
}

// ConditionalMergeFor reports whether merging the given artifact should
// insert choice nodes instead of conflicts. When conditional merge is
// restricted to method scope, the artifact must be within a method.
func (mc *MergeContext) ConditionalMergeFor(a *artifact.Artifact) bool {
	return mc.ConditionalMerge && (mc.ConditionalOutsideMethods || a.WithinMethod())
}

// MatcherOptions derives the structured matcher configuration.
func (mc *MergeContext) MatcherOptions() matcher.Options {
	las := make(map[artifact.Kind]int, len(mc.LookAheads))
	for k, v := range mc.LookAheads {
		las[k] = v
	}
	return matcher.Options{LookAhead: mc.LookAhead, LookAheads: las}
}

// CostModelOptions derives the cost-model matcher configuration.
func (mc *MergeContext) CostModelOptions() costmodel.Options {
	var seed *int64
	if mc.Seed != nil {
		s := *mc.Seed
		seed = &s
	}
	return costmodel.Options{
		Iterations:          mc.CostModelIterations,
		PAssign:             mc.PAssign,
		WR:                  mc.WR,
		WN:                  mc.WN,
		WA:                  mc.WA,
		WS:                  mc.WS,
		WO:                  mc.WO,
		FixLower:            mc.FixLower,
		FixUpper:            mc.FixUpper,
		FixRandomPercentage: mc.CMFixRandomPercentage,
		Parallel:            mc.CMMatcherParallel,
		Seed:                seed,
		ReMatchBound:        mc.CMReMatchBound,
	}
}

// Append writes to the buffered output sink.
func (mc *MergeContext) Append(s string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.out.WriteString(s)
}

// AppendLine writes a line to the buffered output sink.
func (mc *MergeContext) AppendLine(s string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.out.WriteString(s)
	mc.out.WriteByte('\n')
}

// AppendError writes to the buffered diagnostic sink.
func (mc *MergeContext) AppendError(s string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.diag.WriteString(s)
}

// AppendErrorLine writes a line to the buffered diagnostic sink.
func (mc *MergeContext) AppendErrorLine(s string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.diag.WriteString(s)
	mc.diag.WriteByte('\n')
}

// Output returns a snapshot of the buffered output sink.
func (mc *MergeContext) Output() string {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.out.String()
}

// Diagnostics returns a snapshot of the buffered diagnostic sink.
func (mc *MergeContext) Diagnostics() string {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.diag.String()
}

// HasOutput reports whether the output sink is non-empty.
func (mc *MergeContext) HasOutput() bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.out.Len() > 0
}

// HasErrors reports whether the diagnostic sink is non-empty.
func (mc *MergeContext) HasErrors() bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.diag.Len() > 0
}

// ResetStreams clears both buffered sinks.
func (mc *MergeContext) ResetStreams() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.out.Reset()
	mc.diag.Reset()
}

// AddCrash records a failed scenario in the crash registry under its key.
func (mc *MergeContext) AddCrash(key string, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.crashes[key] = err
}

// Crashes returns a copy of the crash registry.
func (mc *MergeContext) Crashes() map[string]error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	out := make(map[string]error, len(mc.crashes))
	for k, v := range mc.crashes {
		out[k] = v
	}
	return out
}

// EnableStatistics turns statistics collection on, creating the collector
// when necessary.
func (mc *MergeContext) EnableStatistics() {
	mc.CollectStatistics = true
	if mc.Statistics == nil {
		mc.Statistics = stats.New()
	}
}
