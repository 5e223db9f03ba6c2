// Package stats collects per-scenario merge statistics, aggregates them
// across a run, and persists finished runs to a local SQLite database.
package stats

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/t03i/jdime/internal/artifact"
)

// ElementStatistics counts the fate of elements of one kind.
type ElementStatistics struct {
	Total      int
	Matched    int
	Added      int
	Deleted    int
	Changed    int
	InConflict int
}

// Add accumulates other into e.
func (e *ElementStatistics) Add(other *ElementStatistics) {
	e.Total += other.Total
	e.Matched += other.Matched
	e.Added += other.Added
	e.Deleted += other.Deleted
	e.Changed += other.Changed
	e.InConflict += other.InConflict
}

// ScenarioStatistics holds the statistics of one merge scenario.
type ScenarioStatistics struct {
	Scenario  string
	Conflicts int
	Runtime   time.Duration

	Lines       ElementStatistics
	Files       ElementStatistics
	Directories ElementStatistics

	kinds map[artifact.Revision]map[artifact.Kind]*ElementStatistics
}

// NewScenarioStatistics creates empty statistics for the named scenario.
func NewScenarioStatistics(scenario string) *ScenarioStatistics {
	return &ScenarioStatistics{
		Scenario: scenario,
		kinds:    make(map[artifact.Revision]map[artifact.Kind]*ElementStatistics),
	}
}

// KindStatistics returns the element statistics for the given revision and
// kind, creating them on first use. Line, file and directory kinds share
// one revision-independent slot each.
func (s *ScenarioStatistics) KindStatistics(rev artifact.Revision, kind artifact.Kind) *ElementStatistics {
	switch kind {
	case artifact.KindLine:
		return &s.Lines
	case artifact.KindFile:
		return &s.Files
	case artifact.KindDirectory:
		return &s.Directories
	}
	perKind, ok := s.kinds[rev]
	if !ok {
		perKind = make(map[artifact.Kind]*ElementStatistics)
		s.kinds[rev] = perKind
	}
	es, ok := perKind[kind]
	if !ok {
		es = &ElementStatistics{}
		perKind[kind] = es
	}
	return es
}

// AddLineStatistics parses a merged text for conflict markers and folds the
// line counts into the scenario statistics.
func (s *ScenarioStatistics) AddLineStatistics(mergedText string) {
	res := ParseMergedText(mergedText)
	s.Lines.Total += res.LinesOfCode
	s.Lines.InConflict += res.ConflictingLines
	s.Conflicts += res.Conflicts
}

// Add accumulates other into s.
func (s *ScenarioStatistics) Add(other *ScenarioStatistics) {
	s.Conflicts += other.Conflicts
	s.Runtime += other.Runtime
	s.Lines.Add(&other.Lines)
	s.Files.Add(&other.Files)
	s.Directories.Add(&other.Directories)
	for rev, perKind := range other.kinds {
		for kind, es := range perKind {
			s.KindStatistics(rev, kind).Add(es)
		}
	}
}

// Statistics aggregates scenario statistics across a run. Safe for
// concurrent appenders.
type Statistics struct {
	mu        sync.Mutex
	scenarios []*ScenarioStatistics
}

// New creates an empty collector.
func New() *Statistics {
	return &Statistics{}
}

// Add appends one scenario's statistics.
func (st *Statistics) Add(sc *ScenarioStatistics) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.scenarios = append(st.scenarios, sc)
}

// Scenarios returns a snapshot of the collected statistics.
func (st *Statistics) Scenarios() []*ScenarioStatistics {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]*ScenarioStatistics(nil), st.scenarios...)
}

// Conflicts returns the total conflict count across all scenarios.
func (st *Statistics) Conflicts() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	total := 0
	for _, sc := range st.scenarios {
		total += sc.Conflicts
	}
	return total
}

// Total folds all scenarios into one summary.
func (st *Statistics) Total() *ScenarioStatistics {
	total := NewScenarioStatistics("total")
	for _, sc := range st.Scenarios() {
		total.Add(sc)
	}
	return total
}

// Print writes a human-readable summary.
func (st *Statistics) Print(w io.Writer) {
	scenarios := st.Scenarios()
	for _, sc := range scenarios {
		fmt.Fprintf(w, "scenario %s: %d conflict(s), %d line(s), %d conflicting line(s), %v\n",
			sc.Scenario, sc.Conflicts, sc.Lines.Total, sc.Lines.InConflict, sc.Runtime.Round(time.Millisecond))

		revs := make([]string, 0, len(sc.kinds))
		for rev := range sc.kinds {
			revs = append(revs, string(rev))
		}
		sort.Strings(revs)
		for _, rev := range revs {
			perKind := sc.kinds[artifact.Revision(rev)]
			kinds := make([]artifact.Kind, 0, len(perKind))
			for kind := range perKind {
				kinds = append(kinds, kind)
			}
			sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
			for _, kind := range kinds {
				es := perKind[kind]
				fmt.Fprintf(w, "  %s/%s: total=%d matched=%d added=%d deleted=%d changed=%d\n",
					rev, kind, es.Total, es.Matched, es.Added, es.Deleted, es.Changed)
			}
		}
	}
	total := st.Total()
	fmt.Fprintf(w, "total: %d scenario(s), %d conflict(s)\n", len(scenarios), total.Conflicts)
}
