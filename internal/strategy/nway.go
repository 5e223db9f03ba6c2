package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/t03i/jdime/internal/merge"
	"github.com/t03i/jdime/internal/stats"
)

// nwayStrategy unifies two or more revisions into a variant-annotated
// result. It turns conditional merge on for the whole run.
type nwayStrategy struct{}

func (s *nwayStrategy) Name() string { return NWay }

func (s *nwayStrategy) Merge(ctx context.Context, mc *merge.MergeContext, files *FileSet) (int, error) {
	if files.Arity() < 2 {
		return 0, fmt.Errorf("n-way merge needs at least two inputs, got %d", files.Arity())
	}
	start := time.Now()

	mc.ConditionalMerge = true

	roots, err := parseInputs(ctx, files)
	if err != nil {
		return 0, err
	}

	scenario := merge.NewNWayOver(roots)
	res, err := merge.NWay(ctx, mc, scenario)
	if err != nil {
		return 0, err
	}

	text := merge.Render(res.Root, label(files.Left()), label(files.Right()))
	if err := writeResult(mc, files, text); err != nil {
		return 0, err
	}

	if mc.CollectStatistics {
		sc := stats.NewScenarioStatistics(files.Key())
		sc.Conflicts = res.Conflicts
		parsed := stats.ParseMergedText(text)
		sc.Lines.Total = parsed.LinesOfCode
		sc.Lines.InConflict = parsed.ConflictingLines
		sc.Files.Total++
		sc.Runtime = time.Since(start)
		mc.Statistics.Add(sc)
	}

	return res.Conflicts, nil
}
