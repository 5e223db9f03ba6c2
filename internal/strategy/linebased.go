package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/t03i/jdime/internal/merge"
	"github.com/t03i/jdime/internal/stats"
)

// lineBasedStrategy merges inputs purely by lines, with no structural
// awareness. It is also the fallback of the combined strategy.
type lineBasedStrategy struct{}

func (s *lineBasedStrategy) Name() string { return LineBased }

func (s *lineBasedStrategy) Merge(ctx context.Context, mc *merge.MergeContext, files *FileSet) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", merge.ErrCancelled, err)
	}
	start := time.Now()

	left, err := files.Left().Read()
	if err != nil {
		return 0, err
	}
	right, err := files.Right().Read()
	if err != nil {
		return 0, err
	}
	var base []byte
	if files.Base() != nil {
		if base, err = files.Base().Read(); err != nil {
			return 0, err
		}
	}

	if mc.DiffOnly {
		d := merge.DiffLines(left, right)
		mc.AppendLine(fmt.Sprintf("%s -> %s: %d common, %d deleted, %d added",
			label(files.Left()), label(files.Right()), d.Common, d.Deleted, d.Added))
		return 0, nil
	}

	res := merge.MergeLines(base, left, right, label(files.Left()), label(files.Right()))
	if err := writeResult(mc, files, res.Text); err != nil {
		return 0, err
	}

	if mc.CollectStatistics {
		sc := stats.NewScenarioStatistics(files.Key())
		sc.AddLineStatistics(res.Text)
		sc.Files.Total++
		sc.Runtime = time.Since(start)
		mc.Statistics.Add(sc)
	}

	return res.Conflicts, nil
}
