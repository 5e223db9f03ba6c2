package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/merge"
	"github.com/t03i/jdime/internal/parser"
	"github.com/t03i/jdime/internal/stats"
)

// structuredStrategy parses the inputs into artifact trees, matches them
// and runs the tree merge driver.
type structuredStrategy struct{}

func (s *structuredStrategy) Name() string { return Structured }

func (s *structuredStrategy) Merge(ctx context.Context, mc *merge.MergeContext, files *FileSet) (int, error) {
	start := time.Now()

	roots, err := parseInputs(ctx, files)
	if err != nil {
		return 0, err
	}

	if mc.DiffOnly {
		return 0, s.diff(ctx, mc, files, roots)
	}

	var res *merge.Result
	switch files.Arity() {
	case 2:
		res, err = merge.TwoWay(ctx, mc, roots[0], roots[1], label(files.Left()), label(files.Right()))
	case 3:
		scenario := merge.NewThreeWay(roots[0], roots[1], roots[2])
		res, err = merge.ThreeWay(ctx, mc, scenario)
	default:
		return 0, fmt.Errorf("structured merge supports 2 or 3 inputs, got %d", files.Arity())
	}
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
		collectTreeStats(sc, roots)
		sc.Runtime = time.Since(start)
		mc.Statistics.Add(sc)
	}

	return res.Conflicts, nil
}

// diff runs the matching stage only and reports the change counts.
func (s *structuredStrategy) diff(ctx context.Context, mc *merge.MergeContext, files *FileSet, roots []*artifact.Artifact) error {
	var scenario *merge.Scenario
	switch files.Arity() {
	case 2:
		scenario = merge.NewTwoWay(roots[0], roots[1])
	case 3:
		scenario = merge.NewThreeWay(roots[0], roots[1], roots[2])
	default:
		return fmt.Errorf("diff supports 2 or 3 inputs, got %d", files.Arity())
	}

	res, err := merge.Diff(ctx, mc, scenario)
	if err != nil {
		return err
	}
	for _, p := range res.Pairs {
		mc.AppendLine(fmt.Sprintf("%s -> %s: %d matched, %d deleted, %d added",
			p.From.Revision(), p.To.Revision(), p.Matched, p.Deleted, p.Added))
	}
	return nil
}

// parseInputs parses every input file into its revision's artifact tree.
func parseInputs(ctx context.Context, files *FileSet) ([]*artifact.Artifact, error) {
	p := parser.New()
	roots := make([]*artifact.Artifact, 0, len(files.Inputs))
	for _, f := range files.Inputs {
		source, err := f.Read()
		if err != nil {
			return nil, err
		}
		root, err := p.Parse(ctx, f.Path(), source, f.Revision())
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}
	return roots, nil
}

// collectTreeStats derives per-revision element statistics from the
// matches recorded on the side trees.
func collectTreeStats(sc *stats.ScenarioStatistics, roots []*artifact.Artifact) {
	if len(roots) != 3 {
		return
	}
	base := roots[1]
	for _, side := range []*artifact.Artifact{roots[0], roots[2]} {
		rev := side.Revision()
		side.Walk(func(n *artifact.Artifact) {
			es := sc.KindStatistics(rev, n.Kind)
			es.Total++
			if m := n.MatchIn(base.Revision()); m != nil {
				es.Matched++
				if !n.EqualsStructurally(m) {
					es.Changed++
				}
			} else {
				es.Added++
			}
		})
		base.Walk(func(n *artifact.Artifact) {
			if !n.HasMatch(rev) {
				sc.KindStatistics(rev, n.Kind).Deleted++
			}
		})
	}
}
