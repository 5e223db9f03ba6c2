package strategy

import (
	"context"
	"fmt"

	"github.com/t03i/jdime/internal/merge"
	"github.com/t03i/jdime/internal/parser"
)

// combinedStrategy tries the structured merge first and falls back to the
// line-based merge per file when the input cannot be parsed.
type combinedStrategy struct {
	structured Strategy
	fallback   Strategy
}

func (s *combinedStrategy) Name() string { return Combined }

func (s *combinedStrategy) Merge(ctx context.Context, mc *merge.MergeContext, files *FileSet) (int, error) {
	conflicts, err := s.structured.Merge(ctx, mc, files)
	if err == nil {
		return conflicts, nil
	}
	if !parser.IsParseError(err) {
		return 0, err
	}

	mc.AppendErrorLine(fmt.Sprintf("falling back to %s for %s: %v", s.fallback.Name(), files.Key(), err))
	return s.fallback.Merge(ctx, mc, files)
}
