package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t03i/jdime/internal/artifact"
)

func TestNewMergeContext_Defaults(t *testing.T) {
	mc := NewMergeContext()

	assert.False(t, mc.ConditionalMerge)
	assert.True(t, mc.ConditionalOutsideMethods)
	assert.Equal(t, LookAheadOff, mc.LookAhead)
	assert.Equal(t, CMOff, mc.CMMatcherMode)
	assert.InDelta(t, 0.3, mc.CMReMatchBound, 1e-9)
	assert.Equal(t, 1.0, mc.WR)
	assert.Equal(t, 1.0, mc.WN)
	assert.Equal(t, 1.0, mc.WA)
	assert.Equal(t, 1.0, mc.WS)
	assert.Equal(t, 1.0, mc.WO)
	assert.InDelta(t, 0.7, mc.PAssign, 1e-9)
	assert.InDelta(t, 0.25, mc.FixLower, 1e-9)
	assert.InDelta(t, 0.5, mc.FixUpper, 1e-9)
	require.NotNil(t, mc.Seed)
	assert.Equal(t, int64(42), *mc.Seed)
	assert.Equal(t, 100, mc.CostModelIterations)
	assert.True(t, mc.CMMatcherParallel)
	assert.True(t, mc.CMFixRandomPercentage)
}

func TestLookAheadFor_PerKindOverride(t *testing.T) {
	mc := NewMergeContext()
	mc.LookAhead = 3
	mc.LookAheads[artifact.KindMethod] = 7

	assert.Equal(t, 7, mc.LookAheadFor(artifact.KindMethod), "override wins when present")
	assert.Equal(t, 3, mc.LookAheadFor(artifact.KindClass), "global default otherwise")
	assert.True(t, mc.IsLookAhead())
}

func TestIsLookAhead_OffByDefault(t *testing.T) {
	mc := NewMergeContext()
	assert.False(t, mc.IsLookAhead())

	mc.LookAheads[artifact.KindMethod] = 1
	assert.True(t, mc.IsLookAhead())
}

func TestClone_IsolatesMutableState(t *testing.T) {
	mc := NewMergeContext()
	mc.AppendLine("before")
	mc.AddCrash("scenario-a", errors.New("boom"))
	mc.LookAheads[artifact.KindMethod] = 2

	clone := mc.Clone()
	clone.AppendLine("clone output")
	clone.AddCrash("scenario-b", errors.New("later"))
	clone.LookAheads[artifact.KindClass] = 9
	*clone.Seed = 7

	assert.Equal(t, "before\n", mc.Output(), "caller's sink unaffected")
	assert.NotContains(t, mc.Crashes(), "scenario-b")
	assert.Contains(t, clone.Crashes(), "scenario-a", "registry is copied")
	assert.NotContains(t, mc.LookAheads, artifact.KindClass)
	assert.Equal(t, int64(42), *mc.Seed)
}

func TestSinks_AppendAndSnapshot(t *testing.T) {
	mc := NewMergeContext()

	mc.Append("a")
	mc.AppendLine("b")
	mc.AppendError("x")
	mc.AppendErrorLine("y")

	assert.Equal(t, "ab\n", mc.Output())
	assert.Equal(t, "xy\n", mc.Diagnostics())
	assert.True(t, mc.HasOutput())
	assert.True(t, mc.HasErrors())

	mc.ResetStreams()
	assert.False(t, mc.HasOutput())
	assert.False(t, mc.HasErrors())
}

func TestConditionalMergeFor(t *testing.T) {
	stmt := artifact.New(artifact.Left, artifact.KindStatement, "s")
	method := tn(artifact.Left, artifact.KindMethod, "m", stmt)
	unit := tn(artifact.Left, artifact.KindCompilationUnit, "", method)

	mc := NewMergeContext()
	assert.False(t, mc.ConditionalMergeFor(stmt), "conditional merge off by default")

	mc.ConditionalMerge = true
	assert.True(t, mc.ConditionalMergeFor(stmt))
	assert.True(t, mc.ConditionalMergeFor(unit))

	mc.ConditionalOutsideMethods = false
	assert.True(t, mc.ConditionalMergeFor(stmt), "statements inside methods stay conditional")
	assert.False(t, mc.ConditionalMergeFor(unit), "top-level artifacts do not")
}

func TestScenarioAccessors(t *testing.T) {
	left := tn(artifact.Left, artifact.KindFile, "l")
	base := tn(artifact.Base, artifact.KindFile, "b")
	right := tn(artifact.Right, artifact.KindFile, "r")

	s := NewThreeWay(left, base, right)

	assert.True(t, s.IsThreeWay())
	assert.Equal(t, 3, s.Arity())
	assert.Same(t, left, s.Left())
	assert.Same(t, base, s.Base())
	assert.Same(t, right, s.Right())
	assert.Equal(t, []artifact.Revision{artifact.Left, artifact.Base, artifact.Right}, s.Revisions())
}
