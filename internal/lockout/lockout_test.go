package lockout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subelo/subelo/internal/plan"
)

func snapshot(n int, size int64) []FileStat {
	files := make([]FileStat, n)
	for i := range files {
		files[i] = FileStat{ID: string(rune('a' + i)), Name: "f", Size: size}
	}
	return files
}

func TestEvaluate_Compliant(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)

	r := Evaluate(plan.Free, limits, snapshot(5, 50<<20))
	assert.Equal(t, Compliant, r.State)
	assert.Empty(t, r.Violations)
	assert.Empty(t, r.Blocking)
	assert.Equal(t, 5, r.Usage.Files)
	assert.Equal(t, int64(250<<20), r.Usage.StorageBytes)
}

func TestEvaluate_FileCountOverLimit(t *testing.T) {
	// E.g. after a plan downgrade the account holds more files than
	// the free tier allows; the gate never let this in, the lockout
	// flow has to catch it.
	limits := plan.LimitsFor(plan.Free)

	r := Evaluate(plan.Free, limits, snapshot(7, 1<<20))
	require.Equal(t, OverLimit, r.State)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "active_files", r.Violations[0].Resource)
	assert.Equal(t, int64(7), r.Violations[0].Current)
	assert.Len(t, r.Blocking, 7)
}

func TestEvaluate_StorageOverLimit_BlockingLargestFirst(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)
	files := []FileStat{
		{ID: "small", Size: 10 << 20},
		{ID: "big", Size: 400 << 20},
		{ID: "mid", Size: 200 << 20},
	}

	r := Evaluate(plan.Free, limits, files)
	require.Equal(t, OverLimit, r.State)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "total_storage", r.Violations[0].Resource)

	require.Len(t, r.Blocking, 3)
	assert.Equal(t, "big", r.Blocking[0].ID)
	assert.Equal(t, "mid", r.Blocking[1].ID)
	assert.Equal(t, "small", r.Blocking[2].ID)
}

func TestEvaluate_ProtectedOnlyViolationBlocksProtectedFiles(t *testing.T) {
	limits := plan.LimitsFor(plan.Free) // 1 protected file allowed
	files := []FileStat{
		{ID: "open", Size: 1 << 20},
		{ID: "p1", Size: 1 << 20, Protected: true},
		{ID: "p2", Size: 1 << 20, Protected: true},
	}

	r := Evaluate(plan.Free, limits, files)
	require.Equal(t, OverLimit, r.State)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "protected_files", r.Violations[0].Resource)

	ids := []string{}
	for _, f := range r.Blocking {
		ids = append(ids, f.ID)
	}
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)
}

func TestEvaluate_BackToCompliantAfterDeletion(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)
	files := snapshot(6, 1<<20)

	r := Evaluate(plan.Free, limits, files)
	require.Equal(t, OverLimit, r.State)

	// The client deletes one file and re-evaluates the updated list.
	r = Evaluate(plan.Free, limits, files[:5])
	assert.Equal(t, Compliant, r.State)
}

func TestEvaluate_EmptySnapshot(t *testing.T) {
	r := Evaluate(plan.Guest, plan.LimitsFor(plan.Guest), nil)
	assert.Equal(t, Compliant, r.State)
}
