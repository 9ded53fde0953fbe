package quota

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subelo/subelo/internal/plan"
)

func TestCheckUpload_AdmitsUnderAllLimits(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)
	u := Usage{Files: 4, StorageBytes: 100 << 20}

	err := CheckUpload(plan.Free, limits, u, 10<<20)
	assert.NoError(t, err)
}

func TestCheckUpload_FileCountCeiling(t *testing.T) {
	// Free plan: maxFiles=5, maxTotalStorage=500MB. Five 50MB files
	// already stored, a sixth 10MB upload must be rejected naming the
	// file-count limit.
	limits := plan.LimitsFor(plan.Free)
	u := Usage{Files: 5, StorageBytes: 5 * 50 << 20}

	err := CheckUpload(plan.Free, limits, u, 10<<20)
	require.Error(t, err)

	qe, ok := err.(*QuotaError)
	require.True(t, ok)
	assert.Equal(t, "Active files limit reached (5)", qe.Msg)
	assert.Equal(t, int64(5), qe.Limit)
	assert.Equal(t, plan.Free, qe.Plan)

	// After deleting one file the same upload is admitted.
	u = Usage{Files: 4, StorageBytes: 4 * 50 << 20}
	assert.NoError(t, CheckUpload(plan.Free, limits, u, 10<<20))
}

func TestCheckUpload_PerFileSizeLimit(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)

	err := CheckUpload(plan.Free, limits, Usage{}, limits.MaxFileBytes+1)
	require.Error(t, err)

	qe, ok := err.(*QuotaError)
	require.True(t, ok)
	assert.Equal(t, "file_size", qe.Resource)
	assert.Equal(t, limits.MaxFileBytes, qe.Limit)
}

func TestCheckUpload_TotalStorageCeiling(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)
	u := Usage{Files: 2, StorageBytes: 495 << 20}

	err := CheckUpload(plan.Free, limits, u, 10<<20)
	require.Error(t, err)

	qe, ok := err.(*QuotaError)
	require.True(t, ok)
	assert.Equal(t, "total_storage", qe.Resource)
}

func TestCheckUpload_RejectsNonPositiveSize(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)

	err := CheckUpload(plan.Free, limits, Usage{}, 0)
	assert.IsType(t, &ValidationError{}, err)
}

func TestCheckAddPassword_ExistingPasswordIsFree(t *testing.T) {
	limits := plan.LimitsFor(plan.Plus)
	u := Usage{Protected: limits.MaxProtectedFiles}

	// Changing the password of an already-protected file never hits
	// the quota, even at the ceiling.
	assert.NoError(t, CheckAddPassword(plan.Plus, limits, u, true))
}

func TestCheckAddPassword_Ceiling(t *testing.T) {
	// Plus plan allows 5 protected files; protecting a sixth
	// previously-unprotected file is rejected with the plan-naming
	// message. Removing one password frees a slot.
	limits := plan.LimitsFor(plan.Plus)
	u := Usage{Protected: 5}

	err := CheckAddPassword(plan.Plus, limits, u, false)
	require.Error(t, err)

	qe, ok := err.(*QuotaError)
	require.True(t, ok)
	assert.Equal(t, "Tu plan plus solo permite 5 archivo protegido.", qe.Msg)
	assert.Equal(t, int64(5), qe.Limit)

	u.Protected = 4
	assert.NoError(t, CheckAddPassword(plan.Plus, limits, u, false))
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug string
		ok   bool
	}{
		{"my-report-2024", true},
		{"abc", true},
		{"a1-b2", true},
		{"", false},
		{"With-Caps", false},
		{"under_score", false},
		{"espacio aqui", false},
		{"acentuación", false},
		{"api", false},
		{"admin", false},
		{"d", false},
	}

	for _, tt := range tests {
		err := ValidateSlug(tt.slug)
		if tt.ok {
			assert.NoError(t, err, "slug %q", tt.slug)
		} else {
			assert.IsType(t, &ValidationError{}, err, "slug %q", tt.slug)
		}
	}
}

func TestValidateSlug_LengthBound(t *testing.T) {
	long := ""
	for i := 0; i < maxSlugLen+1; i++ {
		long += "a"
	}
	assert.Error(t, ValidateSlug(long))
	assert.NoError(t, ValidateSlug(long[1:]))
}

func TestCheckCustomLink(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)

	// Replacing an existing link is free even at the ceiling.
	assert.NoError(t, CheckCustomLink(plan.Free, limits, Usage{CustomLinks: 1}, true))

	err := CheckCustomLink(plan.Free, limits, Usage{CustomLinks: 1}, false)
	require.Error(t, err)
	qe, ok := err.(*QuotaError)
	require.True(t, ok)
	assert.Equal(t, "custom_links", qe.Resource)

	assert.NoError(t, CheckCustomLink(plan.Free, limits, Usage{CustomLinks: 0}, false))
}

func TestNextExpiration(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now.Add(72 * time.Hour)

	tests := []struct {
		name      string
		requested time.Time
		want      time.Time
	}{
		{"earlier and future is honored", now.Add(24 * time.Hour), now.Add(24 * time.Hour)},
		{"later than current is ignored", now.Add(96 * time.Hour), current},
		{"earlier than now is ignored", now.Add(-time.Hour), current},
		{"equal to current is ignored", current, current},
		{"equal to now is ignored", now, current},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextExpiration(current, tt.requested, now)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestCheckCreateFolder(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)

	assert.NoError(t, CheckCreateFolder(plan.Free, limits, Usage{Folders: 1}, "Invoices"))

	err := CheckCreateFolder(plan.Free, limits, Usage{Folders: 2}, "Invoices")
	require.Error(t, err)
	qe, ok := err.(*QuotaError)
	require.True(t, ok)
	assert.Equal(t, "folders", qe.Resource)
	assert.Equal(t, int64(2), qe.Limit)

	assert.IsType(t, &ValidationError{}, CheckCreateFolder(plan.Free, limits, Usage{}, "   "))
}

func TestCheckTags(t *testing.T) {
	limits := plan.LimitsFor(plan.Free)

	assert.NoError(t, CheckTags(plan.Free, limits, []string{"a", "b", "c"}))

	err := CheckTags(plan.Free, limits, []string{"a", "b", "c", "d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("(%d)", limits.MaxTagsPerFile))
}
