// Package plan holds the static plan catalog: the authoritative limits
// for every tier. It is pure data with a total lookup; billing assigns
// plan identifiers to users elsewhere, and any identifier this package
// does not recognize degrades to the free tier rather than failing.
package plan

import (
	"strings"
	"time"
)

// Plan identifies a pricing tier.
type Plan string

const (
	Guest Plan = "guest"
	Free  Plan = "free"
	Plus  Plan = "plus"
	Pro   Plan = "pro"
)

// Limits are the numeric ceilings associated with a plan. A zero quota
// means the feature is unavailable on the tier, not unlimited.
type Limits struct {
	MaxFileBytes         int64
	MaxActiveFiles       int
	MaxProtectedFiles    int
	MaxCustomLinks       int
	MaxRetentionDays     int
	MaxTotalStorageBytes int64
	MaxFolders           int
	MaxTagsPerFile       int

	HasAPIAccess       bool
	APIUploadsPerDay   int
	APIRequestsPerHour int
}

const (
	mb int64 = 1 << 20
	gb int64 = 1 << 30
)

var catalog = map[Plan]Limits{
	Guest: {
		MaxFileBytes:         50 * mb,
		MaxActiveFiles:       1,
		MaxRetentionDays:     1,
		MaxTotalStorageBytes: 50 * mb,
	},
	Free: {
		MaxFileBytes:         100 * mb,
		MaxActiveFiles:       5,
		MaxProtectedFiles:    1,
		MaxCustomLinks:       1,
		MaxRetentionDays:     7,
		MaxTotalStorageBytes: 500 * mb,
		MaxFolders:           2,
		MaxTagsPerFile:       3,
	},
	Plus: {
		MaxFileBytes:         1 * gb,
		MaxActiveFiles:       50,
		MaxProtectedFiles:    5,
		MaxCustomLinks:       10,
		MaxRetentionDays:     30,
		MaxTotalStorageBytes: 10 * gb,
		MaxFolders:           10,
		MaxTagsPerFile:       10,
		HasAPIAccess:         true,
		APIUploadsPerDay:     20,
		APIRequestsPerHour:   100,
	},
	Pro: {
		MaxFileBytes:         5 * gb,
		MaxActiveFiles:       500,
		MaxProtectedFiles:    50,
		MaxCustomLinks:       50,
		MaxRetentionDays:     90,
		MaxTotalStorageBytes: 100 * gb,
		MaxFolders:           50,
		MaxTagsPerFile:       20,
		HasAPIAccess:         true,
		APIUploadsPerDay:     100,
		APIRequestsPerHour:   1000,
	},
}

// LimitsFor returns the limits for a plan. Unknown identifiers fall
// back to the free tier, so a catalog/billing mismatch degrades
// silently instead of crashing.
func LimitsFor(p Plan) Limits {
	if l, ok := catalog[p]; ok {
		return l
	}
	return catalog[Free]
}

// Limits is shorthand for LimitsFor.
func (p Plan) Limits() Limits {
	return LimitsFor(p)
}

// Parse normalizes a stored plan identifier. Anything unrecognized
// resolves to Free, matching the LimitsFor fallback.
func Parse(s string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(s))) {
	case Guest:
		return Guest
	case Plus:
		return Plus
	case Pro:
		return Pro
	default:
		return Free
	}
}

// Retention returns the expiration window the plan grants a new upload.
func (l Limits) Retention() time.Duration {
	return time.Duration(l.MaxRetentionDays) * 24 * time.Hour
}
