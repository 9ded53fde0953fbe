// Package quota implements the limit gate: every mutating operation
// calls the matching check here with the plan limits and a freshly
// counted usage, and proceeds only when the check returns nil. Checks
// are pure; the caller is responsible for recounting at call time.
// The check and the subsequent write are separate round-trips, so two
// concurrent requests can both pass and together overrun a limit; the
// lockout flow is the backstop for that accepted race.
package quota

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/subelo/subelo/internal/plan"
)

// Usage is a point-in-time recount of a user's stored records. Nothing
// here is a running total; every field is recomputed from the source
// records at check time.
type Usage struct {
	Files        int
	Protected    int
	CustomLinks  int
	StorageBytes int64
	Folders      int
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// reservedSlugs are route names a custom link may never shadow.
var reservedSlugs = map[string]bool{
	"api":      true,
	"admin":    true,
	"login":    true,
	"logout":   true,
	"signup":   true,
	"upload":   true,
	"uploads":  true,
	"files":    true,
	"folders":  true,
	"account":  true,
	"history":  true,
	"pricing":  true,
	"help":     true,
	"terms":    true,
	"privacy":  true,
	"cleanup":  true,
	"d":        true,
	"s":        true,
	"static":   true,
	"assets":   true,
}

const maxSlugLen = 64

// CheckUpload is the storage-admission gate for a new upload: per-file
// byte limit, active-file ceiling, then total-storage ceiling.
func CheckUpload(p plan.Plan, limits plan.Limits, u Usage, size int64) error {
	if size <= 0 {
		return &ValidationError{Msg: "file size must be positive"}
	}
	if size > limits.MaxFileBytes {
		return &QuotaError{
			Plan:     p,
			Limit:    limits.MaxFileBytes,
			Resource: "file_size",
			Msg:      fmt.Sprintf("File exceeds the %s plan size limit (%d bytes)", p, limits.MaxFileBytes),
		}
	}
	if u.Files >= limits.MaxActiveFiles {
		return &QuotaError{
			Plan:     p,
			Limit:    int64(limits.MaxActiveFiles),
			Resource: "active_files",
			Msg:      fmt.Sprintf("Active files limit reached (%d)", limits.MaxActiveFiles),
		}
	}
	if u.StorageBytes+size > limits.MaxTotalStorageBytes {
		return &QuotaError{
			Plan:     p,
			Limit:    limits.MaxTotalStorageBytes,
			Resource: "total_storage",
			Msg:      fmt.Sprintf("Storage limit of the %s plan reached (%d bytes)", p, limits.MaxTotalStorageBytes),
		}
	}
	return nil
}

// CheckAddPassword gates protecting a file. Changing an existing
// password is free; only the no-password to password transition counts.
func CheckAddPassword(p plan.Plan, limits plan.Limits, u Usage, hadPassword bool) error {
	if hadPassword {
		return nil
	}
	if u.Protected >= limits.MaxProtectedFiles {
		return &QuotaError{
			Plan:     p,
			Limit:    int64(limits.MaxProtectedFiles),
			Resource: "protected_files",
			Msg:      fmt.Sprintf("Tu plan %s solo permite %d archivo protegido.", p, limits.MaxProtectedFiles),
		}
	}
	return nil
}

// ValidateSlug checks format before anything else: lowercase letters,
// digits and hyphens only, bounded length, and never a reserved route
// name. Format violations must win over uniqueness and quota.
func ValidateSlug(slug string) error {
	if slug == "" {
		return &ValidationError{Msg: "custom link cannot be empty"}
	}
	if len(slug) > maxSlugLen {
		return &ValidationError{Msg: fmt.Sprintf("custom link cannot exceed %d characters", maxSlugLen)}
	}
	if !slugPattern.MatchString(slug) {
		return &ValidationError{Msg: "custom link may only contain lowercase letters, digits and hyphens"}
	}
	if reservedSlugs[slug] {
		return &ValidationError{Msg: fmt.Sprintf("custom link %q is reserved", slug)}
	}
	return nil
}

// CheckCustomLink gates assigning a custom link to a file that had
// none. Replacing or clearing an existing link never consumes quota.
func CheckCustomLink(p plan.Plan, limits plan.Limits, u Usage, hadLink bool) error {
	if hadLink {
		return nil
	}
	if u.CustomLinks >= limits.MaxCustomLinks {
		return &QuotaError{
			Plan:     p,
			Limit:    int64(limits.MaxCustomLinks),
			Resource: "custom_links",
			Msg:      fmt.Sprintf("Custom links limit of the %s plan reached (%d)", p, limits.MaxCustomLinks),
		}
	}
	return nil
}

// NextExpiration applies the expiry-change rule: the requested date is
// honored only when it is earlier than the current expiration and still
// in the future. Any other value is silently ignored and the current
// expiration stands. Never an error.
func NextExpiration(current, requested, now time.Time) time.Time {
	if requested.Before(current) && requested.After(now) {
		return requested
	}
	return current
}

// CheckCreateFolder gates folder creation against the plan ceiling.
// Name validation runs first: empty after trimming is malformed input.
func CheckCreateFolder(p plan.Plan, limits plan.Limits, u Usage, name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Msg: "folder name cannot be empty"}
	}
	if len(strings.TrimSpace(name)) > 100 {
		return &ValidationError{Msg: "folder name cannot exceed 100 characters"}
	}
	if u.Folders >= limits.MaxFolders {
		return &QuotaError{
			Plan:     p,
			Limit:    int64(limits.MaxFolders),
			Resource: "folders",
			Msg:      fmt.Sprintf("Folders limit of the %s plan reached (%d)", p, limits.MaxFolders),
		}
	}
	return nil
}

// CheckTags bounds the number of tags on a file.
func CheckTags(p plan.Plan, limits plan.Limits, tags []string) error {
	if len(tags) > limits.MaxTagsPerFile {
		return &QuotaError{
			Plan:     p,
			Limit:    int64(limits.MaxTagsPerFile),
			Resource: "tags",
			Msg:      fmt.Sprintf("Tags limit of the %s plan reached (%d)", p, limits.MaxTagsPerFile),
		}
	}
	return nil
}
