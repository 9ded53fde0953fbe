// Package lockout detects an already-over-limit account from a held
// snapshot of its files. It is the server contract behind the client
// enforcement flow: the UI fetches a Report, force-navigates to the
// remediation page while the state is OverLimit, and recomputes after
// each deletion until the account is Compliant again. Nothing here
// deletes anything; the only reduction path is explicit user action.
package lockout

import (
	"fmt"
	"sort"

	"github.com/subelo/subelo/internal/plan"
	"github.com/subelo/subelo/internal/quota"
)

// State of the account with respect to its plan limits.
type State string

const (
	Compliant State = "compliant"
	OverLimit State = "over_limit"
)

// FileStat is the slice of a file record the evaluation needs. The
// snapshot is whatever list the caller holds; it is not re-queried.
type FileStat struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Protected bool   `json:"protected"`
}

// Violation names one exceeded limit with the quantities involved.
type Violation struct {
	Resource string `json:"resource"`
	Current  int64  `json:"current"`
	Limit    int64  `json:"limit"`
	Message  string `json:"message"`
}

// Report is the full evaluation result for one snapshot.
type Report struct {
	State      State       `json:"state"`
	Usage      quota.Usage `json:"usage"`
	Violations []Violation `json:"violations,omitempty"`
	// Blocking lists the files counted against the exceeded limits,
	// largest first, so the remediation page can present what to
	// delete.
	Blocking []FileStat `json:"blocking,omitempty"`
}

// Evaluate computes the lockout state from a snapshot of the user's
// files, using the same quantities and limits as the limit gate: file
// count, protected count and total stored bytes.
func Evaluate(p plan.Plan, limits plan.Limits, snapshot []FileStat) Report {
	var u quota.Usage
	u.Files = len(snapshot)
	for _, f := range snapshot {
		u.StorageBytes += f.Size
		if f.Protected {
			u.Protected++
		}
	}

	var violations []Violation
	if u.Files > limits.MaxActiveFiles {
		violations = append(violations, Violation{
			Resource: "active_files",
			Current:  int64(u.Files),
			Limit:    int64(limits.MaxActiveFiles),
			Message:  fmt.Sprintf("Active files limit reached (%d)", limits.MaxActiveFiles),
		})
	}
	if u.StorageBytes > limits.MaxTotalStorageBytes {
		violations = append(violations, Violation{
			Resource: "total_storage",
			Current:  u.StorageBytes,
			Limit:    limits.MaxTotalStorageBytes,
			Message:  fmt.Sprintf("Storage limit of the %s plan reached (%d bytes)", p, limits.MaxTotalStorageBytes),
		})
	}
	if u.Protected > limits.MaxProtectedFiles {
		violations = append(violations, Violation{
			Resource: "protected_files",
			Current:  int64(u.Protected),
			Limit:    int64(limits.MaxProtectedFiles),
			Message:  fmt.Sprintf("Tu plan %s solo permite %d archivo protegido.", p, limits.MaxProtectedFiles),
		})
	}

	report := Report{State: Compliant, Usage: u}
	if len(violations) > 0 {
		report.State = OverLimit
		report.Violations = violations
		report.Blocking = blockingFiles(limits, snapshot, violations)
	}
	return report
}

// blockingFiles picks the files that count against the violated
// limits. Over the file or storage ceiling every file is in play;
// over only the protected ceiling just the protected ones are.
func blockingFiles(limits plan.Limits, snapshot []FileStat, violations []Violation) []FileStat {
	onlyProtected := true
	for _, v := range violations {
		if v.Resource != "protected_files" {
			onlyProtected = false
			break
		}
	}

	var out []FileStat
	for _, f := range snapshot {
		if onlyProtected && !f.Protected {
			continue
		}
		out = append(out, f)
	}

	// Largest first: deleting big files is the fastest way back under
	// a storage violation.
	sort.Slice(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	return out
}
