package quota

import (
	"fmt"
	"time"

	"github.com/subelo/subelo/internal/plan"
)

// Window lengths for the two persisted API counters.
const (
	RequestWindow = time.Hour
	UploadWindow  = 24 * time.Hour
)

// Window is a rolling counter persisted on the user record. Count is
// monotonically non-decreasing within a window and resets exactly once
// when the elapsed time since Start exceeds the window length.
type Window struct {
	Count int
	Start time.Time
}

// Advance resets the window when it has elapsed, otherwise returns it
// unchanged. Call before evaluating the counter.
func (w Window) Advance(now time.Time, length time.Duration) Window {
	if now.Sub(w.Start) > length {
		return Window{Count: 0, Start: now}
	}
	return w
}

// Remaining reports how long until the window resets.
func (w Window) Remaining(now time.Time, length time.Duration) time.Duration {
	rem := length - now.Sub(w.Start)
	if rem < 0 {
		return 0
	}
	return rem
}

// AllowRequest gates one API call against the hourly request counter.
// Plans without API access are rejected before any counter is touched.
// On success the returned window carries the incremented count and must
// be persisted by the caller; every accepted call causes a write.
func AllowRequest(limits plan.Limits, w Window, now time.Time) (Window, error) {
	if !limits.HasAPIAccess {
		return w, &AccessError{Msg: "Your plan does not include API access"}
	}
	return allow(w, now, RequestWindow, limits.APIRequestsPerHour, "hourly request")
}

// AllowUpload gates one API upload against the daily upload counter.
func AllowUpload(limits plan.Limits, w Window, now time.Time) (Window, error) {
	if !limits.HasAPIAccess {
		return w, &AccessError{Msg: "Your plan does not include API access"}
	}
	return allow(w, now, UploadWindow, limits.APIUploadsPerDay, "daily upload")
}

func allow(w Window, now time.Time, length time.Duration, limit int, what string) (Window, error) {
	w = w.Advance(now, length)
	if w.Count >= limit {
		return w, &RateLimitError{
			Limit:      limit,
			RetryAfter: int(w.Remaining(now, length).Seconds()),
			Msg:        fmt.Sprintf("API %s limit reached (%d)", what, limit),
		}
	}
	w.Count++
	return w, nil
}
