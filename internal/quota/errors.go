package quota

import "github.com/subelo/subelo/internal/plan"

// ValidationError rejects malformed input before any database query.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// QuotaError rejects a mutation that would push a counted quantity past
// the plan's ceiling. It always carries the numeric limit that was hit
// and the plan tier so the caller can render an accurate message.
type QuotaError struct {
	Plan     plan.Plan
	Limit    int64
	Resource string
	Msg      string
}

func (e *QuotaError) Error() string { return e.Msg }

// ConflictError rejects a value already taken by another record.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// AccessError rejects before any mutation: not the owner, not admin,
// missing/invalid API key, or a plan without API access.
type AccessError struct {
	Msg string
}

func (e *AccessError) Error() string { return e.Msg }

// RateLimitError rejects an API call whose window counter is exhausted.
type RateLimitError struct {
	Limit      int
	RetryAfter int // seconds until the window resets
	Msg        string
}

func (e *RateLimitError) Error() string { return e.Msg }
