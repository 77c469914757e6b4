package domain

import "time"

// DispatchTask is an in-flight unit of outbound work. It is owned by the
// dispatch queue until handed to the poster.
type DispatchTask struct {
	ReplyID          string
	PostID           string
	RenderedResponse string
	RuleName         string
	Attempt          int
	NextEligibleTime time.Time
}

// Eligible reports whether the task may be dispatched at the given time
func (t *DispatchTask) Eligible(now time.Time) bool {
	return !t.NextEligibleTime.After(now)
}
