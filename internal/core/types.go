package core

import "time"

type Status string

const (
	StatusOK        Status = "OK"
	StatusNearLimit Status = "NEAR_LIMIT"
	StatusLimited   Status = "LIMITED"
	StatusAuth      Status = "AUTH_REQUIRED"
	StatusError     Status = "ERROR"
	StatusUnknown   Status = "UNKNOWN"
)

type Metric struct {
	Limit     *float64 `json:"limit,omitempty"`
	Remaining *float64 `json:"remaining,omitempty"`
	Used      *float64 `json:"used,omitempty"`
	Unit      string   `json:"unit"`   // "requests", "tokens", "USD"
	Window    string   `json:"window"` // "1d", "billing-cycle"
}

// Percent returns the remaining share of the limit, or -1 when unknown.
func (m Metric) Percent() float64 {
	if m.Limit != nil && m.Remaining != nil && *m.Limit > 0 {
		return (*m.Remaining / *m.Limit) * 100
	}
	if m.Limit != nil && m.Used != nil && *m.Limit > 0 {
		return ((*m.Limit - *m.Used) / *m.Limit) * 100
	}
	return -1
}

// Snapshot is the uniform result handed to the presentation layer. Status and
// Message are always set; Usage is nil whenever the refresh cycle failed.
type Snapshot struct {
	AccountID string            `json:"account_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Status    Status            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Model     BillingModel      `json:"billing_model,omitempty"`
	Usage     *CombinedUsage    `json:"usage,omitempty"`
	Metrics   map[string]Metric `json:"metrics,omitempty"`
}

func NewSnapshot(accountID string) Snapshot {
	return Snapshot{
		AccountID: accountID,
		Timestamp: time.Now(),
		Status:    StatusUnknown,
		Metrics:   make(map[string]Metric),
	}
}

// NewErrorSnapshot converts err into a failed snapshot with a human-readable message.
func NewErrorSnapshot(accountID string, err error) Snapshot {
	snap := NewSnapshot(accountID)
	snap.Status = StatusError
	if KindOf(err) == KindNotAuthenticated || KindOf(err) == KindAuthRejected || KindOf(err) == KindDetectionFailure {
		snap.Status = StatusAuth
	}
	snap.Message = Describe(err)
	return snap
}

// OK reports whether the refresh cycle produced a usage record.
func (s Snapshot) OK() bool {
	return s.Usage != nil && s.Status != StatusError && s.Status != StatusAuth
}
