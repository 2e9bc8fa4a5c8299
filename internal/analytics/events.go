package analytics

import "time"

// UsageEvent describes one analyzer invocation. It never carries the
// submitted text.
type UsageEvent struct {
	Command    string    `json:"command"`
	Strategy   string    `json:"strategy,omitempty"`
	FellBack   bool      `json:"fell_back,omitempty"`
	Download   bool      `json:"download,omitempty"`
	Surface    string    `json:"surface"`
	InputBytes int       `json:"input_bytes"`
	Outcome    string    `json:"outcome"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

// Outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Tracker receives usage events. Implementations must not block.
type Tracker interface {
	Track(event UsageEvent)
}

// Trackers fans an event out to several trackers.
type Trackers []Tracker

func (ts Trackers) Track(event UsageEvent) {
	for _, t := range ts {
		t.Track(event)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Track(UsageEvent) {}
