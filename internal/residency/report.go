package residency

import (
	"time"

	"github.com/worldland/rc6check/internal/domain"
)

// Outcome is the verdict of a residency check
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeSkip Outcome = "skip"
	OutcomeFail Outcome = "fail"
)

// Delta is the change of one counter between the two samples
type Delta struct {
	Name   string `json:"name"`
	Before uint64 `json:"before_ms"`
	After  uint64 `json:"after_ms"`
	Diff   int64  `json:"diff_ms"`
}

// Report collects everything observed during one check
type Report struct {
	Outcome    Outcome                 `json:"outcome"`
	Reason     string                  `json:"reason,omitempty"`
	Device     *domain.Device          `json:"device,omitempty"`
	RC6Enable  *uint64                 `json:"rc6_enable,omitempty"`
	Before     *domain.SampleSet       `json:"before,omitempty"`
	After      *domain.SampleSet       `json:"after,omitempty"`
	Deltas     []Delta                 `json:"deltas,omitempty"`
	DiffMS     int64                   `json:"diff_ms"`
	LowMS      int64                   `json:"low_ms"`
	HighMS     int64                   `json:"high_ms"`
	Activity   []domain.ActivitySample `json:"activity,omitempty"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

// Deltas computes per-counter differences in rc6, rc6p, rc6pp order
func Deltas(before, after domain.SampleSet) []Delta {
	b := before.Readings()
	a := after.Readings()
	deltas := make([]Delta, len(b))
	for i := range b {
		deltas[i] = Delta{
			Name:   b[i].Name,
			Before: b[i].Value,
			After:  a[i].Value,
			Diff:   int64(a[i].Value) - int64(b[i].Value),
		}
	}
	return deltas
}

// Sum returns the aggregate residency difference
func Sum(deltas []Delta) int64 {
	var total int64
	for _, d := range deltas {
		total += d.Diff
	}
	return total
}
