package domain

import "time"

// Residency counter names as exposed under card<N>/power.
const (
	CounterRC6   = "rc6"
	CounterRC6p  = "rc6p"
	CounterRC6pp = "rc6pp"
)

// Device identifies the DRM card under test
type Device struct {
	Index  int    `json:"index"`
	Node   string `json:"node"`   // e.g. "/dev/dri/card0"
	Vendor string `json:"vendor"` // PCI vendor id, e.g. "0x8086"
}

// CounterReading is a single cumulative residency value in milliseconds
type CounterReading struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Value uint64 `json:"value_ms"`
}

// SampleSet holds the three RC6-family readings taken back to back.
// The reads are not atomic across files.
type SampleSet struct {
	Taken time.Time      `json:"taken"`
	RC6   CounterReading `json:"rc6"`
	RC6p  CounterReading `json:"rc6p"`
	RC6pp CounterReading `json:"rc6pp"`
}

// Readings returns the counters in a fixed rc6, rc6p, rc6pp order
func (s SampleSet) Readings() []CounterReading {
	return []CounterReading{s.RC6, s.RC6p, s.RC6pp}
}

// ActivitySample is one observation from an activity probe
type ActivitySample struct {
	Source  string `json:"source"`  // probe name: "host", "nvml", "docker"
	Subject string `json:"subject"` // what was observed (GPU UUID, container name, ...)
	Detail  string `json:"detail"`
	Busy    bool   `json:"busy"`
}
