package domain

import "context"

// DeviceLocator finds the card under test and confirms it can be opened
type DeviceLocator interface {
	// Find resolves a card index; -1 selects automatically
	Find(card int) (Device, error)
	// Open opens the device node and releases it immediately
	Open(dev Device) error
}

// CounterReader reads the RC6 power attributes of a card
type CounterReader interface {
	// Enabled returns the raw rc6_enable value
	Enabled(card int) (uint64, error)
	// Sample reads rc6, rc6p and rc6pp residency
	Sample(card int) (SampleSet, error)
}

// Environment reports facts about where the check is running
type Environment interface {
	Simulated() bool
	Virtualized(ctx context.Context) (bool, error)
}

// ActivityProbe reports things that may keep the GPU out of RC6
type ActivityProbe interface {
	Name() string
	Probe(ctx context.Context) ([]ActivitySample, error)
}
