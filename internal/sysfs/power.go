package sysfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/worldland/rc6check/internal/domain"
)

// DefaultRoot is where the kernel exposes DRM cards
const DefaultRoot = "/sys/class/drm"

// Power attribute file names under card<N>/power
const (
	AttrRC6Enable = "rc6_enable"
	AttrRC6       = "rc6_residency_ms"
	AttrRC6p      = "rc6p_residency_ms"
	AttrRC6pp     = "rc6pp_residency_ms"
)

var ErrMalformedCounter = errors.New("counter is not a single unsigned integer")

// PowerDir returns the power attribute directory of a card
func PowerDir(root string, card int) string {
	return filepath.Join(root, fmt.Sprintf("card%d", card), "power")
}

// ReadUint opens path, reads one decimal unsigned integer and closes it.
// Surrounding whitespace is ignored.
func ReadUint(path string) (uint64, error) {
	// os.ReadFile closes the handle before returning
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("couldn't open %s: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" || strings.ContainsAny(text, " \t\n") {
		return 0, fmt.Errorf("%s: %q: %w", path, text, ErrMalformedCounter)
	}

	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q: %w", path, text, ErrMalformedCounter)
	}
	return v, nil
}

// Source reads RC6 attributes from a sysfs tree
type Source struct {
	Root string
	now  func() time.Time
}

// NewSource creates a Source rooted at root (DefaultRoot when empty)
func NewSource(root string) *Source {
	if root == "" {
		root = DefaultRoot
	}
	return &Source{Root: root, now: time.Now}
}

// Enabled returns the raw rc6_enable value of a card
func (s *Source) Enabled(card int) (uint64, error) {
	return ReadUint(filepath.Join(PowerDir(s.Root, card), AttrRC6Enable))
}

// Sample reads rc6, rc6p and rc6pp in that order, stopping at the first error
func (s *Source) Sample(card int) (domain.SampleSet, error) {
	dir := PowerDir(s.Root, card)
	set := domain.SampleSet{Taken: s.now()}

	targets := []struct {
		name string
		attr string
		dst  *domain.CounterReading
	}{
		{domain.CounterRC6, AttrRC6, &set.RC6},
		{domain.CounterRC6p, AttrRC6p, &set.RC6p},
		{domain.CounterRC6pp, AttrRC6pp, &set.RC6pp},
	}

	for _, t := range targets {
		path := filepath.Join(dir, t.attr)
		v, err := ReadUint(path)
		if err != nil {
			return domain.SampleSet{}, err
		}
		*t.dst = domain.CounterReading{Name: t.name, Path: path, Value: v}
	}
	return set, nil
}

// Compile-time interface check
var _ domain.CounterReader = (*Source)(nil)
