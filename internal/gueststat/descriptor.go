// Package gueststat describes the SVGA guest statistics instance
// descriptor: the page-aligned record a guest hands to the host so the
// host can walk the pinned pages that hold stat counters, their info
// entries and the name strings.
//
// The host never acknowledges anything back to the guest, so there is no
// compatibility contract across releases. A host that does not understand
// a layout stops logging stats; the guest keeps running.
package gueststat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	PageShift = 12
	PageSize  = 1 << PageShift
	PageMask  = ^uint64(PageSize - 1)

	// InvalidPPN64 terminates a page list shorter than its array
	InvalidPPN64 = uint64(0x000fffffffffffff)

	DescLength        = 1024
	MaxStats          = 4096
	AverageNameLength = 40

	CounterTimeSize = 24 // Counter + self cycles + total cycles
	InfoEntrySize   = 32 // name, description, flags, stat; 32-byte aligned

	MaxStatPPNs = (MaxStats*CounterTimeSize + PageSize - 1) >> PageShift
	MaxInfoPPNs = (MaxStats*InfoEntrySize + PageSize - 1) >> PageShift
	MaxStrsPPNs = (MaxStats*AverageNameLength + PageSize - 1) >> PageShift

	// LayoutVersion is stored in the reserved-must-be-zero word
	LayoutVersion = 0
)

// Flags of InfoEntry
const (
	FlagNone = 0
	FlagTime = 1 << 0
)

var (
	ErrVersionMismatch = errors.New("unknown descriptor layout version")
	ErrTooManyPages    = errors.New("page list exceeds descriptor capacity")
	ErrInvalidPPN      = errors.New("physical page number out of range")
	ErrLengthExceeds   = errors.New("section length exceeds its pages")
	ErrUnterminated    = errors.New("description is not NUL terminated")
	ErrRecordSize      = errors.New("descriptor record has wrong size")
)

// PageAlign rounds addr up to the next page boundary
func PageAlign(addr uint64) uint64 {
	return (addr + PageSize - 1) & PageMask
}

// NumPages returns the pages needed to hold size bytes
func NumPages(size uint64) uint64 {
	return PageAlign(size) >> PageShift
}

// Counter is a single event count
type Counter struct {
	Count int64
}

// CounterTime is a counter with cycle accounting
type CounterTime struct {
	Counter     Counter
	SelfCycles  int64
	TotalCycles int64
}

// InfoEntry names one stat. Name, Description and Stat hold guest
// virtual addresses interpreted relative to the descriptor's section
// start addresses.
type InfoEntry struct {
	Name        uint64
	Description uint64
	Flags       uint64
	Stat        uint64
}

// Descriptor is the instance descriptor, encoded little-endian with no padding
type Descriptor struct {
	ReservedMBZ uint64 // layout version
	StatStartVA uint64 // VA of the start of the stats section
	StrsStartVA uint64 // VA of the start of the strings section
	StatLength  uint64 // bytes
	InfoLength  uint64 // bytes
	StrsLength  uint64 // bytes
	StatPPNs    [MaxStatPPNs]uint64
	InfoPPNs    [MaxInfoPPNs]uint64
	StrsPPNs    [MaxStrsPPNs]uint64
	Description [DescLength]byte
}

// RecordSize is the encoded size of a Descriptor
var RecordSize = binary.Size(Descriptor{})

// NewDescriptor returns an empty descriptor with terminated page lists
func NewDescriptor(description string) *Descriptor {
	d := &Descriptor{}
	d.StatPPNs[0] = InvalidPPN64
	d.InfoPPNs[0] = InvalidPPN64
	d.StrsPPNs[0] = InvalidPPN64
	d.SetDescription(description)
	return d
}

// Version returns the layout version
func (d *Descriptor) Version() uint64 {
	return d.ReservedMBZ
}

func (d *Descriptor) SetStatPPNs(ppns []uint64) error { return setPPNs(d.StatPPNs[:], ppns) }
func (d *Descriptor) SetInfoPPNs(ppns []uint64) error { return setPPNs(d.InfoPPNs[:], ppns) }
func (d *Descriptor) SetStrsPPNs(ppns []uint64) error { return setPPNs(d.StrsPPNs[:], ppns) }

// UsedStatPPNs returns the stat pages up to the terminator
func (d *Descriptor) UsedStatPPNs() []uint64 { return usedPPNs(d.StatPPNs[:]) }

// UsedInfoPPNs returns the info pages up to the terminator
func (d *Descriptor) UsedInfoPPNs() []uint64 { return usedPPNs(d.InfoPPNs[:]) }

// UsedStrsPPNs returns the string pages up to the terminator
func (d *Descriptor) UsedStrsPPNs() []uint64 { return usedPPNs(d.StrsPPNs[:]) }

// SetDescription stores s, truncated so a NUL always fits
func (d *Descriptor) SetDescription(s string) {
	d.Description = [DescLength]byte{}
	copy(d.Description[:DescLength-1], s)
}

// DescriptionString returns the description up to the first NUL
func (d *Descriptor) DescriptionString() string {
	if i := bytes.IndexByte(d.Description[:], 0); i >= 0 {
		return string(d.Description[:i])
	}
	return string(d.Description[:])
}

// Validate checks version, page bounds and section lengths
func (d *Descriptor) Validate() error {
	if d.ReservedMBZ != LayoutVersion {
		return fmt.Errorf("%w: %d", ErrVersionMismatch, d.ReservedMBZ)
	}
	if bytes.IndexByte(d.Description[:], 0) < 0 {
		return ErrUnterminated
	}

	sections := []struct {
		name   string
		length uint64
		ppns   []uint64
	}{
		{"stat", d.StatLength, d.UsedStatPPNs()},
		{"info", d.InfoLength, d.UsedInfoPPNs()},
		{"strs", d.StrsLength, d.UsedStrsPPNs()},
	}
	for _, s := range sections {
		for _, ppn := range s.ppns {
			if ppn > InvalidPPN64 {
				return fmt.Errorf("%s: %w: %#x", s.name, ErrInvalidPPN, ppn)
			}
		}
		if need := NumPages(s.length); need > uint64(len(s.ppns)) {
			return fmt.Errorf("%s: %w: %d bytes need %d pages, %d present",
				s.name, ErrLengthExceeds, s.length, need, len(s.ppns))
		}
	}
	return nil
}

// MarshalBinary encodes the descriptor in its fixed little-endian layout
func (d *Descriptor) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(RecordSize)

	if err := binary.Write(buf, binary.LittleEndian, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a record of exactly RecordSize bytes
func (d *Descriptor) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrRecordSize, len(data), RecordSize)
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, d)
}

func setPPNs(dst, ppns []uint64) error {
	if len(ppns) > len(dst) {
		return fmt.Errorf("%w: %d > %d", ErrTooManyPages, len(ppns), len(dst))
	}
	for _, ppn := range ppns {
		if ppn >= InvalidPPN64 {
			return fmt.Errorf("%w: %#x", ErrInvalidPPN, ppn)
		}
	}

	n := copy(dst, ppns)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	if n < len(dst) {
		dst[n] = InvalidPPN64
	}
	return nil
}

func usedPPNs(ppns []uint64) []uint64 {
	for i, ppn := range ppns {
		if ppn == InvalidPPN64 {
			return ppns[:i]
		}
	}
	return ppns
}
