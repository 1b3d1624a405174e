package drm

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/worldland/rc6check/internal/domain"
	"github.com/worldland/rc6check/internal/sysfs"
)

// DefaultDevRoot holds the card device nodes
const DefaultDevRoot = "/dev/dri"

// VendorIntel is the PCI vendor id of Intel GPUs
const VendorIntel = "0x8086"

var ErrDeviceNotFound = errors.New("no DRM device found")

// Locator resolves DRM cards from sysfs and their device nodes
type Locator struct {
	SysRoot string
	DevRoot string
}

// NewLocator creates a Locator, filling in default roots
func NewLocator(sysRoot, devRoot string) *Locator {
	if sysRoot == "" {
		sysRoot = sysfs.DefaultRoot
	}
	if devRoot == "" {
		devRoot = DefaultDevRoot
	}
	return &Locator{SysRoot: sysRoot, DevRoot: devRoot}
}

// Find returns the device for card. With card == -1 the first Intel
// card is chosen, falling back to the first card of any vendor.
func (l *Locator) Find(card int) (domain.Device, error) {
	cards, err := sysfs.ListCards(l.SysRoot)
	if err != nil {
		return domain.Device{}, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}
	if len(cards) == 0 {
		return domain.Device{}, fmt.Errorf("%w under %s", ErrDeviceNotFound, l.SysRoot)
	}

	if card >= 0 {
		for _, c := range cards {
			if c.Index == card {
				return l.device(c), nil
			}
		}
		return domain.Device{}, fmt.Errorf("%w: card%d", ErrDeviceNotFound, card)
	}

	for _, c := range cards {
		if c.Vendor == VendorIntel {
			return l.device(c), nil
		}
	}
	slog.Warn("no Intel card found, using first card", "card", cards[0].Index, "vendor", cards[0].Vendor)
	return l.device(cards[0]), nil
}

// Open verifies the device node exists and can be opened, then closes it
func (l *Locator) Open(dev domain.Device) error {
	f, err := os.OpenFile(dev.Node, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dev.Node, err)
	}
	return f.Close()
}

func (l *Locator) device(c sysfs.Card) domain.Device {
	return domain.Device{
		Index:  c.Index,
		Node:   filepath.Join(l.DevRoot, fmt.Sprintf("card%d", c.Index)),
		Vendor: c.Vendor,
	}
}

// Compile-time interface check
var _ domain.DeviceLocator = (*Locator)(nil)
