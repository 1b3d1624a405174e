package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var cardName = regexp.MustCompile(`^card([0-9]+)$`)

// Card is one DRM card directory, connectors excluded
type Card struct {
	Index  int    `json:"index"`
	Path   string `json:"path"`
	Vendor string `json:"vendor,omitempty"` // empty when device/vendor is unreadable
}

// HasAttr reports whether a power attribute file exists for the card
func (c Card) HasAttr(attr string) bool {
	_, err := os.Stat(filepath.Join(c.Path, "power", attr))
	return err == nil
}

// ListCards returns the card<N> entries under root sorted by index
func ListCards(root string) ([]Card, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	var cards []Card
	for _, e := range entries {
		m := cardName.FindStringSubmatch(e.Name())
		if m == nil {
			continue // card0-HDMI-A-1, renderD128, version, ...
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		path := filepath.Join(root, e.Name())
		vendor := ""
		if data, err := os.ReadFile(filepath.Join(path, "device", "vendor")); err == nil {
			vendor = strings.TrimSpace(string(data))
		}

		cards = append(cards, Card{Index: idx, Path: path, Vendor: vendor})
	}

	sort.Slice(cards, func(i, j int) bool { return cards[i].Index < cards[j].Index })
	return cards, nil
}
