package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldland/rc6check/internal/domain"
	"github.com/worldland/rc6check/internal/gueststat"
	"github.com/worldland/rc6check/internal/residency"
	"github.com/worldland/rc6check/internal/sysfs"
)

func TestPrintReport_Failure(t *testing.T) {
	var buf bytes.Buffer
	enable := uint64(1)
	report := &residency.Report{
		Outcome:   residency.OutcomeFail,
		Reason:    "GPU insufficiently idle: 0ms below 2100ms",
		Device:    &domain.Device{Index: 0, Node: "/dev/dri/card0", Vendor: "0x8086"},
		RC6Enable: &enable,
		Deltas:    []residency.Delta{{Name: "rc6", Before: 10, After: 10}},
		LowMS:     2100,
		HighMS:    3900,
		Activity:  []domain.ActivitySample{{Source: "docker", Subject: "weston", Detail: "device /dev/dri/card0", Busy: true}},
	}

	NewPrinter(&buf).PrintReport(report)

	out := buf.String()
	assert.Contains(t, out, "card0 (/dev/dri/card0, vendor 0x8086)")
	assert.Contains(t, out, "0ms (expected 2100..3900ms)")
	assert.Contains(t, out, "! [docker] weston: device /dev/dri/card0")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "insufficiently idle")
}

func TestPrintReport_SkipHasNoTable(t *testing.T) {
	var buf bytes.Buffer

	NewPrinter(&buf).PrintReport(&residency.Report{Outcome: residency.OutcomeSkip, Reason: "running in simulation"})

	assert.NotContains(t, buf.String(), "Counter")
	assert.Contains(t, buf.String(), "SKIP")
}

func TestPrintCards(t *testing.T) {
	var buf bytes.Buffer

	NewPrinter(&buf).PrintCards([]sysfs.Card{{Index: 0, Path: t.TempDir(), Vendor: "0x8086"}, {Index: 1, Path: t.TempDir()}})

	out := buf.String()
	assert.Contains(t, out, "DRM cards (2)")
	assert.Contains(t, out, "card0")
	assert.Contains(t, out, "unknown")
}

func TestPrintCards_Empty(t *testing.T) {
	var buf bytes.Buffer

	NewPrinter(&buf).PrintCards(nil)

	assert.Contains(t, buf.String(), "(no cards found)")
}

func TestPrintDescriptor(t *testing.T) {
	var buf bytes.Buffer
	d := gueststat.NewDescriptor("frame stats")
	require.NoError(t, d.SetStatPPNs([]uint64{1, 2}))

	NewPrinter(&buf).PrintDescriptor(d)

	assert.Contains(t, buf.String(), "frame stats")
	assert.Contains(t, buf.String(), "0 bytes in 2/24 pages")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewPrinter(&buf).PrintJSON(&residency.Report{Outcome: residency.OutcomePass, DiffMS: 3000}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "pass", got["outcome"])
	assert.Equal(t, float64(3000), got["diff_ms"])
}
