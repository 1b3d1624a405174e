package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/worldland/rc6check/internal/environment"
	"github.com/worldland/rc6check/internal/gueststat"
	"github.com/worldland/rc6check/internal/residency"
	"github.com/worldland/rc6check/internal/sysfs"
)

// Printer writes human readable output
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintHeader prints a section header
func (p *Printer) PrintHeader(title string) {
	fmt.Fprintf(p.w, "\n=== %s ===\n", title)
}

// PrintField prints a labeled field
func (p *Printer) PrintField(label, value string) {
	fmt.Fprintf(p.w, "  %-14s %s\n", label+":", value)
}

// PrintEnvironment displays the preflight result
func (p *Printer) PrintEnvironment(env *environment.PreflightResult) {
	p.PrintHeader("Environment")
	p.PrintField("OS", strings.TrimSpace(env.OSId+" "+env.OSVersion))
	if env.Virtualization != "" {
		p.PrintField("Virt", env.Virtualization+" ("+env.Role+")")
	}
	if env.Simulated {
		p.PrintField("Simulation", "yes")
	}
}

// PrintReport displays a residency check report
func (p *Printer) PrintReport(r *residency.Report) {
	p.PrintHeader("RC6 Residency")
	if r.Device != nil {
		p.PrintField("Device", fmt.Sprintf("card%d (%s, vendor %s)", r.Device.Index, r.Device.Node, orUnknown(r.Device.Vendor)))
	}
	if r.RC6Enable != nil {
		p.PrintField("rc6_enable", fmt.Sprintf("%d", *r.RC6Enable))
	}

	if len(r.Deltas) > 0 {
		fmt.Fprintf(p.w, "  %-8s %12s %12s %10s\n", "Counter", "Before(ms)", "After(ms)", "Diff(ms)")
		fmt.Fprintf(p.w, "  %-8s %12s %12s %10s\n",
			strings.Repeat("-", 8), strings.Repeat("-", 12), strings.Repeat("-", 12), strings.Repeat("-", 10))
		for _, d := range r.Deltas {
			fmt.Fprintf(p.w, "  %-8s %12d %12d %10d\n", d.Name, d.Before, d.After, d.Diff)
		}
		p.PrintField("Total", fmt.Sprintf("%dms (expected %d..%dms)", r.DiffMS, r.LowMS, r.HighMS))
	}

	if len(r.Activity) > 0 {
		p.PrintHeader("Activity")
		for _, a := range r.Activity {
			mark := " "
			if a.Busy {
				mark = "!"
			}
			fmt.Fprintf(p.w, "  %s [%s] %s: %s\n", mark, a.Source, a.Subject, a.Detail)
		}
	}

	p.PrintHeader("Result")
	p.PrintField("Outcome", strings.ToUpper(string(r.Outcome)))
	if r.Reason != "" {
		p.PrintField("Reason", r.Reason)
	}
}

// PrintCards displays DRM cards in a table format
func (p *Printer) PrintCards(cards []sysfs.Card) {
	p.PrintHeader(fmt.Sprintf("DRM cards (%d)", len(cards)))

	if len(cards) == 0 {
		fmt.Fprintln(p.w, "  (no cards found)")
		return
	}

	attrs := []string{sysfs.AttrRC6Enable, sysfs.AttrRC6, sysfs.AttrRC6p, sysfs.AttrRC6pp}
	fmt.Fprintf(p.w, "  %-8s %-8s %-6s %-6s %-6s %-6s\n", "Card", "Vendor", "enable", "rc6", "rc6p", "rc6pp")
	for _, c := range cards {
		cols := make([]any, 0, len(attrs))
		for _, a := range attrs {
			cols = append(cols, yesNo(c.HasAttr(a)))
		}
		fmt.Fprintf(p.w, "  %-8s %-8s %-6s %-6s %-6s %-6s\n",
			append([]any{fmt.Sprintf("card%d", c.Index), orUnknown(c.Vendor)}, cols...)...)
	}
}

// PrintDescriptor displays a guest-stat descriptor
func (p *Printer) PrintDescriptor(d *gueststat.Descriptor) {
	p.PrintHeader("Guest stat descriptor")
	p.PrintField("Version", fmt.Sprintf("%d", d.Version()))
	p.PrintField("Description", d.DescriptionString())
	p.PrintField("Stat VA", fmt.Sprintf("%#x", d.StatStartVA))
	p.PrintField("Strings VA", fmt.Sprintf("%#x", d.StrsStartVA))
	p.PrintField("Stats", fmt.Sprintf("%d bytes in %d/%d pages", d.StatLength, len(d.UsedStatPPNs()), gueststat.MaxStatPPNs))
	p.PrintField("Info", fmt.Sprintf("%d bytes in %d/%d pages", d.InfoLength, len(d.UsedInfoPPNs()), gueststat.MaxInfoPPNs))
	p.PrintField("Strings", fmt.Sprintf("%d bytes in %d/%d pages", d.StrsLength, len(d.UsedStrsPPNs()), gueststat.MaxStrsPPNs))
}

// PrintLayout displays the fixed descriptor layout
func (p *Printer) PrintLayout() {
	p.PrintHeader("Guest stat layout")
	p.PrintField("Version", fmt.Sprintf("%d", gueststat.LayoutVersion))
	p.PrintField("Record", fmt.Sprintf("%d bytes", gueststat.RecordSize))
	p.PrintField("Page size", fmt.Sprintf("%d bytes", gueststat.PageSize))
	p.PrintField("Max stats", fmt.Sprintf("%d", gueststat.MaxStats))
	p.PrintField("Stat pages", fmt.Sprintf("%d", gueststat.MaxStatPPNs))
	p.PrintField("Info pages", fmt.Sprintf("%d", gueststat.MaxInfoPPNs))
	p.PrintField("String pages", fmt.Sprintf("%d", gueststat.MaxStrsPPNs))
}

// PrintJSON writes v as indented JSON
func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
