// Package report renders run telemetry to a terminal.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/rcalvo/outbreaksim/internal/sim"
)

// Console implements sim.Reporter with styled line output.
type Console struct {
	w io.Writer

	banner  lipgloss.Style
	section lipgloss.Style
	warn    lipgloss.Style
	dim     lipgloss.Style
}

// NewConsole writes to w.
func NewConsole(w io.Writer) *Console {
	return &Console{
		w:       w,
		banner:  lipgloss.NewStyle().Bold(true),
		section: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		warn:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (c *Console) RunSeeded(country string, infected int) {
	fmt.Fprintf(c.w, "%s\n", c.banner.Render(
		fmt.Sprintf("virus seeded in %s: %d initial infections", country, infected)))
}

func (c *Console) DayStart(day int, variantIntroduced bool) {
	fmt.Fprintf(c.w, "\n%s\n", c.banner.Render(fmt.Sprintf("========== DAY %d ==========", day)))
	if variantIntroduced {
		fmt.Fprintf(c.w, "%s\n", c.warn.Render(
			"new variant detected: higher transmission, reduced vaccine protection"))
	}
}

func (c *Console) PolicyChange(ev sim.PolicyChange, previous string, first bool) {
	if first {
		fmt.Fprintf(c.w, "  %s: initial travel policy %s\n", ev.Country, ev.Policy)
		return
	}
	fmt.Fprintf(c.w, "  %s: travel policy %s -> %s\n", ev.Country, previous, ev.Policy)
}

func (c *Console) DaySummary(day int, stats []sim.CountryDayStats) {
	fmt.Fprintf(c.w, "%s\n", c.section.Render("travel"))
	for _, s := range stats {
		fmt.Fprintf(c.w, "  %-8s out: %4d  in: %4d\n", s.Name, s.Out, s.In)
	}

	fmt.Fprintf(c.w, "%s\n", c.section.Render("vaccination"))
	for _, s := range stats {
		fmt.Fprintf(c.w, "  %-8s newly vaccinated: %4d\n", s.Name, s.Vaccinated)
	}

	fmt.Fprintf(c.w, "%s\n", c.section.Render("epidemic state"))
	for _, s := range stats {
		fmt.Fprintf(c.w, "  %-8s healthy: %4d  infected: %4d  recovered: %4d  dead: %4d\n",
			s.Name, s.Healthy, s.Infected, s.Recovered, s.Dead)
	}
}

func (c *Console) RunFinished(t sim.Totals, faults uint64) {
	fmt.Fprintf(c.w, "\n%s\n", c.banner.Render("========== FINAL RESULT =========="))
	fmt.Fprintf(c.w, "  healthy:   %d\n", t.Healthy)
	fmt.Fprintf(c.w, "  infected:  %d\n", t.Infected)
	fmt.Fprintf(c.w, "  recovered: %d\n", t.Recovered)
	fmt.Fprintf(c.w, "  dead:      %d\n", t.Dead)
	if faults > 0 {
		fmt.Fprintf(c.w, "%s\n", c.warn.Render(
			fmt.Sprintf("  %d patient processing faults were caught and skipped", faults)))
	} else {
		fmt.Fprintf(c.w, "%s\n", c.dim.Render("  no processing faults"))
	}
}
