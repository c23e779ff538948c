// Package formatter renders punch reports for the terminal.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/simmons/punch/engine"
	"github.com/simmons/punch/tracker"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Formatter renders with colors and borders when Styled, plain text
// otherwise (pipes, files, CI logs).
type Formatter struct {
	Styled bool
}

func (f Formatter) style(fg lipgloss.Color, bold bool) lipgloss.Style {
	if !f.Styled {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(fg).Bold(bold)
}

func (f Formatter) header() lipgloss.Style { return f.style(ColorHeader, true) }
func (f Formatter) dim() lipgloss.Style    { return f.style(ColorDim, false) }

// =============================================================================
// REPORT
// =============================================================================

// Report renders a summary: days, weeks, anomalies, recent events and the
// expected next punch.
func (f Formatter) Report(s *tracker.Summary) string {
	var b strings.Builder

	b.WriteString(f.header().Render(fmt.Sprintf("%s (%s)", s.Project.Name, s.Location)))
	b.WriteString("\n")
	b.WriteString(f.Next(s.Report.NextDirection))
	b.WriteString("\n\n")

	dayRows := make([][]string, 0, len(s.Report.Days))
	for _, d := range s.Report.Days {
		dayRows = append(dayRows, append(
			[]string{d.Day.String(), d.Day.Weekday().String()[:3]},
			f.workTime(d.WorkTime)...))
	}
	b.WriteString(f.box("Days", f.Table([]string{"DATE", "DAY", "GROSS", "NET"}, dayRows)))
	b.WriteString("\n")

	weekRows := make([][]string, 0, len(s.Report.Weeks))
	for _, w := range s.Report.Weeks {
		_, iso := w.Start.ISOWeek()
		weekRows = append(weekRows, append(
			[]string{w.Start.String(), fmt.Sprintf("W%02d", iso)},
			f.workTime(w.WorkTime)...))
	}
	b.WriteString(f.box("Weeks", f.Table([]string{"WEEK OF", "ISO", "GROSS", "NET"}, weekRows)))
	b.WriteString("\n")

	if len(s.Anomalies) > 0 {
		warn := f.style(ColorYellow, true)
		for _, a := range s.Anomalies {
			b.WriteString(warn.Render("! "+string(a.Kind)) + " " +
				a.Event.At.In(s.Location).Format("2006-01-02 15:04") + "\n")
		}
		b.WriteString("\n")
	}

	if len(s.RecentEvents) > 0 {
		b.WriteString(f.header().Render("Recent events"))
		b.WriteString("\n")
		for _, ev := range s.RecentEvents {
			b.WriteString(f.Event(ev, s.Location))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (f Formatter) workTime(wt engine.WorkTime) []string {
	if wt.IsZero() {
		return []string{f.dim().Render(engine.FormatElapsed(0)), f.dim().Render(engine.FormatElapsed(0))}
	}
	return []string{engine.FormatElapsed(wt.Gross), f.style(ColorGreen, false).Render(engine.FormatElapsed(wt.Net))}
}

// Next renders the punch the log expects next.
func (f Formatter) Next(dir engine.Direction) string {
	if dir == engine.DirectionOut {
		return "Punched in. Next: " + f.style(ColorRed, true).Render("out")
	}
	return "Punched out. Next: " + f.style(ColorGreen, true).Render("in")
}

// Event renders one event on a line.
func (f Formatter) Event(ev engine.PunchEvent, loc *time.Location) string {
	line := fmt.Sprintf("%s  %-4s", ev.At.In(loc).Format("2006-01-02 15:04:05"), ev.Kind)
	if ev.Note != "" {
		line += "  " + ev.Note
	}
	return line
}

func (f Formatter) box(title, content string) string {
	if !f.Styled {
		return strings.ToUpper(title) + "\n" + content
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(1).
		PaddingRight(1).
		Render(f.header().Render(strings.ToUpper(title))+"\n"+strings.TrimRight(content, "\n")) + "\n"
}

// =============================================================================
// TABLE
// =============================================================================

// Table renders an aligned table with a header separator line. Widths are
// measured on visible text, so styled cells line up.
func (f Formatter) Table(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	const colGap = 2

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style(cell))
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return f.header().Render(s) })
	for i, w := range widths {
		b.WriteString(f.dim().Render(strings.Repeat("─", w)))
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}
