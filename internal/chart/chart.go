package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gyaneshwarpardhi/activity/internal/event"
	"github.com/gyaneshwarpardhi/activity/internal/report"
)

var (
	palette = []lipgloss.Color{
		lipgloss.Color("#8BE9FD"), // cyan
		lipgloss.Color("#6272A4"), // gray
		lipgloss.Color("#50FA7B"), // green
		lipgloss.Color("#FFB86C"), // orange
		lipgloss.Color("#FF79C6"), // magenta
		lipgloss.Color("#F1FA8C"), // yellow
		lipgloss.Color("#BD93F9"), // purple
		lipgloss.Color("#FF5555"), // red
		lipgloss.Color("#F8F8F2"), // white
	}

	// plainGlyphs tell segments apart when colors are off.
	plainGlyphs = []rune{'█', '▓', '▒', '░', '#', '=', '+', '*', '%', '@'}

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BE9FD"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6")).Bold(true)
	capStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
)

// Options control rendering.
type Options struct {
	Width int  // bar width in cells for a full cap, default 56
	Plain bool // no ANSI styling; segments use distinct glyphs
}

// Render draws one stacked horizontal bar per date for every user in the
// report, a cap marker, a legend, and a per-category hours table.
//
//	Stacked activity for andrea (daily cap 7.0h)
//	2024-05-06 ████████████████████████████████████████▒▒│ 7.00h
//	2024-05-07 ██████████▓▓▓▓                           │ 2.50h
func Render(rep *report.Report, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = 56
	}
	var sb strings.Builder
	for i, user := range rep.UserIDs() {
		if i > 0 {
			sb.WriteString("\n")
		}
		renderUser(&sb, rep, user, opts)
	}
	if rep.Empty() {
		sb.WriteString(style(opts, dimStyle, "no activity"))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderUser(sb *strings.Builder, rep *report.Report, user string, opts Options) {
	dates := rep.Dates(user)
	if len(dates) == 0 {
		return
	}
	title := fmt.Sprintf("Stacked activity for %s (daily cap %.1fh)", user, rep.CapHours)
	sb.WriteString(style(opts, titleStyle, title))
	sb.WriteString("\n\n")

	for _, d := range dates {
		sb.WriteString(d.String())
		sb.WriteString(" ")
		bar, total := stackedBar(rep, user, d, opts)
		sb.WriteString(pad(bar, opts.Width))
		sb.WriteString(style(opts, capStyle, "│"))
		sb.WriteString(style(opts, dimStyle, fmt.Sprintf(" %.2fh", total)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	legend := make([]string, 0, len(rep.Categories))
	for i, c := range rep.Categories {
		legend = append(legend, segment(opts, i, 1)+" "+string(c))
	}
	sb.WriteString(style(opts, dimStyle, "Legend: "))
	sb.WriteString(strings.Join(legend, "  "))
	sb.WriteString("\n\n")

	renderTable(sb, rep, user, dates, opts)
}

// stackedBar converts each category's share of the cap into cells.
// Boundaries are rounded cumulatively so the bar length tracks the total.
func stackedBar(rep *report.Report, user string, d event.Date, opts Options) (string, float64) {
	var (
		sb       strings.Builder
		cum      float64
		prevEdge int
	)
	for i, c := range rep.Categories {
		h := rep.Hours(user, d, c)
		if h <= 0 {
			continue
		}
		cum += h
		edge := cells(cum, rep.CapHours, opts.Width)
		if n := edge - prevEdge; n > 0 {
			sb.WriteString(segment(opts, i, n))
		}
		prevEdge = edge
	}
	return sb.String(), cum
}

func cells(hours, capHours float64, width int) int {
	if capHours <= 0 {
		return 0
	}
	n := int(math.Round(hours / capHours * float64(width)))
	return min(max(n, 0), width)
}

func renderTable(sb *strings.Builder, rep *report.Report, user string, dates []event.Date, opts Options) {
	widths := make([]int, len(rep.Categories))
	header := []string{pad("date", 10)}
	for i, c := range rep.Categories {
		widths[i] = max(lipgloss.Width(string(c)), 5)
		header = append(header, pad(string(c), widths[i]))
	}
	sb.WriteString(style(opts, headerStyle, strings.Join(header, "  ")))
	sb.WriteString("\n")

	for _, d := range dates {
		row := []string{d.String()}
		for i, c := range rep.Categories {
			row = append(row, pad(fmt.Sprintf("%.2f", rep.Hours(user, d, c)), widths[i]))
		}
		sb.WriteString(strings.TrimRight(strings.Join(row, "  "), " "))
		sb.WriteString("\n")
	}
}

func segment(opts Options, idx, n int) string {
	if opts.Plain {
		return strings.Repeat(string(plainGlyphs[idx%len(plainGlyphs)]), n)
	}
	s := lipgloss.NewStyle().Foreground(palette[idx%len(palette)])
	return s.Render(strings.Repeat("█", n))
}

func style(opts Options, s lipgloss.Style, text string) string {
	if opts.Plain {
		return text
	}
	return s.Render(text)
}

// pad right-fills s with spaces to w visible cells; ANSI codes don't count.
func pad(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
