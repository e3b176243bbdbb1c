package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/layerweave/pkg/bundle"
	"github.com/matzehuels/layerweave/pkg/tree"
)

// stdout receives all user-facing output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleRoot   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints graph statistics on a single line.
func printStats(vertices, edges int, cached bool) {
	var parts []string
	if vertices > 0 {
		parts = append(parts, fmt.Sprintf("%d vertices", vertices))
	}
	if edges > 0 {
		parts = append(parts, fmt.Sprintf("%d edges", edges))
	}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}
	parts = append(parts, statusStyle.Render(status))

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Fprintln(stdout, line)
}

// printBundleStats prints a bundling summary.
func printBundleStats(s bundle.Stats, cached bool) {
	printKeyValue("edges", strconv.Itoa(s.Edges))
	printKeyValue("compatible", fmt.Sprintf("%d of %d pairs", s.CompatiblePairs, s.Pairs))
	printKeyValue("cycles", strconv.Itoa(s.Loops))
	printKeyValue("waypoints", strconv.Itoa(s.Waypoints))
	if cached {
		printKeyValue("source", styleCached.Render(iconCached))
	} else {
		printKeyValue("duration", s.Duration.String())
	}
}

// =============================================================================
// Tree Display
// =============================================================================

// renderTreeTable renders the parent/child pairs of r as a table in
// visiting order. The leading (root, root) pair is included.
func renderTreeTable(r *tree.Result) string {
	rows := make([][]string, 0, len(r.Pairs))
	for i, p := range r.Pairs {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			p.Parent,
			p.Child,
			strconv.FormatFloat(p.Weight, 'g', -1, 64),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Parent", "Child", "Weight").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 1 && r.Pairs[row].Parent == r.Root:
				return styleRoot
			case col == 0 || col == 3:
				return StyleDim
			}
			return StyleValue
		})
	return t.Render()
}

// printTree prints one tree result with a heading and its pair table.
func printTree(r *tree.Result) {
	heading := fmt.Sprintf("%s · layer %d · root %s", r.Algorithm, r.Layer, r.Root)
	fmt.Fprintln(stdout, StyleTitle.Render(heading))
	if r.Len() <= 1 {
		printDetail("no edges (isolated root)")
	} else {
		fmt.Fprintln(stdout, renderTreeTable(r))
	}
	printDetail("%d vertices · total weight %s", r.Len(), strconv.FormatFloat(r.TotalWeight(), 'g', -1, 64))
	if !r.Complete() {
		printWarning("%d vertices not reached from %s", r.Unreached, r.Root)
	}
}

// joinIDs abbreviates long id lists for single-line display.
func joinIDs(ids []string, limit int) string {
	if len(ids) <= limit {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:limit], ", ") + fmt.Sprintf(" … +%d", len(ids)-limit)
}
