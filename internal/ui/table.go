package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const accent = lipgloss.Color("#7c3aed")

// RenderTable builds a bordered table. With color, the header row is bold
// and accented and the given highlight rows (e.g. the user's own posts) are
// tinted; without color a plain table is produced.
func RenderTable(headers []string, rows [][]string, color bool, highlight ...int) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		BorderColumn(true).
		BorderHeader(true)

	if color {
		marked := make(map[int]bool, len(highlight))
		for _, r := range highlight {
			marked[r] = true
		}

		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
		ownStyle := lipgloss.NewStyle().Foreground(accent)
		cellStyle := lipgloss.NewStyle()

		t.StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case marked[row]:
				return ownStyle
			default:
				return cellStyle
			}
		})
	}

	return t.Render()
}

// Truncate shortens s to at most n runes, ending in an ellipsis when cut.
// Newlines are flattened so a caption fits in a single table cell.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")

	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}

	if n == 1 {
		return "…"
	}

	return string(r[:n-1]) + "…"
}
