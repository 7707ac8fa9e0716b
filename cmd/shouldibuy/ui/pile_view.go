package ui

import (
	"sort"
	"strings"

	"shouldibuy/internal/pile"

	"github.com/charmbracelet/lipgloss"
)

const bagGlyph = "💰"

// RenderPile draws the bags as two stacks, left and right of the centre
// line, growing upward. Front layers come first in each row.
func RenderPile(tokens []pile.TokenView, width int, s Styles) string {
	if len(tokens) == 0 {
		return s.PileBox.Render(s.Muted.Render("no bags"))
	}

	// A bag is two cells wide.
	perRow := (width/2 - 4) / 2
	if perRow < 1 {
		perRow = 1
	}

	var left, right []pile.TokenView
	for _, t := range tokens {
		if t.Side == pile.SideRight {
			right = append(right, t)
		} else {
			left = append(left, t)
		}
	}
	leftRows := stackRows(left, perRow, s)
	rightRows := stackRows(right, perRow, s)

	rows := max(len(leftRows), len(rightRows))
	lines := make([]string, 0, rows)
	// Bottom row last so the pile grows upward.
	for i := rows - 1; i >= 0; i-- {
		l, r := "", ""
		if i < len(leftRows) {
			l = leftRows[i]
		}
		if i < len(rightRows) {
			r = rightRows[i]
		}
		l = lipgloss.PlaceHorizontal(perRow*2, lipgloss.Right, l)
		r = lipgloss.PlaceHorizontal(perRow*2, lipgloss.Left, r)
		lines = append(lines, l+"│"+r)
	}
	return s.PileBox.Render(strings.Join(lines, "\n"))
}

// stackRows orders one side front to back and chunks it into rows,
// bottom row first.
func stackRows(tokens []pile.TokenView, perRow int, s Styles) []string {
	sorted := append([]pile.TokenView(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Layer != sorted[j].Layer {
			return sorted[i].Layer > sorted[j].Layer
		}
		return sorted[i].ID < sorted[j].ID
	})

	var rows []string
	for start := 0; start < len(sorted); start += perRow {
		end := min(start+perRow, len(sorted))
		var b strings.Builder
		for _, t := range sorted[start:end] {
			b.WriteString(renderBag(t, s))
		}
		rows = append(rows, b.String())
	}
	return rows
}

func renderBag(t pile.TokenView, s Styles) string {
	switch t.State {
	case pile.StateEntering:
		return s.BagEntering.Render(bagGlyph)
	case pile.StateExiting:
		return s.BagExiting.Render(bagGlyph)
	default:
		return bagGlyph
	}
}
