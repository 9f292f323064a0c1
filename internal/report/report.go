// Package report renders packing, comparison and training results for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/model"
	"github.com/piwi3910/CrateStack/internal/rl"
)

// maxListed caps how many unplaced items are printed before summarising the rest.
const maxListed = 10

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

// Result renders the headline figures of a packing run and lists what did not fit.
func Result(r model.PackResult) string {
	c := r.Container
	fields := []string{
		field("Container", fmt.Sprintf("%d x %d x %d", c.Width, c.Height, c.Depth)),
		field("Placed", fmt.Sprintf("%d", len(r.Placements))),
		field("Unplaced", fmt.Sprintf("%d", len(r.Unplaced))),
		field("Used volume", fmt.Sprintf("%d / %d", r.UsedVolume(), c.Volume())),
		field("Fill rate", fmt.Sprintf("%.2f%%", r.FillRate())),
		field("Total weight", fmt.Sprintf("%.1f", r.TotalWeight())),
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("PACKING RESULT"))
	b.WriteString("\n")
	b.WriteString(cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, fields...)))
	b.WriteString("\n")

	if len(r.Unplaced) > 0 {
		b.WriteString(dangerStyle.Render(fmt.Sprintf("%d item(s) not placed", len(r.Unplaced))))
		b.WriteString("\n")
		for i, u := range r.Unplaced {
			if i == maxListed {
				b.WriteString(warningStyle.Render(fmt.Sprintf("  ... and %d more", len(r.Unplaced)-maxListed)))
				b.WriteString("\n")
				break
			}
			b.WriteString(warningStyle.Render(fmt.Sprintf("  %s %s %s: %s (%s pass)",
				u.Item.ID, u.Item.Label, u.Item.Box(), u.Outcome, u.Pass)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// table lays out rows as padded columns; the row at index best is highlighted.
func table(headers []string, rows [][]string, best int) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, v := range row {
			widths[i] = max(widths[i], lipgloss.Width(v))
		}
	}

	render := func(style lipgloss.Style, row []string) string {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = style.Width(widths[i] + 2).Render(v)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	}

	lines := []string{render(headerCell, headers)}
	for i, row := range rows {
		style := cell
		if i == best {
			style = bestCell
		}
		lines = append(lines, render(style, row))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// BestComparison returns the index of the highest fill rate, earliest on ties, or -1.
func BestComparison(results []engine.ComparisonResult) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.FillRate > results[best].FillRate {
			best = i
		}
	}
	return best
}

// Comparison renders one row per scenario and highlights the best fill rate.
func Comparison(results []engine.ComparisonResult) string {
	if len(results) == 0 {
		return warningStyle.Render("no scenarios compared") + "\n"
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Scenario.Name,
			string(r.Scenario.Settings.Algorithm),
			fmt.Sprintf("%d", r.PlacedCount),
			fmt.Sprintf("%d", r.UnplacedCount),
			fmt.Sprintf("%.2f%%", r.FillRate),
		})
	}

	best := BestComparison(results)
	var b strings.Builder
	b.WriteString(titleStyle.Render("SCENARIO COMPARISON"))
	b.WriteString("\n")
	b.WriteString(table([]string{"Scenario", "Algorithm", "Placed", "Unplaced", "Fill"}, rows, best))
	b.WriteString("\n\n")
	b.WriteString(field("Best", results[best].Scenario.Name))
	b.WriteString("\n")
	return b.String()
}

// Training renders the outcome of a training run.
func Training(r rl.TrainResult) string {
	fields := []string{
		field("Episodes", fmt.Sprintf("%d", r.Episodes)),
		field("Best episode", fmt.Sprintf("%d", r.Best.Number)),
		field("Best fill", fmt.Sprintf("%.2f%%", r.Best.FillRate)),
		field("Best placed", fmt.Sprintf("%d", r.Best.Placed)),
		field("Actions", fmt.Sprintf("%d", r.Stats.ActionsTaken)),
		field("Success rate", fmt.Sprintf("%.1f%%", r.Stats.SuccessRate*100)),
		field("Avg reward", fmt.Sprintf("%.2f", r.Stats.LearningScore)),
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("TRAINING"))
	b.WriteString("\n")
	b.WriteString(cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, fields...)))
	b.WriteString("\n")
	return b.String()
}

// Catalog lists container presets with their sizes.
func Catalog(cat model.Catalog) string {
	if len(cat.Containers) == 0 {
		return warningStyle.Render("no container presets") + "\n"
	}
	rows := make([][]string, 0, len(cat.Containers))
	for _, p := range cat.Containers {
		rows = append(rows, []string{
			p.Name,
			fmt.Sprintf("%d x %d x %d", p.Width, p.Height, p.Depth),
			p.Unit,
			fmt.Sprintf("%d", p.Spec().Volume()),
			p.ID,
		})
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("CONTAINERS"))
	b.WriteString("\n")
	b.WriteString(table([]string{"Name", "W x H x D", "Unit", "Cells", "ID"}, rows, -1))
	b.WriteString("\n")
	return b.String()
}
