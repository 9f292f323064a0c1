// Package export writes packing results to PDF, Excel and DXF files.
package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/CrateStack/internal/model"
)

type itemColor struct {
	R, G, B int
}

var itemColors = []itemColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// A4 landscape, mm.
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	rowHeight    = 6.0
)

// projection describes one orthographic view of the container.
// u is drawn to the right, v upwards, and w points away from the viewer.
type projection struct {
	title string
	uAxis string
	vAxis string
	uSize int
	vSize int
	// span returns (u, v, du, dv, w) for a placement.
	span func(p model.PlacedItem) (int, int, int, int, int)
}

func projections(c model.ContainerSpec) []projection {
	return []projection{
		{
			title: "Front (XY)", uAxis: "x", vAxis: "y", uSize: c.Width, vSize: c.Height,
			span: func(p model.PlacedItem) (int, int, int, int, int) {
				return p.Position.X, p.Position.Y, p.Box.Width, p.Box.Height, p.Position.Z
			},
		},
		{
			title: "Top (XZ)", uAxis: "x", vAxis: "z", uSize: c.Width, vSize: c.Depth,
			span: func(p model.PlacedItem) (int, int, int, int, int) {
				return p.Position.X, p.Position.Z, p.Box.Width, p.Box.Depth, c.Height - p.Max().Y
			},
		},
		{
			title: "Side (ZY)", uAxis: "z", vAxis: "y", uSize: c.Depth, vSize: c.Height,
			span: func(p model.PlacedItem) (int, int, int, int, int) {
				return p.Position.Z, p.Position.Y, p.Box.Depth, p.Box.Height, p.Position.X
			},
		},
	}
}

// ExportPDF writes a loading report: a page with the three orthographic
// projections, the placement table, and a summary with the unplaced items.
func ExportPDF(path string, result model.PackResult) error {
	if !result.Container.Valid() {
		return fmt.Errorf("invalid container %dx%dx%d", result.Container.Width, result.Container.Height, result.Container.Depth)
	}
	if len(result.Placements) == 0 && len(result.Unplaced) == 0 {
		return fmt.Errorf("nothing to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderProjectionPage(pdf, result)

	renderPlacementTable(pdf, result.Placements)

	pdf.AddPage()
	renderSummaryPage(pdf, result)

	return pdf.OutputFileAndClose(path)
}

func renderProjectionPage(pdf *fpdf.Fpdf, result model.PackResult) {
	c := result.Container

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Container %d x %d x %d", c.Width, c.Height, c.Depth)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Items: %d | Used volume: %d / %d | Fill rate: %.1f%% | Unplaced: %d",
		len(result.Placements), result.UsedVolume(), c.Volume(), result.FillRate(), len(result.Unplaced))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	views := projections(c)
	gap := 10.0
	cellW := (pageWidth - marginLeft - marginRight - gap*float64(len(views)-1)) / float64(len(views))
	cellH := pageHeight - drawAreaTop - marginBottom - 10

	for i, v := range views {
		x := marginLeft + float64(i)*(cellW+gap)
		drawProjection(pdf, v, result.Placements, x, drawAreaTop, cellW, cellH)
	}
}

// drawProjection paints the placements of one view far-to-near so nearer
// boxes cover the ones behind them.
func drawProjection(pdf *fpdf.Fpdf, v projection, placements []model.PlacedItem, x, y, w, h float64) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x, y)
	pdf.CellFormat(w, 5, v.title, "", 0, "C", false, 0, "")

	top := y + 7
	avail := h - 14
	scale := math.Min(w/float64(v.uSize), avail/float64(v.vSize))
	canvasW := float64(v.uSize) * scale
	canvasH := float64(v.vSize) * scale
	ox := x + (w-canvasW)/2
	oy := top

	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(ox, oy, canvasW, canvasH, "FD")

	order := make([]int, len(placements))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		_, _, _, _, wa := v.span(placements[order[a]])
		_, _, _, _, wb := v.span(placements[order[b]])
		return wa > wb
	})

	pdf.SetLineWidth(0.2)
	for _, idx := range order {
		u, vv, du, dv, _ := v.span(placements[idx])
		col := itemColors[idx%len(itemColors)]
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		// v grows upwards, the page grows downwards.
		pdf.Rect(ox+float64(u)*scale, oy+canvasH-float64(vv+dv)*scale, float64(du)*scale, float64(dv)*scale, "FD")
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	uLabel := fmt.Sprintf("%s: %d", v.uAxis, v.uSize)
	uw := pdf.GetStringWidth(uLabel)
	pdf.SetXY(ox+(canvasW-uw)/2, oy+canvasH+1)
	pdf.CellFormat(uw, 4, uLabel, "", 0, "C", false, 0, "")

	vLabel := fmt.Sprintf("%s: %d", v.vAxis, v.vSize)
	pdf.TransformBegin()
	pdf.TransformRotate(90, ox-3, oy+canvasH/2)
	vw := pdf.GetStringWidth(vLabel)
	pdf.SetXY(ox-3-vw/2, oy+canvasH/2-2)
	pdf.CellFormat(vw, 4, vLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

var tableColumns = []struct {
	header string
	width  float64
}{
	{"#", 12}, {"Item", 30}, {"Label", 55}, {"Box (WxHxD)", 40}, {"Position", 40},
	{"Orientation", 28}, {"Pass", 25}, {"Volume", 37},
}

func tableRow(seq int, p model.PlacedItem) []string {
	return []string{
		fmt.Sprintf("%d", seq),
		p.ItemID,
		p.Label,
		p.Box.String(),
		p.Position.String(),
		string(p.Orientation),
		string(p.Pass),
		fmt.Sprintf("%d", p.Volume),
	}
}

// renderPlacementTable lists placements in commit order, which is the loading sequence.
func renderPlacementTable(pdf *fpdf.Fpdf, placements []model.PlacedItem) {
	if len(placements) == 0 {
		return
	}

	var y float64
	header := func() {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetXY(marginLeft, marginTop)
		pdf.CellFormat(100, headerHeight, "Loading Sequence", "", 0, "L", false, 0, "")
		y = marginTop + headerHeight + 2

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		x := marginLeft
		for _, col := range tableColumns {
			pdf.SetXY(x, y)
			pdf.CellFormat(col.width, rowHeight, col.header, "1", 0, "C", true, 0, "")
			x += col.width
		}
		y += rowHeight
		pdf.SetFont("Helvetica", "", 9)
	}

	header()
	for i, p := range placements {
		if y+rowHeight > pageHeight-marginBottom {
			header()
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		x := marginLeft
		for j, cell := range tableRow(i+1, p) {
			pdf.SetXY(x, y)
			pdf.CellFormat(tableColumns[j].width, rowHeight, cell, "1", 0, "C", true, 0, "")
			x += tableColumns[j].width
		}
		y += rowHeight
	}
}

func renderSummaryPage(pdf *fpdf.Fpdf, result model.PackResult) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Packing Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	c := result.Container
	summary := []struct {
		label string
		value string
	}{
		{"Container", fmt.Sprintf("%d x %d x %d", c.Width, c.Height, c.Depth)},
		{"Items Placed", fmt.Sprintf("%d", len(result.Placements))},
		{"Items Unplaced", fmt.Sprintf("%d", len(result.Unplaced))},
		{"Used Volume", fmt.Sprintf("%d / %d", result.UsedVolume(), c.Volume())},
		{"Fill Rate", fmt.Sprintf("%.1f%%", result.FillRate())},
		{"Total Weight", fmt.Sprintf("%.1f", result.TotalWeight())},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summary {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Placements by Pass", "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "", 10)
	for _, pc := range countByPass(result.Placements) {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, string(pc.pass)+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", pc.count), "", 0, "L", false, 0, "")
		y += 7
	}

	if len(result.Unplaced) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Unplaced Items", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, u := range result.Unplaced {
			if y > pageHeight-marginBottom-10 {
				pdf.SetXY(marginLeft+5, y)
				pdf.CellFormat(200, 5, "...", "", 0, "L", false, 0, "")
				break
			}
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s %s: %s (%s, %s)", u.Item.ID, u.Item.Label, u.Item.Box(), u.Outcome, u.Pass)
			pdf.CellFormat(250, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by CrateStack", "", 0, "C", false, 0, "")
}

type passCount struct {
	pass  model.Pass
	count int
}

// countByPass tallies placements per pass in first-seen order.
func countByPass(placements []model.PlacedItem) []passCount {
	var out []passCount
	index := map[model.Pass]int{}
	for _, p := range placements {
		pass := p.Pass
		if pass == "" {
			pass = "unknown"
		}
		i, ok := index[pass]
		if !ok {
			i = len(out)
			index[pass] = i
			out = append(out, passCount{pass: pass})
		}
		out[i].count++
	}
	return out
}
