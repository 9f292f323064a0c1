package export

import (
	"fmt"
	"strings"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/CrateStack/internal/model"
)

const containerLayer = "CONTAINER"

var passColors = map[model.Pass]color.ColorNumber{
	model.PassLarge:  color.ColorNumber(1),
	model.PassSmall:  color.ColorNumber(3),
	model.PassTiny:   color.ColorNumber(4),
	model.PassSeeded: color.ColorNumber(5),
	model.PassPolicy: color.ColorNumber(6),
}

// passLayer returns the DXF layer name for placements of a pass.
func passLayer(p model.Pass) string {
	if p == "" {
		return "PASS_UNKNOWN"
	}
	return "PASS_" + strings.ToUpper(string(p))
}

// ExportDXF writes a 3-D wireframe of the container and every placed box.
// Boxes are grouped on one layer per scheduling pass.
func ExportDXF(path string, result model.PackResult) error {
	c := result.Container
	if !c.Valid() {
		return fmt.Errorf("invalid container %dx%dx%d", c.Width, c.Height, c.Depth)
	}

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(containerLayer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", containerLayer, err)
	}
	if err := wireframe(d, 0, 0, 0, float64(c.Width), float64(c.Height), float64(c.Depth)); err != nil {
		return err
	}

	layers := map[string]bool{}
	for _, p := range result.Placements {
		name := passLayer(p.Pass)
		if !layers[name] {
			col, ok := passColors[p.Pass]
			if !ok {
				col = dxf.DefaultColor
			}
			if _, err := d.AddLayer(name, col, dxf.DefaultLineType, false); err != nil {
				return fmt.Errorf("failed to add layer %s: %w", name, err)
			}
			layers[name] = true
		}
		if err := d.ChangeLayer(name); err != nil {
			return fmt.Errorf("failed to switch to layer %s: %w", name, err)
		}
		lo, hi := p.Position, p.Max()
		if err := wireframe(d, float64(lo.X), float64(lo.Y), float64(lo.Z), float64(hi.X), float64(hi.Y), float64(hi.Z)); err != nil {
			return fmt.Errorf("failed to draw item %s: %w", p.ItemID, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}

// wireframe draws the 12 edges of the axis-aligned box spanning the two corners.
func wireframe(d *drawing.Drawing, x0, y0, z0, x1, y1, z1 float64) error {
	corners := [8][3]float64{
		{x0, y0, z0}, {x1, y0, z0}, {x1, y1, z0}, {x0, y1, z0},
		{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1},
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	for _, e := range edges {
		a, b := corners[e[0]], corners[e[1]]
		if _, err := d.Line(a[0], a[1], a[2], b[0], b[1], b[2]); err != nil {
			return fmt.Errorf("failed to draw edge: %w", err)
		}
	}
	return nil
}
