package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/CrateStack/internal/model"
)

const (
	placementsSheet = "Placements"
	unplacedSheet   = "Unplaced"
	summarySheet    = "Summary"
)

var placementHeaders = []string{"Seq", "ID", "Label", "Width", "Height", "Depth", "X", "Y", "Z", "Orientation", "Pass", "Volume", "Weight"}

var unplacedHeaders = []string{"ID", "Label", "LengthX", "LengthY", "LengthZ", "Weight", "Outcome", "Pass"}

// ExportExcel writes a workbook with the loading sequence, the unplaced
// items and a summary sheet.
func ExportExcel(path string, result model.PackResult) error {
	if !result.Container.Valid() {
		return fmt.Errorf("invalid container %dx%dx%d", result.Container.Width, result.Container.Height, result.Container.Depth)
	}

	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it instead of leaving it empty.
	if err := f.SetSheetName("Sheet1", placementsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(unplacedSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	rows := make([][]interface{}, 0, len(result.Placements))
	for i, p := range result.Placements {
		rows = append(rows, []interface{}{
			i + 1, p.ItemID, p.Label, p.Box.Width, p.Box.Height, p.Box.Depth,
			p.Position.X, p.Position.Y, p.Position.Z, string(p.Orientation), string(p.Pass), p.Volume, p.Box.Weight,
		})
	}
	if err := writeTable(f, placementsSheet, placementHeaders, rows, bold); err != nil {
		return err
	}

	rows = rows[:0]
	for _, u := range result.Unplaced {
		rows = append(rows, []interface{}{
			u.Item.ID, u.Item.Label, u.Item.LengthX, u.Item.LengthY, u.Item.LengthZ, u.Item.Weight,
			u.Outcome.String(), string(u.Pass),
		})
	}
	if err := writeTable(f, unplacedSheet, unplacedHeaders, rows, bold); err != nil {
		return err
	}

	c := result.Container
	summary := [][]interface{}{
		{"Container Width", c.Width},
		{"Container Height", c.Height},
		{"Container Depth", c.Depth},
		{"Container Volume", c.Volume()},
		{"Items Placed", len(result.Placements)},
		{"Items Unplaced", len(result.Unplaced)},
		{"Used Volume", result.UsedVolume()},
		{"Fill Rate (%)", result.FillRate()},
		{"Total Weight", result.TotalWeight()},
	}
	if err := writeTable(f, summarySheet, []string{"Metric", "Value"}, summary, bold); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
