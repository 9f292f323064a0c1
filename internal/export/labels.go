package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/CrateStack/internal/model"
)

// LabelInfo is the payload encoded into each item label's QR code.
type LabelInfo struct {
	Seq         int               `json:"seq"`
	ItemID      string            `json:"id"`
	Label       string            `json:"label"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Depth       int               `json:"depth"`
	X           int               `json:"x"`
	Y           int               `json:"y"`
	Z           int               `json:"z"`
	Orientation model.Orientation `json:"orientation"`
	Pass        model.Pass        `json:"pass,omitempty"`
}

// Avery 5160 sheet: 3 columns x 10 rows on US Letter.
const (
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
)

// ExportLabels writes one QR-coded label per placed item, in placement order.
// Labels are stuck on the physical boxes so loaders can scan where each one goes.
func ExportLabels(path string, result model.PackResult) error {
	labels := CollectLabelInfos(result)
	if len(labels) == 0 {
		return fmt.Errorf("no placed items to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		slot := i % labelsPerPage
		x := labelMarginLeft + float64(slot%labelCols)*labelWidth
		y := labelMarginTop + float64(slot/labelCols)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.ItemID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	// Item ids are not guaranteed unique across imports, the sequence number is.
	imgName := fmt.Sprintf("qr_%d", info.Seq)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, fmt.Sprintf("#%d %s", info.Seq, displayName(info)), textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%d x %d x %d", info.Width, info.Height, info.Depth), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("at (%d, %d, %d)", info.X, info.Y, info.Z), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+12.5)
	pdf.SetFont("Helvetica", "I", 6)
	if info.Orientation != model.OrientXYZ {
		pdf.SetTextColor(150, 100, 0)
	}
	pdf.CellFormat(textW, 3, fmt.Sprintf("%s  %s", info.Orientation, info.Pass), "", 0, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

func displayName(info LabelInfo) string {
	if info.Label != "" {
		return info.Label
	}
	return info.ItemID
}

func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos returns the label payloads for every placement, numbered from 1.
func CollectLabelInfos(result model.PackResult) []LabelInfo {
	labels := make([]LabelInfo, 0, len(result.Placements))
	for i, p := range result.Placements {
		labels = append(labels, LabelInfo{
			Seq:         i + 1,
			ItemID:      p.ItemID,
			Label:       p.Label,
			Width:       p.Box.Width,
			Height:      p.Box.Height,
			Depth:       p.Box.Depth,
			X:           p.Position.X,
			Y:           p.Position.Y,
			Z:           p.Position.Z,
			Orientation: p.Orientation,
			Pass:        p.Pass,
		})
	}
	return labels
}
