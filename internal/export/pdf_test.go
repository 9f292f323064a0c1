package export

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/CrateStack/internal/model"
)

func TestExportPDF_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")

	if err := ExportPDF(path, buildTestResult()); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
}

func TestExportPDF_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	result := model.PackResult{Container: model.ContainerSpec{Width: 5, Height: 5, Depth: 5}}
	if err := ExportPDF(path, result); err == nil {
		t.Fatal("expected error for empty result, got nil")
	}
}

func TestExportPDF_InvalidContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.pdf")

	result := buildTestResult()
	result.Container.Depth = 0
	if err := ExportPDF(path, result); err == nil {
		t.Fatal("expected error for invalid container, got nil")
	}
	if _, err := os.Stat(path); err == nil {
		t.Error("no file should be written for an invalid container")
	}
}

func TestExportPDF_OnlyUnplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unplaced.pdf")

	result := buildTestResult()
	result.Placements = nil
	if err := ExportPDF(path, result); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
}

func TestExportPDF_LongTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.pdf")

	// Enough rows to push the placement table over several pages.
	result := model.PackResult{Container: model.ContainerSpec{Width: 10, Height: 10, Depth: 10}}
	for i := 0; i < 100; i++ {
		it := model.Item{ID: fmt.Sprintf("u%03d", i), LengthX: 1, LengthY: 1, LengthZ: 1}
		p := model.NewPlacedItem(it, model.OrientXYZ, model.Position{X: i % 10, Y: (i / 10) % 10})
		p.Pass = model.PassTiny
		result.Placements = append(result.Placements, p)
	}

	if err := ExportPDF(path, result); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("PDF file is empty")
	}
}

func TestProjections(t *testing.T) {
	c := model.ContainerSpec{Width: 10, Height: 8, Depth: 6}
	p := model.NewPlacedItem(model.Item{ID: "x", LengthX: 2, LengthY: 3, LengthZ: 4}, model.OrientXYZ, model.Position{X: 1, Y: 2, Z: 1})

	tests := []struct {
		title              string
		u, v, du, dv, w    int
		uSize, vSize       int
	}{
		{"Front (XY)", 1, 2, 2, 3, 1, 10, 8},
		{"Top (XZ)", 1, 1, 2, 4, 3, 10, 6},
		{"Side (ZY)", 1, 2, 4, 3, 1, 6, 8},
	}

	views := projections(c)
	if len(views) != len(tests) {
		t.Fatalf("got %d projections, want %d", len(views), len(tests))
	}
	for i, tt := range tests {
		v := views[i]
		if v.title != tt.title {
			t.Errorf("view %d title = %q, want %q", i, v.title, tt.title)
		}
		if v.uSize != tt.uSize || v.vSize != tt.vSize {
			t.Errorf("%s size = %dx%d, want %dx%d", v.title, v.uSize, v.vSize, tt.uSize, tt.vSize)
		}
		u, vv, du, dv, w := v.span(p)
		if u != tt.u || vv != tt.v || du != tt.du || dv != tt.dv || w != tt.w {
			t.Errorf("%s span = (%d,%d,%d,%d,%d), want (%d,%d,%d,%d,%d)",
				v.title, u, vv, du, dv, w, tt.u, tt.v, tt.du, tt.dv, tt.w)
		}
	}
}

func TestCountByPass(t *testing.T) {
	got := countByPass(buildTestResult().Placements)
	if len(got) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(got))
	}
	if got[0].pass != model.PassLarge || got[0].count != 2 {
		t.Errorf("first = %+v, want large:2", got[0])
	}
	if got[1].pass != model.PassSmall || got[1].count != 1 {
		t.Errorf("second = %+v, want small:1", got[1])
	}

	unknown := countByPass([]model.PlacedItem{{ItemID: "q"}})
	if len(unknown) != 1 || unknown[0].pass != "unknown" {
		t.Errorf("placement without pass = %+v, want unknown:1", unknown)
	}
}
