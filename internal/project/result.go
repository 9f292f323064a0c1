package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/CrateStack/internal/model"
)

// ResultDocument is the on-disk form of a packing result.
type ResultDocument struct {
	Container model.ContainerSpec `json:"container"`
	Items     []PlacementRecord   `json:"items"`
	Unplaced  []UnplacedRecord    `json:"unplaced,omitempty"`
	FillRate  float64             `json:"fillRate"`
}

// PlacementRecord carries post-rotation dimensions.
type PlacementRecord struct {
	ID            string  `json:"id,omitempty"`
	Label         string  `json:"label,omitempty"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Depth         int     `json:"depth"`
	PositionX     int     `json:"positionX"`
	PositionY     int     `json:"positionY"`
	PositionZ     int     `json:"positionZ"`
	Weight        float64 `json:"weight"`
	Volume        int     `json:"volume"`
	RotationLabel string  `json:"rotationLabel"`
	Pass          string  `json:"pass,omitempty"`
}

type UnplacedRecord struct {
	model.Item
	Outcome string `json:"outcome"`
	Pass    string `json:"pass"`
}

// NewResultDocument converts a result into its document form.
func NewResultDocument(res model.PackResult) ResultDocument {
	doc := ResultDocument{
		Container: res.Container,
		Items:     make([]PlacementRecord, len(res.Placements)),
		FillRate:  res.FillRate(),
	}
	for i, p := range res.Placements {
		doc.Items[i] = PlacementRecord{
			ID:            p.ItemID,
			Label:         p.Label,
			Width:         p.Box.Width,
			Height:        p.Box.Height,
			Depth:         p.Box.Depth,
			PositionX:     p.Position.X,
			PositionY:     p.Position.Y,
			PositionZ:     p.Position.Z,
			Weight:        p.Box.Weight,
			Volume:        p.Box.Volume(),
			RotationLabel: string(p.Orientation),
			Pass:          string(p.Pass),
		}
	}
	for _, u := range res.Unplaced {
		doc.Unplaced = append(doc.Unplaced, UnplacedRecord{Item: u.Item, Outcome: u.Outcome.String(), Pass: string(u.Pass)})
	}
	return doc
}

// Result converts the document back. Stored volumes are ignored in favour of
// the dimensions.
func (d ResultDocument) Result() (model.PackResult, error) {
	res := model.PackResult{Container: d.Container}
	for i, r := range d.Items {
		o := model.Orientation(r.RotationLabel)
		if !o.Valid() {
			return model.PackResult{}, fmt.Errorf("item %d: unknown rotation label %q", i, r.RotationLabel)
		}
		box := model.Box{Width: r.Width, Height: r.Height, Depth: r.Depth, Weight: r.Weight}
		res.Placements = append(res.Placements, model.PlacedItem{
			ItemID:      r.ID,
			Label:       r.Label,
			Box:         box,
			Position:    model.Position{X: r.PositionX, Y: r.PositionY, Z: r.PositionZ},
			Orientation: o,
			Volume:      box.Volume(),
			Pass:        model.Pass(r.Pass),
		})
	}
	for i, u := range d.Unplaced {
		out, err := model.ParseOutcome(u.Outcome)
		if err != nil {
			return model.PackResult{}, fmt.Errorf("unplaced item %d: %w", i, err)
		}
		res.Unplaced = append(res.Unplaced, model.UnplacedItem{Item: u.Item, Outcome: out, Pass: model.Pass(u.Pass)})
	}
	return res, nil
}

// SaveResult writes res as an indented JSON document.
func SaveResult(path string, res model.PackResult) error {
	data, err := json.MarshalIndent(NewResultDocument(res), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// LoadResult reads a result document written by SaveResult.
func LoadResult(path string) (model.PackResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PackResult{}, fmt.Errorf("failed to read result: %w", err)
	}
	var doc ResultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.PackResult{}, fmt.Errorf("failed to parse result: %w", err)
	}
	return doc.Result()
}
