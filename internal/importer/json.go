package importer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/piwi3910/CrateStack/internal/model"
)

//go:embed items.schema.json
var itemsSchemaJSON string

var itemsSchema = jsonschema.MustCompileString("items.schema.json", itemsSchemaJSON)

// jsonItem accepts both the lengthX/lengthY/lengthZ field names and the short
// X/Y/Z/Weight form.
type jsonItem struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	LengthX  int      `json:"lengthX"`
	LengthY  int      `json:"lengthY"`
	LengthZ  int      `json:"lengthZ"`
	X        int      `json:"X"`
	Y        int      `json:"Y"`
	Z        int      `json:"Z"`
	Weight   *float64 `json:"weight"`
	WeightUC *float64 `json:"Weight"`
	Volume   int      `json:"volume"`
	Quantity int      `json:"quantity"`
}

// ImportJSON imports items from a JSON file: either an array of item objects
// or an object with an "items" array.
func ImportJSON(path string) ImportResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	return ImportJSONFromReader(bytes.NewReader(data))
}

// ImportJSONFromReader validates the document against the item schema before
// decoding it.
func ImportJSONFromReader(r io.Reader) ImportResult {
	result := ImportResult{}

	data, err := io.ReadAll(r)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read JSON: %v", err))
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}
	if err := itemsSchema.Validate(doc); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Item list does not match schema: %v", err))
		return result
	}

	var list []jsonItem
	if _, isList := doc.([]any); isList {
		err = json.Unmarshal(data, &list)
	} else {
		var wrapped struct {
			Items []jsonItem `json:"items"`
		}
		err = json.Unmarshal(data, &wrapped)
		list = wrapped.Items
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot decode items: %v", err))
		return result
	}

	for i, ji := range list {
		items, warning := ji.toItems(i, len(result.Items))
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Items = append(result.Items, items...)
	}
	return result
}

func (ji jsonItem) toItems(index, itemCount int) ([]model.Item, string) {
	x, y, z := ji.LengthX, ji.LengthY, ji.LengthZ
	if x == 0 && y == 0 && z == 0 {
		x, y, z = ji.X, ji.Y, ji.Z
	}
	weight := 0.0
	switch {
	case ji.Weight != nil:
		weight = *ji.Weight
	case ji.WeightUC != nil:
		weight = *ji.WeightUC
	}
	label := ji.Label
	if label == "" {
		label = fmt.Sprintf("Item %d", itemCount+1)
	}

	var warning string
	if ji.Volume != 0 && ji.Volume != x*y*z {
		warning = fmt.Sprintf("Item %d: volume %d ignored, dimensions give %d", index+1, ji.Volume, x*y*z)
	}

	qty := max(ji.Quantity, 1)
	items := make([]model.Item, qty)
	for i := range items {
		items[i] = model.NewItem(label, x, y, z, weight)
		if ji.ID != "" {
			items[i].ID = ji.ID
			if qty > 1 {
				items[i].ID = fmt.Sprintf("%s-%d", ji.ID, i+1)
			}
		}
	}
	return items, warning
}
