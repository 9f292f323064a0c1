package model

import (
	"strings"

	"github.com/google/uuid"
)

// ContainerPreset is a named, reusable container size.
type ContainerPreset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Depth  int    `json:"depth"`
	Unit   string `json:"unit,omitempty"` // length of one grid cell, informational
}

func NewContainerPreset(name string, width, height, depth int, unit string) ContainerPreset {
	return ContainerPreset{
		ID:     uuid.New().String()[:8],
		Name:   name,
		Width:  width,
		Height: height,
		Depth:  depth,
		Unit:   unit,
	}
}

// Spec returns the preset as a container spec.
func (p ContainerPreset) Spec() ContainerSpec {
	return ContainerSpec{Width: p.Width, Height: p.Height, Depth: p.Depth}
}

// Catalog holds the user's saved container presets.
type Catalog struct {
	Containers []ContainerPreset `json:"containers"`
}

// DefaultCatalog returns common container interiors. Freight containers are in
// decimetres with the door along depth.
func DefaultCatalog() Catalog {
	return Catalog{
		Containers: []ContainerPreset{
			NewContainerPreset("20ft", 23, 24, 59, "dm"),
			NewContainerPreset("40ft", 23, 24, 120, "dm"),
			NewContainerPreset("40ft-hc", 23, 27, 120, "dm"),
			NewContainerPreset("euro-pallet", 8, 18, 12, "dm"),
			NewContainerPreset("moving-box", 40, 40, 60, "cm"),
		},
	}
}

// FindByID returns a pointer to the preset with the given ID, or nil.
func (c *Catalog) FindByID(id string) *ContainerPreset {
	for i := range c.Containers {
		if c.Containers[i].ID == id {
			return &c.Containers[i]
		}
	}
	return nil
}

// FindByName returns the first preset whose name matches, ignoring case, or nil.
func (c *Catalog) FindByName(name string) *ContainerPreset {
	for i := range c.Containers {
		if strings.EqualFold(c.Containers[i].Name, name) {
			return &c.Containers[i]
		}
	}
	return nil
}

// Names lists the preset names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Containers))
	for i, p := range c.Containers {
		names[i] = p.Name
	}
	return names
}

// Merge appends presets from other whose ID is not already present.
func (c *Catalog) Merge(other Catalog) int {
	ids := make(map[string]bool, len(c.Containers))
	for _, p := range c.Containers {
		ids[p.ID] = true
	}
	added := 0
	for _, p := range other.Containers {
		if ids[p.ID] {
			continue
		}
		c.Containers = append(c.Containers, p)
		ids[p.ID] = true
		added++
	}
	return added
}
