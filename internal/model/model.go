package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Position is an integer grid coordinate inside a container.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Box is a cuboid with integer extents along x (width), y (height) and z (depth).
type Box struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Depth  int     `json:"depth"`
	Weight float64 `json:"weight"`
}

// Volume returns width*height*depth.
func (b Box) Volume() int {
	return b.Width * b.Height * b.Depth
}

// Valid reports whether all extents are positive and the weight is not negative.
func (b Box) Valid() bool {
	return b.Width > 0 && b.Height > 0 && b.Depth > 0 && b.Weight >= 0
}

// LongestEdge returns the largest of the three extents.
func (b Box) LongestEdge() int {
	return max(b.Width, b.Height, b.Depth)
}

// ShortestEdge returns the smallest of the three extents.
func (b Box) ShortestEdge() int {
	return min(b.Width, b.Height, b.Depth)
}

// Compactness is min(dims)/max(dims): 1 for a cube, approaching 0 for slabs and rods.
func (b Box) Compactness() float64 {
	longest := b.LongestEdge()
	if longest == 0 {
		return 0
	}
	return float64(b.ShortestEdge()) / float64(longest)
}

func (b Box) String() string {
	return fmt.Sprintf("%dx%dx%d", b.Width, b.Height, b.Depth)
}

// Orientation labels one of the six axis permutations of a box.
// The letters name which original axis ends up on x, y and z.
type Orientation string

const (
	OrientXYZ Orientation = "XYZ"
	OrientXZY Orientation = "XZY"
	OrientZYX Orientation = "ZYX"
	OrientYXZ Orientation = "YXZ"
	OrientZXY Orientation = "ZXY"
	OrientYZX Orientation = "YZX"
)

// Orientations lists the labels in the order the scheduler evaluates them.
// Ties between equally scored orientations go to the earlier entry.
var Orientations = []Orientation{OrientXYZ, OrientXZY, OrientZYX, OrientYXZ, OrientZXY, OrientYZX}

// Valid reports whether o is one of the six known labels.
func (o Orientation) Valid() bool {
	switch o {
	case OrientXYZ, OrientXZY, OrientZYX, OrientYXZ, OrientZXY, OrientYZX:
		return true
	}
	return false
}

// Apply returns b with its extents permuted according to o. Weight is carried over.
// Unknown labels leave the box unchanged.
func (o Orientation) Apply(b Box) Box {
	w, h, d := b.Width, b.Height, b.Depth
	switch o {
	case OrientXZY:
		return Box{Width: w, Height: d, Depth: h, Weight: b.Weight}
	case OrientZYX:
		return Box{Width: d, Height: h, Depth: w, Weight: b.Weight}
	case OrientYXZ:
		return Box{Width: h, Height: w, Depth: d, Weight: b.Weight}
	case OrientZXY:
		return Box{Width: d, Height: w, Depth: h, Weight: b.Weight}
	case OrientYZX:
		return Box{Width: h, Height: d, Depth: w, Weight: b.Weight}
	default:
		return b
	}
}

// Item is one cuboid to be loaded. LengthX/Y/Z are the extents before rotation.
type Item struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	LengthX int     `json:"lengthX"`
	LengthY int     `json:"lengthY"`
	LengthZ int     `json:"lengthZ"`
	Weight  float64 `json:"weight"`
}

func NewItem(label string, x, y, z int, weight float64) Item {
	return Item{
		ID:      uuid.New().String()[:8],
		Label:   label,
		LengthX: x,
		LengthY: y,
		LengthZ: z,
		Weight:  weight,
	}
}

// Box returns the unrotated box of the item.
func (it Item) Box() Box {
	return Box{Width: it.LengthX, Height: it.LengthY, Depth: it.LengthZ, Weight: it.Weight}
}

// Volume is derived from the three lengths.
func (it Item) Volume() int {
	return it.LengthX * it.LengthY * it.LengthZ
}

// Pass names the scheduling stage that placed an item.
type Pass string

const (
	PassLarge  Pass = "large"
	PassSmall  Pass = "small"
	PassTiny   Pass = "tiny"
	PassSeeded Pass = "seeded"
	PassPolicy Pass = "policy"
)

// PlacedItem is a committed placement. It is never mutated after creation.
type PlacedItem struct {
	ItemID      string      `json:"itemId"`
	Label       string      `json:"label"`
	Box         Box         `json:"box"` // extents after rotation
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
	Volume      int         `json:"volume"`
	Pass        Pass        `json:"pass,omitempty"`
}

// NewPlacedItem builds a placement of item rotated by o at pos.
func NewPlacedItem(item Item, o Orientation, pos Position) PlacedItem {
	b := o.Apply(item.Box())
	return PlacedItem{
		ItemID:      item.ID,
		Label:       item.Label,
		Box:         b,
		Position:    pos,
		Orientation: o,
		Volume:      b.Volume(),
	}
}

// Max returns the exclusive far corner of the placement.
func (p PlacedItem) Max() Position {
	return Position{
		X: p.Position.X + p.Box.Width,
		Y: p.Position.Y + p.Box.Height,
		Z: p.Position.Z + p.Box.Depth,
	}
}

// Outcome classifies the result of trying to place one item.
type Outcome int

const (
	OutcomePlaced   Outcome = iota
	OutcomeNotFound         // no orientation produced a feasible position
	OutcomeRejected         // a position was found but failed re-validation at commit time
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlaced:
		return "placed"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range []Outcome{OutcomePlaced, OutcomeNotFound, OutcomeRejected} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// UnplacedItem records an item that did not make it into the container and why.
type UnplacedItem struct {
	Item    Item    `json:"item"`
	Outcome Outcome `json:"outcome"`
	Pass    Pass    `json:"pass"`
}

// ContainerSpec holds the fixed container extents.
type ContainerSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Depth  int `json:"depth"`
}

// Volume returns the container capacity in unit cells.
func (c ContainerSpec) Volume() int {
	return c.Width * c.Height * c.Depth
}

// MaxContainerCells caps the unit-cell count of a container so the occupancy
// bitmap stays allocatable and Width*Height*Depth cannot overflow.
const MaxContainerCells = 1 << 30

// Valid reports whether all extents are positive and the cell count is at
// most MaxContainerCells.
func (c ContainerSpec) Valid() bool {
	if c.Width <= 0 || c.Height <= 0 || c.Depth <= 0 {
		return false
	}
	return c.Width <= MaxContainerCells/c.Height/c.Depth
}

// PackResult holds the full solution of one packing run.
type PackResult struct {
	Container  ContainerSpec  `json:"container"`
	Placements []PlacedItem   `json:"placements"`
	Unplaced   []UnplacedItem `json:"unplaced"`
}

// UsedVolume returns the summed volume of all placements.
func (r PackResult) UsedVolume() int {
	total := 0
	for _, p := range r.Placements {
		total += p.Volume
	}
	return total
}

// FillRate returns the occupied share of the container in percent.
func (r PackResult) FillRate() float64 {
	v := r.Container.Volume()
	if v == 0 {
		return 0
	}
	return float64(r.UsedVolume()) / float64(v) * 100.0
}

// TotalWeight returns the summed weight of all placements.
func (r PackResult) TotalWeight() float64 {
	var total float64
	for _, p := range r.Placements {
		total += p.Box.Weight
	}
	return total
}

// Rejected returns the unplaced items whose commit was rejected.
func (r PackResult) Rejected() []UnplacedItem {
	var out []UnplacedItem
	for _, u := range r.Unplaced {
		if u.Outcome == OutcomeRejected {
			out = append(out, u)
		}
	}
	return out
}
