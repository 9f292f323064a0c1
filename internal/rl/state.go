package rl

import (
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/model"
)

// State is the coarse summary of a container the agent learns over.
type State struct {
	FillRate        float64 // percent
	Placed          int
	AverageSize     float64 // mean placed volume, 0 when empty
	Width           int
	Height          int
	Depth           int
	RemainingVolume float64
}

// StateOf derives the state of c.
func StateOf(c *engine.Container) State {
	spec := c.Spec()
	used := c.UsedVolume()
	n := c.PlacedCount()
	avg := 0.0
	if n > 0 {
		avg = float64(used) / float64(n)
	}
	return State{
		FillRate:        float64(used) / float64(spec.Volume()) * 100,
		Placed:          n,
		AverageSize:     avg,
		Width:           spec.Width,
		Height:          spec.Height,
		Depth:           spec.Depth,
		RemainingVolume: float64(spec.Volume() - used),
	}
}

// Hash fingerprints the state with real-valued fields rounded to one decimal,
// so states differing only below that precision share table entries.
func (s State) Hash() uint64 {
	buf := make([]byte, 0, 96)
	buf = appendRounded(buf, s.FillRate)
	buf = strconv.AppendInt(append(buf, '|'), int64(s.Placed), 10)
	buf = appendRounded(append(buf, '|'), s.AverageSize)
	buf = strconv.AppendInt(append(buf, '|'), int64(s.Width), 10)
	buf = strconv.AppendInt(append(buf, '|'), int64(s.Height), 10)
	buf = strconv.AppendInt(append(buf, '|'), int64(s.Depth), 10)
	buf = appendRounded(append(buf, '|'), s.RemainingVolume)
	return xxhash.Sum64(buf)
}

func appendRounded(buf []byte, v float64) []byte {
	return strconv.AppendFloat(buf, math.Round(v*10)/10, 'f', 1, 64)
}

// Action is a target position plus orientation label.
type Action struct {
	Position    model.Position
	Orientation model.Orientation
}

// DefaultAction is chosen when nothing is known about a state.
var DefaultAction = Action{Orientation: model.OrientXYZ}

func (a Action) Hash() uint64 {
	buf := make([]byte, 0, 32)
	buf = strconv.AppendInt(buf, int64(a.Position.X), 10)
	buf = strconv.AppendInt(append(buf, '|'), int64(a.Position.Y), 10)
	buf = strconv.AppendInt(append(buf, '|'), int64(a.Position.Z), 10)
	buf = append(append(buf, '|'), a.Orientation...)
	return xxhash.Sum64(buf)
}

func (a Action) String() string {
	return a.Position.String() + " " + string(a.Orientation)
}

// Key addresses one value table entry.
type Key struct {
	State  uint64
	Action uint64
}

func KeyOf(s State, a Action) Key {
	return Key{State: s.Hash(), Action: a.Hash()}
}

// actionOrder is the orientation order of the exploit scan.
var actionOrder = []model.Orientation{
	model.OrientXYZ, model.OrientXZY, model.OrientYXZ,
	model.OrientZYX, model.OrientZXY, model.OrientYZX,
}
