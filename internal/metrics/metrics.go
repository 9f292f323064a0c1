package metrics

import "time"

// Sink receives packing and training events.
type Sink interface {
	RecordPlacement(pass, outcome string)
	RecordSearch(pass string, d time.Duration)
	RecordRun(fillRate float64, placed, unplaced int)
	RecordEpisode(reward, fillRate float64)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) RecordPlacement(string, string)     {}
func (NopSink) RecordSearch(string, time.Duration) {}
func (NopSink) RecordRun(float64, int, int)        {}
func (NopSink) RecordEpisode(float64, float64)     {}
