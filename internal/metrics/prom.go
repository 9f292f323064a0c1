package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records packing events in Prometheus metrics.
type PromSink struct {
	placements *prometheus.CounterVec
	search     *prometheus.HistogramVec
	fill       prometheus.Gauge
	fillHist   prometheus.Histogram
	unplaced   prometheus.Gauge
	episodes   prometheus.Histogram
}

var fillBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 75, 80, 85, 90, 95, 100}

// NewPromSink registers the packing metrics on reg. If reg is nil, the default
// registerer is used. Collectors already registered are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cratestack_placements_total",
		Help: "Placement attempts by pass and outcome",
	}, []string{"pass", "outcome"})
	search := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cratestack_search_duration_seconds",
		Help:    "Time spent finding the best orientation and position for one item",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"pass"})
	fill := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cratestack_fill_rate_percent",
		Help: "Fill rate of the most recent packing run",
	})
	fillHist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cratestack_run_fill_rate_percent",
		Help:    "Fill rate distribution over packing runs",
		Buckets: fillBuckets,
	})
	unplaced := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cratestack_unplaced_items",
		Help: "Items left out of the most recent packing run",
	})
	episodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cratestack_episode_reward",
		Help:    "Total reward per training episode",
		Buckets: prometheus.ExponentialBuckets(1000, 2, 12),
	})

	var err error
	if placements, err = register(reg, placements); err != nil {
		return nil, err
	}
	if search, err = register(reg, search); err != nil {
		return nil, err
	}
	if fill, err = register(reg, fill); err != nil {
		return nil, err
	}
	if fillHist, err = register(reg, fillHist); err != nil {
		return nil, err
	}
	if unplaced, err = register(reg, unplaced); err != nil {
		return nil, err
	}
	if episodes, err = register(reg, episodes); err != nil {
		return nil, err
	}

	return &PromSink{
		placements: placements,
		search:     search,
		fill:       fill,
		fillHist:   fillHist,
		unplaced:   unplaced,
		episodes:   episodes,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordPlacement(pass, outcome string) {
	s.placements.WithLabelValues(pass, outcome).Inc()
}

func (s *PromSink) RecordSearch(pass string, d time.Duration) {
	s.search.WithLabelValues(pass).Observe(d.Seconds())
}

func (s *PromSink) RecordRun(fillRate float64, placed, unplaced int) {
	s.fill.Set(fillRate)
	s.fillHist.Observe(fillRate)
	s.unplaced.Set(float64(unplaced))
}

func (s *PromSink) RecordEpisode(reward, fillRate float64) {
	s.episodes.Observe(reward)
}
