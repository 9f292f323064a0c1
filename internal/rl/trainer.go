package rl

import (
	"context"
	"fmt"
	"sort"

	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/logging"
	"github.com/piwi3910/CrateStack/internal/metrics"
	"github.com/piwi3910/CrateStack/internal/model"
)

// Episode summarises one training episode.
type Episode struct {
	Number   int     `json:"episode"`
	Reward   float64 `json:"reward"`
	FillRate float64 `json:"fill_rate"`
	Placed   int     `json:"placed"`
	Epsilon  float64 `json:"epsilon"`
}

// EpisodeLog persists episode summaries, e.g. the SQLite policy store.
type EpisodeLog interface {
	RecordEpisode(ctx context.Context, ep Episode) error
}

// TrainResult holds the best episode seen and the agent totals.
type TrainResult struct {
	Episodes    int
	Best        Episode
	BestPacking model.PackResult
	Stats       Stats
}

// Trainer runs packing episodes and feeds every step back into the agent.
type Trainer struct {
	agent    *Agent
	settings model.RLSettings
	log      logging.Logger
	metrics  metrics.Sink
	episodes EpisodeLog
}

type TrainerOption func(*Trainer)

func WithLogger(l logging.Logger) TrainerOption {
	return func(t *Trainer) { t.log = l }
}

func WithMetrics(m metrics.Sink) TrainerOption {
	return func(t *Trainer) { t.metrics = m }
}

func WithEpisodeLog(l EpisodeLog) TrainerOption {
	return func(t *Trainer) { t.episodes = l }
}

func NewTrainer(agent *Agent, settings model.RLSettings, opts ...TrainerOption) *Trainer {
	t := &Trainer{
		agent:    agent,
		settings: settings,
		log:      logging.Nop{},
		metrics:  metrics.NopSink{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train runs the given number of episodes, each on a fresh container with the
// items in descending volume order. The first episode with the highest fill
// rate is kept as the best packing.
func (t *Trainer) Train(ctx context.Context, spec model.ContainerSpec, items []model.Item, episodes int) (TrainResult, error) {
	if !spec.Valid() {
		return TrainResult{}, fmt.Errorf("invalid container dimensions %dx%dx%d", spec.Width, spec.Height, spec.Depth)
	}
	ordered := make([]model.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Volume() > ordered[j].Volume()
	})

	res := TrainResult{Best: Episode{FillRate: -1}}
	for n := 1; n <= episodes; n++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ep, packing, err := t.runEpisode(ctx, spec, ordered, n)
		if err != nil {
			return res, err
		}
		res.Episodes = n

		if ep.FillRate > res.Best.FillRate {
			res.Best = ep
			res.BestPacking = packing
		}

		t.metrics.RecordEpisode(ep.Reward, ep.FillRate)
		if t.episodes != nil {
			if err := t.episodes.RecordEpisode(ctx, ep); err != nil {
				return res, fmt.Errorf("failed to record episode %d: %w", n, err)
			}
		}
		if n == 1 || (t.settings.LogEvery > 0 && n%t.settings.LogEvery == 0) {
			t.log.Infof("episode %d/%d: placed %d of %d, fill rate %.2f%%, epsilon %.3f",
				n, episodes, ep.Placed, len(items), ep.FillRate, ep.Epsilon)
		}
	}
	res.Stats = t.agent.Stats()
	t.log.Infof("training done: best fill rate %.2f%% in episode %d, %d table entries",
		res.Best.FillRate, res.Best.Number, t.agent.Table().Len())
	return res, nil
}

func (t *Trainer) runEpisode(ctx context.Context, spec model.ContainerSpec, items []model.Item, n int) (Episode, model.PackResult, error) {
	c, err := engine.NewContainer(spec)
	if err != nil {
		return Episode{}, model.PackResult{}, err
	}
	env := NewEnvironment(c, t.settings)
	t.agent.StartEpisode()
	ep := Episode{Number: n, Epsilon: t.agent.Epsilon()}

	var unplaced []model.UnplacedItem
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return ep, model.PackResult{}, err
		}
		state := env.State()
		action := t.agent.SelectAction(state, it.Box(), spec)
		reward, _, ok := env.Step(it, action)
		t.agent.Update(state, action, reward, env.State())
		ep.Reward += reward
		if !ok {
			unplaced = append(unplaced, model.UnplacedItem{Item: it, Outcome: model.OutcomeNotFound, Pass: model.PassPolicy})
		}
	}

	packing := c.Result()
	packing.Unplaced = unplaced
	ep.FillRate = c.FillRate()
	ep.Placed = c.PlacedCount()
	return ep, packing, nil
}
