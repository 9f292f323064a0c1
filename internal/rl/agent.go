package rl

import (
	"math"
	"math/rand"
	"time"

	"github.com/piwi3910/CrateStack/internal/model"
)

// Stats accumulates over every Update call of an agent.
type Stats struct {
	TotalReward          float64 `json:"total_reward"`
	ActionsTaken         int     `json:"actions_taken"`
	SuccessfulPlacements int     `json:"successful_placements"`
	SuccessRate          float64 `json:"success_rate"`
	LearningScore        float64 `json:"learning_score"` // average reward per action
}

// Agent is an epsilon-greedy tabular Q-learner over placement actions.
type Agent struct {
	settings model.RLSettings
	table    *ValueTable
	rng      *rand.Rand
	episodes int
	stats    Stats
}

// NewAgent builds an agent on table. A nil table starts empty.
func NewAgent(settings model.RLSettings, table *ValueTable) *Agent {
	if table == nil {
		table = NewValueTable()
	}
	seed := settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if settings.ExploitStride < 1 {
		settings.ExploitStride = 1
	}
	return &Agent{
		settings: settings,
		table:    table,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (a *Agent) Table() *ValueTable { return a.table }

func (a *Agent) Stats() Stats { return a.stats }

// Episodes returns how many episodes have been started.
func (a *Agent) Episodes() int { return a.episodes }

// StartEpisode advances the exploration schedule.
func (a *Agent) StartEpisode() { a.episodes++ }

// Epsilon is the current exploration probability.
func (a *Agent) Epsilon() float64 {
	return max(a.settings.EpsilonMin, a.settings.EpsilonStart-a.settings.EpsilonDecay*float64(a.episodes))
}

// SelectAction picks a random action with probability Epsilon, otherwise the
// best known one.
func (a *Agent) SelectAction(state State, box model.Box, spec model.ContainerSpec) Action {
	if a.rng.Float64() < a.Epsilon() {
		return a.randomAction(box, spec)
	}
	return a.BestAction(state, box, spec)
}

func (a *Agent) randomAction(box model.Box, spec model.ContainerSpec) Action {
	o := actionOrder[a.rng.Intn(len(actionOrder))]
	rb := o.Apply(box)
	return Action{
		Position: model.Position{
			X: a.rng.Intn(max(1, spec.Width-rb.Width+1)),
			Y: a.rng.Intn(max(1, spec.Height-rb.Height+1)),
			Z: a.rng.Intn(max(1, spec.Depth-rb.Depth+1)),
		},
		Orientation: o,
	}
}

// BestAction scans the strided action grid orientation by orientation, then
// x, y and z ascending, and returns the highest valued action. Unknown actions
// count as 0 and ties keep the earliest action. A state without any entries
// yields DefaultAction.
func (a *Agent) BestAction(state State, box model.Box, spec model.ContainerSpec) Action {
	sh := state.Hash()
	if !a.table.HasState(sh) {
		return DefaultAction
	}
	stride := a.settings.ExploitStride
	best := DefaultAction
	bestValue := math.Inf(-1)
	for _, o := range actionOrder {
		rb := o.Apply(box)
		for x := 0; x <= spec.Width-rb.Width; x += stride {
			for y := 0; y <= spec.Height-rb.Height; y += stride {
				for z := 0; z <= spec.Depth-rb.Depth; z += stride {
					act := Action{Position: model.Position{X: x, Y: y, Z: z}, Orientation: o}
					v := a.table.Get(Key{State: sh, Action: act.Hash()})
					if v > bestValue {
						best = act
						bestValue = v
					}
				}
			}
		}
	}
	return best
}

// Update applies one Q-learning step to (state, action):
// Q += alpha * (reward + gamma * maxQ(next) - Q).
func (a *Agent) Update(state State, action Action, reward float64, next State) {
	a.stats.TotalReward += reward
	a.stats.ActionsTaken++
	if reward > 0 {
		a.stats.SuccessfulPlacements++
	}
	a.stats.SuccessRate = float64(a.stats.SuccessfulPlacements) / float64(a.stats.ActionsTaken)
	a.stats.LearningScore = a.stats.TotalReward / float64(max(1, a.stats.ActionsTaken))

	k := KeyOf(state, action)
	q := a.table.Get(k)
	target := reward + a.settings.Discount*a.table.MaxForState(next.Hash())
	a.table.Set(k, q+a.settings.LearningRate*(target-q))
}
