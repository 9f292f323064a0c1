package rl

import (
	"github.com/piwi3910/CrateStack/internal/engine"
	"github.com/piwi3910/CrateStack/internal/model"
)

// Advisor lets a trained agent propose placements to the scheduler. It only
// exploits and stays silent for states the agent has never seen.
type Advisor struct {
	agent *Agent
}

func NewAdvisor(agent *Agent) *Advisor {
	return &Advisor{agent: agent}
}

func (a *Advisor) Suggest(c *engine.Container, item model.Item) (model.Orientation, model.Position, bool) {
	state := StateOf(c)
	if !a.agent.Table().HasState(state.Hash()) {
		return "", model.Position{}, false
	}
	action := a.agent.BestAction(state, item.Box(), c.Spec())
	placed, ok := Resolve(c.Spec(), item, action)
	if !ok {
		return "", model.Position{}, false
	}
	return placed.Orientation, placed.Position, true
}

var _ engine.Advisor = (*Advisor)(nil)
