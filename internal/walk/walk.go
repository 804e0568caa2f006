// Package walk is a minimal random-walk agent model used to exercise the
// cache engine end to end: n agents wander a 2D plane, the model reports
// aggregate positions, each agent reports its own.
package walk

import (
	"math"
	"math/rand"

	"github.com/nharlow/recap/internal/collect"
	"github.com/nharlow/recap/internal/sim"
)

// Walker is one agent on the plane.
type Walker struct {
	id   int64
	x, y float64
}

// UniqueID implements sim.Agent.
func (w *Walker) UniqueID() int64 {
	return w.id
}

// X returns the walker's x coordinate.
func (w *Walker) X() float64 { return w.x }

// Y returns the walker's y coordinate.
func (w *Walker) Y() float64 { return w.y }

// Dist returns the walker's distance from the origin.
func (w *Walker) Dist() float64 {
	return math.Hypot(w.x, w.y)
}

// Model is the random-walk simulation. It satisfies sim.Model.
type Model struct {
	walkers []*Walker
	agents  []sim.Agent
	rng     *rand.Rand
}

// New creates a model with n walkers at the origin, seeded for
// reproducibility.
func New(n int, seed int64) *Model {
	m := &Model{rng: rand.New(rand.NewSource(seed))}
	for i := 0; i < n; i++ {
		w := &Walker{id: int64(i)}
		m.walkers = append(m.walkers, w)
		m.agents = append(m.agents, w)
	}
	return m
}

// Step moves every walker one unit in a uniformly random direction.
func (m *Model) Step() {
	for _, w := range m.walkers {
		theta := m.rng.Float64() * 2 * math.Pi
		w.x += math.Cos(theta)
		w.y += math.Sin(theta)
	}
}

// Agents implements sim.Model.
func (m *Model) Agents() []sim.Agent {
	return m.agents
}

// meanOf averages fn over all walkers.
func (m *Model) meanOf(fn func(*Walker) float64) float64 {
	if len(m.walkers) == 0 {
		return 0
	}
	var sum float64
	for _, w := range m.walkers {
		sum += fn(w)
	}
	return sum / float64(len(m.walkers))
}

// Collector returns the reporter sets for this model: mean position and
// spread at the model level, position and origin distance per agent.
func Collector() *collect.Collector {
	modelReporters := map[string]collect.ModelReporter{
		"mean_x": func(m sim.Model) float64 {
			return m.(*Model).meanOf((*Walker).X)
		},
		"mean_y": func(m sim.Model) float64 {
			return m.(*Model).meanOf((*Walker).Y)
		},
		"mean_dist": func(m sim.Model) float64 {
			return m.(*Model).meanOf((*Walker).Dist)
		},
	}
	agentReporters := map[string]collect.AgentReporter{
		"x": func(a sim.Agent) float64 {
			return a.(*Walker).X()
		},
		"y": func(a sim.Agent) float64 {
			return a.(*Walker).Y()
		},
		"dist": func(a sim.Agent) float64 {
			return a.(*Walker).Dist()
		},
	}
	return collect.New(modelReporters, agentReporters)
}
