package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
)

// Config holds the construction-time parameters of a planning run
type Config struct {
	Start          Point      `json:"start"`
	Goal           Point      `json:"goal"`
	Obstacles      []Obstacle `json:"obstacles"`
	MinBound       float64    `json:"minBound"`
	MaxBound       float64    `json:"maxBound"`
	StepLength     float64    `json:"stepLength"`
	GoalSampleRate int        `json:"goalSampleRate"` // percent, 0-100
	MaxIterations  int        `json:"maxIterations"`
}

// Validate reports configuration errors that would cause arithmetic failures
// later (degenerate ellipse, zero-length steering, empty sampling bounds).
func (c Config) Validate() error {
	if c.Start == c.Goal {
		return fmt.Errorf("invalid config: start coincides with goal (%.6f, %.6f)", c.Start.X, c.Start.Y)
	}
	if c.StepLength <= 0 {
		return fmt.Errorf("invalid config: step length must be positive, got %.6f", c.StepLength)
	}
	if c.MinBound >= c.MaxBound {
		return fmt.Errorf("invalid config: sampling bounds [%.6f, %.6f] are empty or inverted", c.MinBound, c.MaxBound)
	}
	if c.GoalSampleRate < 0 || c.GoalSampleRate > 100 {
		return fmt.Errorf("invalid config: goal sample rate must be within 0-100, got %d", c.GoalSampleRate)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("invalid config: iteration budget must be positive, got %d", c.MaxIterations)
	}
	return nil
}

// PlanResult is the outcome of a full planning run
type PlanResult struct {
	Path          []Point // goal-first; empty when no path was found
	Cost          float64 // +Inf when no path was found
	Found         bool
	Iterations    int
	NodeCount     int
	SolutionCosts []float64 // best cost after each goal-reaching solution
}

// Planner is a single-query Informed RRT* planner. It grows a tree from the
// start, steering toward random samples in fixed steps, choosing minimal-cost
// parents among near nodes and locally rewiring them. Once a path to the
// goal is known, sampling switches to the ellipse that bounds all shorter
// paths, so further effort concentrates where the solution can still improve.
//
// A planner runs one query on one goroutine; nothing here is safe for
// concurrent use.
type Planner struct {
	cfg      Config
	tree     *Tree
	sampler  *Sampler
	checker  *CollisionChecker
	observer func(Snapshot)

	bestPath      []Point
	bestCost      float64
	solutionCosts []float64
}

// NewPlanner validates the configuration and prepares a run. The random
// source is explicit so a fixed seed reproduces the run exactly.
func NewPlanner(cfg Config, rng *rand.Rand) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("invalid config: random source must not be nil")
	}

	return &Planner{
		cfg:      cfg,
		tree:     NewTree(cfg.Start),
		sampler:  NewSampler(rng, cfg.Start, cfg.Goal, cfg.MinBound, cfg.MaxBound, cfg.GoalSampleRate),
		checker:  NewCollisionChecker(cfg.Obstacles, cfg.StepLength),
		bestCost: math.Inf(1),
	}, nil
}

// SetObserver registers a per-iteration snapshot consumer, used by the
// visualization layer. The planner never reads anything back from it.
func (p *Planner) SetObserver(fn func(Snapshot)) {
	p.observer = fn
}

// Tree exposes the search tree, for snapshots and tests.
func (p *Planner) Tree() *Tree {
	return p.tree
}

// BestCost returns the current best known path cost, +Inf if none.
func (p *Planner) BestCost() float64 {
	return p.bestCost
}

// Plan runs the full iteration budget and returns the best path found. The
// loop never terminates early: iterations after the first solution keep
// improving it through informed sampling and rewiring.
func (p *Planner) Plan() PlanResult {
	for iter := 0; iter < p.cfg.MaxIterations; iter++ {
		sample := p.sampler.Sample(p.bestCost)

		nearestIdx := p.tree.Nearest(sample)
		nearest := p.tree.Node(nearestIdx)

		theta := nearest.Position.AngleTo(sample)
		newNode := p.steer(theta, nearestIdx, nearest)
		d := nearest.Position.Distance(newNode.Position)

		if p.checker.PointClear(newNode.Position) && p.checker.SegmentClear(nearest.Position, theta, d) {
			nearInds := p.tree.NearIndices(newNode.Position)
			newNode = p.chooseParent(newNode, nearInds)

			newIdx := p.tree.Add(newNode)
			p.rewire(newIdx, newNode, nearInds)

			if newNode.Position.Distance(p.cfg.Goal) < p.cfg.StepLength {
				candidate := append([]Point{p.cfg.Goal}, p.tree.PathFrom(newIdx)...)
				length := PathLength(candidate)
				if length < p.bestCost {
					p.bestPath = candidate
					p.bestCost = length
				}
				p.solutionCosts = append(p.solutionCosts, p.bestCost)
			}
		}

		p.notify(iter, sample)
	}

	return PlanResult{
		Path:          p.bestPath,
		Cost:          p.bestCost,
		Found:         p.bestPath != nil,
		Iterations:    p.cfg.MaxIterations,
		NodeCount:     p.tree.Len(),
		SolutionCosts: p.solutionCosts,
	}
}

// steer produces a node exactly one step from the source along theta, never
// at the sampled point itself. This bounds per-iteration growth and keeps
// edge lengths comparable for collision and cost accounting.
func (p *Planner) steer(theta float64, sourceIdx int, source Node) Node {
	return Node{
		Position: Point{
			X: source.Position.X + p.cfg.StepLength*math.Cos(theta),
			Y: source.Position.Y + p.cfg.StepLength*math.Sin(theta),
		},
		Cost:   source.Cost + p.cfg.StepLength,
		Parent: sourceIdx,
	}
}

// chooseParent reassigns the new node to the near candidate giving the
// lowest collision-free cost. When the near set is empty, or no candidate
// connects without collision, the steering-derived parent stays in place.
func (p *Planner) chooseParent(newNode Node, nearInds []int) Node {
	if len(nearInds) == 0 {
		return newNode
	}

	minCost := math.Inf(1)
	minInd := NoParent
	for _, i := range nearInds {
		near := p.tree.Node(i)
		d := near.Position.Distance(newNode.Position)
		theta := near.Position.AngleTo(newNode.Position)
		if p.checker.SegmentClear(near.Position, theta, d) {
			if cost := near.Cost + d; cost < minCost {
				minCost = cost
				minInd = i
			}
		}
	}

	if math.IsInf(minCost, 1) {
		log.Println("⚠️  No collision-free near parent, keeping steering parent")
		return newNode
	}

	newNode.Cost = minCost
	newNode.Parent = minInd
	return newNode
}

// rewire re-routes near nodes through the newly inserted node when that is
// strictly cheaper and collision-free. A single local pass: descendants of a
// rewired node keep stale costs until later iterations revisit them, which
// is the accepted behavior of the reference algorithm.
func (p *Planner) rewire(newIdx int, newNode Node, nearInds []int) {
	for _, i := range nearInds {
		near := p.tree.Node(i)

		d := near.Position.Distance(newNode.Position)
		rerouted := newNode.Cost + d

		if near.Cost > rerouted {
			theta := near.Position.AngleTo(newNode.Position)
			if p.checker.SegmentClear(near.Position, theta, d) {
				p.tree.SetParent(i, newIdx, rerouted)
			}
		}
	}
}

// notify hands the current iteration state to the observer, if any.
func (p *Planner) notify(iter int, sample Point) {
	if p.observer == nil {
		return
	}
	p.observer(p.makeSnapshot(iter, sample))
}
