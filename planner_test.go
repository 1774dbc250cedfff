package main

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference scenario: the six-circle obstacle field between (0,0) and (5,10)
func scenarioConfig() Config {
	return Config{
		Start: Point{X: 0, Y: 0},
		Goal:  Point{X: 5, Y: 10},
		Obstacles: []Obstacle{
			{X: 5, Y: 5, Radius: 0.5},
			{X: 9, Y: 6, Radius: 1},
			{X: 7, Y: 5, Radius: 1},
			{X: 1, Y: 5, Radius: 1},
			{X: 3, Y: 6, Radius: 1},
			{X: 7, Y: 9, Radius: 1},
		},
		MinBound:       -2,
		MaxBound:       15,
		StepLength:     0.5,
		GoalSampleRate: 10,
		MaxIterations:  2000,
	}
}

// requireCostConsistency checks that no node's recorded cost undercuts the
// route through its recorded parent. Rewiring a node lowers its cost without
// propagating to descendants, so descendant costs may be stale overestimates;
// they must never be underestimates.
func requireCostConsistency(t *testing.T, tree *Tree) {
	t.Helper()
	for i := 1; i < tree.Len(); i++ {
		node := tree.Node(i)
		require.NotEqual(t, NoParent, node.Parent, "non-root node %d has no parent", i)
		parent := tree.Node(node.Parent)
		require.GreaterOrEqual(t, node.Cost, parent.Cost+parent.Position.Distance(node.Position)-1e-9,
			"node %d undercuts its parent edge", i)
	}
}

// requireAcyclic checks that every parent chain reaches the root within at
// most tree-size hops. Rewired handles may point at later insertions, but
// recorded costs strictly increase along every chain, which rules out cycles.
func requireAcyclic(t *testing.T, tree *Tree) {
	t.Helper()
	for i := 0; i < tree.Len(); i++ {
		current := i
		for hops := 0; tree.Node(current).Parent != NoParent; hops++ {
			require.Less(t, hops, tree.Len(), "parent chain from node %d does not terminate", i)
			parent := tree.Node(current).Parent
			require.GreaterOrEqual(t, tree.Node(current).Cost, tree.Node(parent).Cost,
				"cost does not increase from node %d to its child %d", parent, current)
			current = parent
		}
		require.Equal(t, 0, current)
	}
}

func TestConfigValidation(t *testing.T) {
	base := scenarioConfig()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"start equals goal", func(c *Config) { c.Goal = c.Start }},
		{"zero step length", func(c *Config) { c.StepLength = 0 }},
		{"negative step length", func(c *Config) { c.StepLength = -1 }},
		{"inverted bounds", func(c *Config) { c.MinBound, c.MaxBound = 15, -2 }},
		{"empty bounds", func(c *Config) { c.MinBound, c.MaxBound = 3, 3 }},
		{"negative goal bias", func(c *Config) { c.GoalSampleRate = -1 }},
		{"goal bias above 100", func(c *Config) { c.GoalSampleRate = 101 }},
		{"zero iteration budget", func(c *Config) { c.MaxIterations = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			_, err := NewPlanner(cfg, rand.New(rand.NewSource(1)))
			require.Error(t, err)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		_, err := NewPlanner(base, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
	})

	t.Run("nil random source", func(t *testing.T) {
		_, err := NewPlanner(base, nil)
		require.Error(t, err)
	})
}

func TestPlanEndToEnd(t *testing.T) {
	cfg := scenarioConfig()
	planner, err := NewPlanner(cfg, rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	result := planner.Plan()

	require.True(t, result.Found, "no path found within the budget")
	require.NotEmpty(t, result.Path)
	require.Equal(t, cfg.MaxIterations, result.Iterations)

	// Core path order is goal-first
	assert.Equal(t, cfg.Goal, result.Path[0])
	assert.Equal(t, cfg.Start, result.Path[len(result.Path)-1])

	// Total length is finite and consistent with the waypoints
	require.False(t, math.IsInf(result.Cost, 1))
	require.InDelta(t, PathLength(result.Path), result.Cost, 1e-9)

	// Edge lengths are bounded by the largest possible rewiring radius
	// (50 * sqrt(ln(n)/n) peaks just above 30 at n = 3)
	for i := 1; i < len(result.Path); i++ {
		assert.LessOrEqual(t, result.Path[i].Distance(result.Path[i-1]), 30.5)
	}

	// A hand-picked detour around the right side of the obstacle field;
	// every vertex clears the inflated obstacles, so its length is an upper
	// bound any found path must beat or match
	detour := []Point{{X: 0, Y: 0}, {X: 12, Y: 0}, {X: 12, Y: 12}, {X: 5, Y: 10}}
	checker := NewCollisionChecker(cfg.Obstacles, cfg.StepLength)
	for _, p := range detour {
		require.True(t, checker.PointClear(p))
	}
	assert.LessOrEqual(t, result.Cost, PathLength(detour))

	requireCostConsistency(t, planner.Tree())
	requireAcyclic(t, planner.Tree())
}

func TestPlanBestCostMonotonicity(t *testing.T) {
	planner, err := NewPlanner(scenarioConfig(), rand.New(rand.NewSource(8)))
	require.NoError(t, err)

	result := planner.Plan()
	require.True(t, result.Found)
	require.NotEmpty(t, result.SolutionCosts)

	for i := 1; i < len(result.SolutionCosts); i++ {
		require.LessOrEqual(t, result.SolutionCosts[i], result.SolutionCosts[i-1],
			"best cost increased at solution %d", i)
	}
	require.Equal(t, result.Cost, result.SolutionCosts[len(result.SolutionCosts)-1])
}

func TestPlanDeterministicUnderSeed(t *testing.T) {
	run := func() PlanResult {
		planner, err := NewPlanner(scenarioConfig(), rand.New(rand.NewSource(21)))
		require.NoError(t, err)
		return planner.Plan()
	}

	first := run()
	second := run()

	require.Equal(t, first.Found, second.Found)
	require.Equal(t, first.NodeCount, second.NodeCount)
	require.Equal(t, first.Cost, second.Cost)
	require.Equal(t, first.Path, second.Path)
}

func TestPlanNoObstaclesReachesGoal(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Obstacles = []Obstacle{}
	cfg.MaxIterations = 500

	planner, err := NewPlanner(cfg, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	result := planner.Plan()
	require.True(t, result.Found)
	assert.Less(t, result.Cost, 2*cfg.Start.Distance(cfg.Goal))
}

func TestPlanRunsFullBudgetAndReportsNoPath(t *testing.T) {
	// Goal sealed inside a ring of overlapping obstacles: the budget runs
	// out without a solution and the result says so explicitly
	cfg := Config{
		Start: Point{X: 0, Y: 0},
		Goal:  Point{X: 10, Y: 10},
		Obstacles: []Obstacle{
			{X: 10, Y: 10, Radius: 3},
		},
		MinBound:       -2,
		MaxBound:       15,
		StepLength:     0.5,
		GoalSampleRate: 10,
		MaxIterations:  150,
	}

	planner, err := NewPlanner(cfg, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	result := planner.Plan()
	require.False(t, result.Found)
	require.Empty(t, result.Path)
	require.True(t, math.IsInf(result.Cost, 1))
	require.Equal(t, 150, result.Iterations)
	require.Empty(t, result.SolutionCosts)
}

func TestPlanObserverReceivesEveryIteration(t *testing.T) {
	cfg := scenarioConfig()
	cfg.MaxIterations = 300

	planner, err := NewPlanner(cfg, rand.New(rand.NewSource(6)))
	require.NoError(t, err)

	var snaps []Snapshot
	planner.SetObserver(func(s Snapshot) {
		snaps = append(snaps, s)
	})
	planner.Plan()

	require.Len(t, snaps, 300)
	for i, s := range snaps {
		require.Equal(t, i, s.Iteration)
		require.NotEmpty(t, s.Nodes)
	}

	// Ellipse parameters appear only once a solution exists, and the best
	// cost they carry never increases
	prev := math.Inf(1)
	for _, s := range snaps {
		if s.Ellipse == nil {
			continue
		}
		require.LessOrEqual(t, s.Ellipse.CBest, prev)
		require.Greater(t, s.Ellipse.CBest, s.Ellipse.CMin)
		prev = s.Ellipse.CBest
	}
}

func TestChooseParentKeepsSteeringParentWhenBlocked(t *testing.T) {
	// The single near candidate cannot connect without crossing the
	// obstacle, so the steering-derived parent and cost stay in place
	cfg := Config{
		Start:          Point{X: 0, Y: 0},
		Goal:           Point{X: 10, Y: 0},
		Obstacles:      []Obstacle{{X: 2, Y: 0, Radius: 0.6}},
		MinBound:       -2,
		MaxBound:       15,
		StepLength:     0.5,
		GoalSampleRate: 0,
		MaxIterations:  1,
	}
	planner, err := NewPlanner(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	steered := Node{Position: Point{X: 4, Y: 0}, Cost: 7, Parent: 0}
	got := planner.chooseParent(steered, []int{0})
	require.Equal(t, steered, got)
}

func TestChooseParentEmptyNearSet(t *testing.T) {
	planner, err := NewPlanner(scenarioConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	steered := Node{Position: Point{X: 1, Y: 1}, Cost: 3, Parent: 0}
	require.Equal(t, steered, planner.chooseParent(steered, nil))
}

func TestChooseParentPicksCheapestNear(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Obstacles = nil
	planner, err := NewPlanner(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	tree := planner.Tree()
	cheap := tree.Add(Node{Position: Point{X: 1, Y: 0}, Cost: 0.5, Parent: 0})
	tree.Add(Node{Position: Point{X: 1.5, Y: 0}, Cost: 9, Parent: 0})

	steered := Node{Position: Point{X: 2, Y: 0}, Cost: 100, Parent: 0}
	got := planner.chooseParent(steered, []int{0, 1, 2})

	require.Equal(t, cheap, got.Parent)
	require.InDelta(t, 1.5, got.Cost, 1e-9)
}

func TestRewireLowersNearNodeCost(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Obstacles = nil
	planner, err := NewPlanner(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	tree := planner.Tree()
	// An expensive node that a cheaper new node can re-route
	costly := tree.Add(Node{Position: Point{X: 2, Y: 0}, Cost: 10, Parent: 0})

	newNode := Node{Position: Point{X: 1.5, Y: 0}, Cost: 1.5, Parent: 0}
	newIdx := tree.Add(newNode)
	planner.rewire(newIdx, newNode, []int{0, costly})

	require.Equal(t, newIdx, tree.Node(costly).Parent)
	require.InDelta(t, 2.0, tree.Node(costly).Cost, 1e-9)
	// The root never rewires: its cost 0 beats any re-route
	require.Equal(t, NoParent, tree.Node(0).Parent)
}

func TestRewireSkipsBlockedReroute(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Obstacles = []Obstacle{{X: 3, Y: 0, Radius: 0.6}}
	planner, err := NewPlanner(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	tree := planner.Tree()
	costly := tree.Add(Node{Position: Point{X: 5, Y: 0}, Cost: 50, Parent: 0})

	newNode := Node{Position: Point{X: 1, Y: 0}, Cost: 1, Parent: 0}
	newIdx := tree.Add(newNode)
	planner.rewire(newIdx, newNode, []int{costly})

	// Cheaper on paper, but the connecting segment crosses the obstacle
	require.Equal(t, 0, tree.Node(costly).Parent)
	require.Equal(t, 50.0, tree.Node(costly).Cost)
}

func TestSteerProducesFixedStepNode(t *testing.T) {
	planner, err := NewPlanner(scenarioConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	source := planner.Tree().Node(0)
	node := planner.steer(math.Pi/2, 0, source)

	require.InDelta(t, 0.5, source.Position.Distance(node.Position), 1e-12)
	require.InDelta(t, source.Cost+0.5, node.Cost, 1e-12)
	require.Equal(t, 0, node.Parent)
}
