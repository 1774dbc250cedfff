package main

import (
	"math"

	"github.com/dhconnelly/rtreego"
)

// Obstacle is a circular obstruction in the workspace
type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Center returns the obstacle center as a Point
func (o Obstacle) Center() Point {
	return Point{X: o.X, Y: o.Y}
}

// collisionInflation is the safety margin applied to squared obstacle radii:
// a point within sqrt(1.1) radii of a center counts as colliding.
const collisionInflation = 1.1

// pointQueryExtent is the side length of the degenerate rectangle used for
// point lookups against the R-tree (rtreego rejects zero-sized rects).
const pointQueryExtent = 1e-9

// obstacleEntry wraps an obstacle for R-tree storage
type obstacleEntry struct {
	obstacle Obstacle
	bbox     rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// CollisionChecker validates points and tree edges against the obstacle set.
// Obstacles are indexed in an R-tree so point tests only run the exact
// circle check against obstacles whose inflated bounding box contains the
// query point.
type CollisionChecker struct {
	tree       *rtreego.Rtree
	stepLength float64
}

// NewCollisionChecker indexes the obstacle set. stepLength is the planner's
// steering step, reused as the segment subdivision increment.
func NewCollisionChecker(obstacles []Obstacle, stepLength float64) *CollisionChecker {
	tree := rtreego.NewTree(2, 25, 50)

	for _, obstacle := range obstacles {
		// Inflate the box to the rejection distance so the exact test
		// never runs on an obstacle the box check already cleared.
		reach := math.Sqrt(collisionInflation) * obstacle.Radius
		bbox, err := rtreego.NewRect(
			rtreego.Point{obstacle.X - reach, obstacle.Y - reach},
			[]float64{2 * reach, 2 * reach},
		)
		if err == nil {
			tree.Insert(&obstacleEntry{obstacle: obstacle, bbox: bbox})
		}
	}

	return &CollisionChecker{tree: tree, stepLength: stepLength}
}

// PointClear reports whether the position collides with no obstacle. A
// position collides when its squared distance to a center is at most 1.1
// times the squared radius.
func (c *CollisionChecker) PointClear(p Point) bool {
	bbox, err := rtreego.NewRect(
		rtreego.Point{p.X - pointQueryExtent/2, p.Y - pointQueryExtent/2},
		[]float64{pointQueryExtent, pointQueryExtent},
	)
	if err != nil {
		return false
	}

	for _, item := range c.tree.SearchIntersect(bbox) {
		obstacle := item.(*obstacleEntry).obstacle
		d2 := p.SquaredDistance(obstacle.Center())
		if d2 <= collisionInflation*obstacle.Radius*obstacle.Radius {
			return false
		}
	}
	return true
}

// SegmentClear reports whether the segment of the given length starting at
// from along direction theta passes the subdivided collision test: the
// segment is walked in floor(length/stepLength) increments of stepLength,
// point-testing each stop. A segment shorter than one step performs zero
// sub-checks and passes by convention; the reference algorithm relies on
// this approximation and the planner's results are only comparable if it is
// kept as is.
func (c *CollisionChecker) SegmentClear(from Point, theta, length float64) bool {
	pos := from
	steps := int(length / c.stepLength)
	for i := 0; i < steps; i++ {
		pos.X += c.stepLength * math.Cos(theta)
		pos.Y += c.stepLength * math.Sin(theta)
		if !c.PointClear(pos) {
			return false
		}
	}
	return true
}
