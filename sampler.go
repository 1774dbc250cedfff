package main

import (
	"math"
	"math/rand"
)

// RotationMatrix is a 2x2 proper rotation (determinant +1) mapping
// ellipse-frame coordinates to workspace coordinates.
type RotationMatrix struct {
	m [2][2]float64
}

// NewRotationToWorldFrame builds the rotation whose first column is the unit
// start→goal direction. cMin must be the (non-zero) start–goal distance.
// The planar construction keeps the determinant at +1 directly; an
// n-dimensional extension would need the SVD form with the determinant-sign
// correction to stay a rotation rather than a reflection.
func NewRotationToWorldFrame(start, goal Point, cMin float64) RotationMatrix {
	c := (goal.X - start.X) / cMin
	s := (goal.Y - start.Y) / cMin
	return RotationMatrix{m: [2][2]float64{
		{c, -s},
		{s, c},
	}}
}

// Apply rotates a point from the ellipse frame into the world frame.
func (r RotationMatrix) Apply(x, y float64) (float64, float64) {
	return r.m[0][0]*x + r.m[0][1]*y, r.m[1][0]*x + r.m[1][1]*y
}

// ApplyInverse rotates a point from the world frame back into the ellipse
// frame (the transpose, since the matrix is orthonormal).
func (r RotationMatrix) ApplyInverse(x, y float64) (float64, float64) {
	return r.m[0][0]*x + r.m[1][0]*y, r.m[0][1]*x + r.m[1][1]*y
}

// Angle returns the rotation angle in radians.
func (r RotationMatrix) Angle() float64 {
	return math.Atan2(r.m[1][0], r.m[0][0])
}

// Sampler draws candidate points for tree growth. While no solution is known
// it samples the rectangular bound uniformly with a goal bias; once a
// solution exists it samples the informed ellipse whose major axis spans
// start and goal, so the region shrinks as the best cost improves.
//
// The random source is injected so runs are reproducible under a fixed seed.
type Sampler struct {
	rng            *rand.Rand
	minBound       float64
	maxBound       float64
	goal           Point
	goalSampleRate int
	center         Point
	cMin           float64
	rotation       RotationMatrix
}

// NewSampler creates a sampler for the given run. start and goal must not
// coincide (validated by the planner config).
func NewSampler(rng *rand.Rand, start, goal Point, minBound, maxBound float64, goalSampleRate int) *Sampler {
	cMin := start.Distance(goal)
	return &Sampler{
		rng:            rng,
		minBound:       minBound,
		maxBound:       maxBound,
		goal:           goal,
		goalSampleRate: goalSampleRate,
		center:         start.Midpoint(goal),
		cMin:           cMin,
		rotation:       NewRotationToWorldFrame(start, goal, cMin),
	}
}

// CMin returns the straight-line start–goal distance.
func (s *Sampler) CMin() float64 {
	return s.cMin
}

// Center returns the ellipse center (start–goal midpoint).
func (s *Sampler) Center() Point {
	return s.center
}

// Rotation returns the fixed ellipse rotation basis.
func (s *Sampler) Rotation() RotationMatrix {
	return s.rotation
}

// Sample draws the next candidate point. cBest is the best known path cost,
// +Inf while no solution has been found.
func (s *Sampler) Sample(cBest float64) Point {
	if math.IsInf(cBest, 1) {
		return s.sampleFreeSpace()
	}
	return s.sampleInformed(cBest)
}

// sampleFreeSpace draws uniformly within the rectangular bound, returning
// the goal itself with goalSampleRate percent probability.
func (s *Sampler) sampleFreeSpace() Point {
	if s.rng.Intn(101) > s.goalSampleRate {
		return Point{
			X: s.minBound + s.rng.Float64()*(s.maxBound-s.minBound),
			Y: s.minBound + s.rng.Float64()*(s.maxBound-s.minBound),
		}
	}
	return s.goal
}

// sampleInformed draws uniformly inside the ellipse that contains every path
// shorter than cBest: unit-disk sample, scaled by the semi-axes, rotated into
// the world frame and translated to the center.
func (s *Sampler) sampleInformed(cBest float64) Point {
	r1 := cBest / 2.0
	r2 := math.Sqrt(cBest*cBest-s.cMin*s.cMin) / 2.0

	bx, by := s.sampleUnitBall()
	x, y := s.rotation.Apply(r1*bx, r2*by)
	return Point{X: x + s.center.X, Y: y + s.center.Y}
}

// sampleUnitBall draws a point uniformly inside the closed unit disk without
// rejection: two uniforms swapped so a <= b, radius b, angle 2*pi*a/b.
func (s *Sampler) sampleUnitBall() (float64, float64) {
	a := s.rng.Float64()
	b := s.rng.Float64()
	if b < a {
		a, b = b, a
	}
	if b == 0 {
		return 0, 0
	}
	return b * math.Cos(2*math.Pi*a/b), b * math.Sin(2*math.Pi*a/b)
}
