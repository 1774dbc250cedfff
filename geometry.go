package main

import (
	"math"

	"github.com/paulmach/orb"
)

// Point represents a position in the planar workspace
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// SquaredDistance calculates squared Euclidean distance (avoids the sqrt for comparisons)
func (p Point) SquaredDistance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// AngleTo returns the angle in radians of the direction from p to other
func (p Point) AngleTo(other Point) float64 {
	return math.Atan2(other.Y-p.Y, other.X-p.X)
}

// Midpoint returns the point halfway between p and other
func (p Point) Midpoint(other Point) Point {
	return Point{
		X: (p.X + other.X) / 2,
		Y: (p.Y + other.Y) / 2,
	}
}

// Orb converts the point to an orb.Point for geometry interop
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// PathLength sums the Euclidean distances between consecutive path points
func PathLength(path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += path[i].Distance(path[i-1])
	}
	return total
}

// ReversePath returns a copy of the path with the point order reversed
func ReversePath(path []Point) []Point {
	reversed := make([]Point, len(path))
	for i, p := range path {
		reversed[len(path)-1-i] = p
	}
	return reversed
}
