package main

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// EllipseParams describes the informed sampling ellipse for rendering
type EllipseParams struct {
	Center Point   `json:"center"`
	CBest  float64 `json:"cBest"`
	CMin   float64 `json:"cMin"`
	Angle  float64 `json:"angle"`
}

// Snapshot is the per-iteration planner state handed to the visualization
// layer: the live node set with parent links, the latest sample point and
// the ellipse parameters. Ellipse is nil until a first solution exists.
type Snapshot struct {
	Iteration int            `json:"iteration"`
	Nodes     []Node         `json:"nodes"`
	Sample    Point          `json:"sample"`
	Ellipse   *EllipseParams `json:"ellipse,omitempty"`
}

func (p *Planner) makeSnapshot(iter int, sample Point) Snapshot {
	snap := Snapshot{
		Iteration: iter,
		Nodes:     p.tree.Nodes(),
		Sample:    sample,
	}
	if !math.IsInf(p.bestCost, 1) {
		snap.Ellipse = &EllipseParams{
			Center: p.sampler.Center(),
			CBest:  p.bestCost,
			CMin:   p.sampler.CMin(),
			Angle:  p.sampler.Rotation().Angle(),
		}
	}
	return snap
}

// EdgeLines returns the tree edges as point pairs for rendering
func (s Snapshot) EdgeLines() [][]Point {
	lines := make([][]Point, 0, len(s.Nodes))
	for _, node := range s.Nodes {
		if node.Parent != NoParent {
			lines = append(lines, []Point{node.Position, s.Nodes[node.Parent].Position})
		}
	}
	return lines
}

// PathGeoJSON encodes a path as a GeoJSON feature collection holding a
// single LineString feature with its planar length as a property.
func PathGeoJSON(path []Point) ([]byte, error) {
	line := make(orb.LineString, 0, len(path))
	for _, p := range path {
		line = append(line, p.Orb())
	}

	feature := geojson.NewFeature(line)
	feature.Properties["length"] = planar.Length(line)

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)
	return fc.MarshalJSON()
}
