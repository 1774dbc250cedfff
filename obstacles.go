package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadObstaclesFromDir loads circular obstacles from every GeoJSON file in a
// directory. Obstacles are Point features carrying a "radius" property;
// features without a usable geometry or radius are skipped.
func LoadObstaclesFromDir(dir string) ([]Obstacle, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan obstacle directory: %w", err)
	}

	log.Printf("Loading obstacles from %d GeoJSON files...\n", len(files))

	var all []Obstacle
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Printf("⚠️  Failed to read %s: %v\n", file, err)
			continue
		}

		obstacles, err := ParseObstacles(data)
		if err != nil {
			log.Printf("⚠️  Failed to parse %s: %v\n", file, err)
			continue
		}

		all = append(all, obstacles...)
		log.Printf("   ✅ Loaded %d obstacles from %s\n", len(obstacles), filepath.Base(file))
	}

	log.Printf("Total obstacles loaded: %d\n", len(all))
	return all, nil
}

// ParseObstacles decodes circular obstacles from GeoJSON bytes
func ParseObstacles(data []byte) ([]Obstacle, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal feature collection: %w", err)
	}

	var obstacles []Obstacle
	for _, feature := range fc.Features {
		point, ok := feature.Geometry.(orb.Point)
		if !ok {
			continue
		}
		radius := feature.Properties.MustFloat64("radius", 0)
		if radius <= 0 {
			continue
		}
		obstacles = append(obstacles, Obstacle{
			X:      point.X(),
			Y:      point.Y(),
			Radius: radius,
		})
	}
	return obstacles, nil
}
