package outline

import (
	"fmt"
	"log"
	"os"

	"github.com/paulmach/orb/geojson"
)

// OutlineCollection accumulates per-tile outline features and writes them
// out as one GeoJSON FeatureCollection, optionally merged first.
type OutlineCollection struct {
	features []*geojson.Feature
}

// NewOutlineCollection creates an empty collection.
func NewOutlineCollection() *OutlineCollection {
	return &OutlineCollection{}
}

// AddFeature appends a feature to the collection.
func (c *OutlineCollection) AddFeature(f *geojson.Feature) {
	c.features = append(c.features, f)
}

// Features returns the collected features in insertion order.
func (c *OutlineCollection) Features() []*geojson.Feature {
	return c.features
}

// SaveFile writes the collection to path as a GeoJSON FeatureCollection.
func (c *OutlineCollection) SaveFile(path string) error {
	fc := geojson.NewFeatureCollection()
	fc.Features = c.features
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("Saved %d outline(s) to %s", len(c.features), path)
	return nil
}
