package outline

import (
	"log"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MergeGeometries replaces the collection's features with merged polygons.
// Features are always partitioned by source folder first; within each folder
// the merge policy is:
//
//   - neither flag: one convex hull per folder.
//   - mergeTiled: group polygons that share a vertex (transitively) and
//     hull each group.
//   - mergeOverlap: after the shared-vertex pass, additionally merge group
//     hulls whose polygons geometrically overlap.
func (c *OutlineCollection) MergeGeometries(mergeTiled, mergeOverlap bool) {
	for folder, features := range c.groupByFolder() {
		if !mergeTiled && !mergeOverlap {
			if merged := mergeGroup(features, folder); merged != nil {
				c.AddFeature(merged)
			}
			continue
		}

		groups := groupBySharedVertex(features)
		if !mergeOverlap {
			for _, group := range groups {
				if merged := mergeGroup(group, folder); merged != nil {
					c.AddFeature(merged)
				}
			}
			continue
		}

		var hulls []*geojson.Feature
		for _, group := range groups {
			if merged := mergeGroup(group, folder); merged != nil {
				hulls = append(hulls, merged)
			}
		}
		for _, group := range groupByOverlap(hulls) {
			if merged := mergeGroup(group, folder); merged != nil {
				c.AddFeature(merged)
			}
		}
	}
}

// groupByFolder drains the collection into per-folder buckets keyed by the
// SourceFileDir property.
func (c *OutlineCollection) groupByFolder() map[string][]*geojson.Feature {
	byFolder := make(map[string][]*geojson.Feature)
	for _, f := range c.features {
		folder, _ := f.Properties["SourceFileDir"].(string)
		byFolder[folder] = append(byFolder[folder], f)
	}
	c.features = nil
	return byFolder
}

// groupBySharedVertex unions features whose rings share a vertex, within
// the VertexEpsilon tolerance. Sharing is transitive: a chain of adjacent
// tiles collapses into one group.
func groupBySharedVertex(features []*geojson.Feature) [][]*geojson.Feature {
	uf := newUnionFind(len(features))
	vertexOwners := make(map[vertexKey][]int)
	for i, f := range features {
		ring, ok := featureRing(f)
		if !ok {
			continue
		}
		for _, p := range ring {
			key := quantize(p)
			for _, owner := range vertexOwners[key] {
				uf.union(i, owner)
			}
			vertexOwners[key] = append(vertexOwners[key], i)
		}
	}
	return collectGroups(features, uf)
}

// ringEntry adapts a feature ring to the R-tree's Spatial interface.
type ringEntry struct {
	index int
	rect  rtreego.Rect
	ring  orb.Ring
}

func (e *ringEntry) Bounds() rtreego.Rect {
	return e.rect
}

// groupByOverlap unions features whose polygons geometrically intersect.
// An R-tree narrows the candidate pairs to those with overlapping bounds
// before the exact ring intersection test runs.
func groupByOverlap(features []*geojson.Feature) [][]*geojson.Feature {
	uf := newUnionFind(len(features))
	tree := rtreego.NewTree(2, 25, 50)
	entries := make([]*ringEntry, 0, len(features))
	for i, f := range features {
		ring, ok := featureRing(f)
		if !ok || len(ring) == 0 {
			continue
		}
		e := &ringEntry{index: i, rect: boundRect(ring.Bound()), ring: ring}
		entries = append(entries, e)
		tree.Insert(e)
	}
	for _, e := range entries {
		for _, hit := range tree.SearchIntersect(e.rect) {
			other := hit.(*ringEntry)
			if other.index <= e.index {
				continue
			}
			if ringsIntersect(e.ring, other.ring) {
				uf.union(e.index, other.index)
			}
		}
	}
	return collectGroups(features, uf)
}

// boundRect converts an orb bound to an R-tree rectangle. The R-tree
// requires strictly positive lengths, so degenerate dimensions get a tiny
// padding.
func boundRect(b orb.Bound) rtreego.Rect {
	const minLength = 1e-9
	lengths := []float64{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1]}
	for i := range lengths {
		if lengths[i] < minLength {
			lengths[i] = minLength
		}
	}
	rect, _ := rtreego.NewRect(rtreego.Point{b.Min[0], b.Min[1]}, lengths)
	return rect
}

// collectGroups buckets features by union-find root, preserving input order
// within and across groups.
func collectGroups(features []*geojson.Feature, uf *unionFind) [][]*geojson.Feature {
	byRoot := make(map[int][]*geojson.Feature)
	var roots []int
	for i, f := range features {
		root := uf.find(i)
		if _, seen := byRoot[root]; !seen {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], f)
	}
	groups := make([][]*geojson.Feature, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, byRoot[root])
	}
	return groups
}

// mergeGroup folds a group of features into one convex-hull feature with
// aggregated properties. Returns nil when the hull degenerates to fewer
// than four ring points.
func mergeGroup(features []*geojson.Feature, folder string) *geojson.Feature {
	var vertices []orb.Point
	for _, f := range features {
		if ring, ok := featureRing(f); ok {
			vertices = append(vertices, ring...)
		}
	}
	hull := closeRing(convexHull(vertices))
	if len(hull) < 4 {
		log.Printf("Merged polygon has fewer than 4 points, dropping: %v", hull)
		return nil
	}

	merged := geojson.NewFeature(orb.Polygon{hull})
	merged.Properties["SourceFileDir"] = folder

	var featureCount, pointCount uint64
	for _, f := range features {
		featureCount++
		pointCount += pointCountOf(f)
		for key, value := range f.Properties {
			if key == "SourceFile" || key == "SourceFileDir" || key == "number_of_points" {
				continue
			}
			switch v := value.(type) {
			case []interface{}:
				for _, item := range v {
					insertUniqueValue(merged.Properties, key, item)
				}
			default:
				if !aggregatableValue(v) {
					log.Printf("Skipping property %q: cannot aggregate %T values", key, v)
					continue
				}
				insertUniqueValue(merged.Properties, key, v)
			}
		}
	}
	merged.Properties["number_of_features"] = featureCount
	merged.Properties["number_of_points"] = pointCount
	return merged
}

// aggregatableValue reports whether a property value may join a
// distinct-value list. Only strings and numbers aggregate.
func aggregatableValue(v interface{}) bool {
	switch v.(type) {
	case string, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// insertUniqueValue appends value to the distinct-value list stored under
// key. Entries that are not lists (the counter properties) are left alone.
func insertUniqueValue(props geojson.Properties, key string, value interface{}) {
	entry, ok := props[key]
	if !ok {
		props[key] = []interface{}{value}
		return
	}
	list, ok := entry.([]interface{})
	if !ok {
		return
	}
	for _, existing := range list {
		if existing == value {
			return
		}
	}
	props[key] = append(list, value)
}

// featureRing returns a feature's exterior ring.
func featureRing(f *geojson.Feature) (orb.Ring, bool) {
	poly, ok := f.Geometry.(orb.Polygon)
	if !ok || len(poly) == 0 {
		return nil, false
	}
	return poly[0], true
}

// pointCountOf reads the number_of_points property, tolerating the float64
// that a GeoJSON round-trip produces.
func pointCountOf(f *geojson.Feature) uint64 {
	switch v := f.Properties["number_of_points"].(type) {
	case uint64:
		return v
	case float64:
		return uint64(v)
	case int:
		return uint64(v)
	}
	return 0
}
