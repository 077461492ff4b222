package outline

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultSampleSize is the number of points sampled when guessing a CRS.
const DefaultSampleSize = 10

// BuildOptions control how a single tile outline is produced.
type BuildOptions struct {
	// DetailedOutline builds a convex hull of every point instead of the
	// header bounding box.
	DetailedOutline bool
	// GuessCrs falls back to coordinate sampling when the header declares
	// no CRS.
	GuessCrs bool
	// SampleSize overrides DefaultSampleSize when positive.
	SampleSize int
	// NewTransformer overrides the PROJ-backed factory. Used in tests.
	NewTransformer TransformerFactory
}

// BuildOutline opens the tile at path and produces its outline feature in
// EPSG:4326 with the tile's provenance properties attached.
func BuildOutline(path string, opener TileOpener, opts BuildOptions) (*geojson.Feature, error) {
	tile, err := opener(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer tile.Close()

	crsText, err := resolveCrsText(tile, opts)
	if err != nil {
		return nil, fmt.Errorf("resolving CRS of %s: %w", path, err)
	}

	factory := opts.NewTransformer
	if factory == nil {
		factory = NewProjTransformer
	}
	transformer, err := factory(crsText, CanonicalCrs)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", path, err)
	}
	if closer, ok := transformer.(io.Closer); ok {
		defer closer.Close()
	}

	header := tile.Header()
	var ring orb.Ring
	if opts.DetailedOutline {
		ring, err = detailedOutline(tile, transformer)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", path, err)
		}
	} else {
		ring = boundsOutline(header, transformer)
	}

	feature := geojson.NewFeature(orb.Polygon{ring})
	feature.Properties["SourceFile"] = path
	feature.Properties["SourceFileDir"] = filepath.Dir(path)
	feature.Properties["number_of_points"] = header.PointCount
	feature.Properties["file_source_id"] = header.FileSourceID
	feature.Properties["generating_software"] = header.GeneratingSoftware
	feature.Properties["system_identifier"] = header.SystemIdentifier
	feature.Properties["version"] = fmt.Sprintf("%d.%d", header.VersionMajor, header.VersionMinor)
	if header.Date != "" {
		feature.Properties["date"] = header.Date
	}
	return feature, nil
}

// resolveCrsText turns whatever CRS material the tile carries into a string
// a Transformer can be built from.
func resolveCrsText(tile Tile, opts BuildOptions) (string, error) {
	crs, ok := ResolveCrs(tile.Header())
	if !ok {
		if !opts.GuessCrs {
			return "", ErrMissingCrs
		}
		sampleSize := opts.SampleSize
		if sampleSize <= 0 {
			sampleSize = DefaultSampleSize
		}
		return GuessCrs(tile, sampleSize)
	}

	switch c := crs.(type) {
	case CrsWkt:
		return c.Text, nil
	case CrsGeoTiff:
		return DecodeGeoTiffCrs(c.KeyDirectory, c.DoubleParams, c.AsciiParams)
	}
	return "", ErrMissingCrs
}

// boundsOutline builds the five-point closed ring of the header bounding
// box, corners ordered min/min, max/min, max/max, min/max, min/min.
func boundsOutline(header *Header, transformer Transformer) orb.Ring {
	corners := []orb.Point{
		{header.MinX, header.MinY},
		{header.MaxX, header.MinY},
		{header.MaxX, header.MaxY},
		{header.MinX, header.MaxY},
		{header.MinX, header.MinY},
	}
	ring := make(orb.Ring, len(corners))
	for i, corner := range corners {
		ring[i] = convertPoint(transformer, corner)
	}
	return ring
}

// detailedOutline transforms every readable point and closes its convex
// hull. Unreadable points are logged and skipped; hulls with fewer than
// three distinct points come back degenerate but valid.
func detailedOutline(tile Tile, transformer Transformer) (orb.Ring, error) {
	if err := tile.Seek(0); err != nil {
		return nil, fmt.Errorf("rewinding point reader: %w", err)
	}
	total := tile.Header().PointCount
	var points []orb.Point
	for i := uint64(0); i < total; i++ {
		x, y, err := tile.ReadPoint()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("Skipping unreadable point %d: %v", i, err)
			if err := tile.Seek(i + 1); err != nil {
				return nil, fmt.Errorf("skipping point %d: %w", i, err)
			}
			continue
		}
		points = append(points, convertPoint(transformer, orb.Point{x, y}))
	}
	return closeRing(convexHull(points)), nil
}

// convertPoint keeps the untransformed coordinate when conversion fails.
func convertPoint(t Transformer, p orb.Point) orb.Point {
	x, y, err := t.Convert(p[0], p[1])
	if err != nil {
		return p
	}
	return orb.Point{x, y}
}
