package outline

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
)

var (
	// ErrMissingCrs means a tile header carries no CRS records at all.
	ErrMissingCrs = errors.New("CRS information not found in file")
	// ErrCrsUnguessable means the sampled coordinates fit none of the
	// known coordinate windows.
	ErrCrsUnguessable = errors.New("failed to guess CRS from points")
)

const (
	lasfProjectionUserID = "LASF_Projection"
	liblasUserID         = "liblas" // legacy writer alias, WKT records only

	recordWktMathTransform = 2111
	recordWktCrs           = 2112
	recordGeoKeyDirectory  = 34735
	recordGeoDoubleParams  = 34736
	recordGeoAsciiParams   = 34737
)

// Crs is a coordinate reference system as found in a tile header: either
// ready-to-use CRS text or raw GeoTIFF tag payloads that still need decoding.
type Crs interface {
	isCrs()
}

// CrsWkt holds CRS text taken directly from a WKT metadata record.
type CrsWkt struct {
	Text string
}

// CrsGeoTiff holds the raw GeoTIFF projection tag payloads. DoubleParams and
// AsciiParams are nil when the tile does not carry those records.
type CrsGeoTiff struct {
	KeyDirectory []byte
	DoubleParams []byte
	AsciiParams  []byte
}

func (CrsWkt) isCrs()     {}
func (CrsGeoTiff) isCrs() {}

// ResolveCrs scans a tile header's metadata records for the CRS they
// declare. Headers with the WKT flag set are searched for WKT records in
// regular then extended records; all other headers are searched for GeoTIFF
// projection tags in regular records only. The boolean is false when the
// header declares no CRS.
func ResolveCrs(header *Header) (Crs, bool) {
	if header.HasWktCrs {
		if crs, ok := findWktRecord(header.Vlrs); ok {
			return crs, true
		}
		if crs, ok := findWktRecord(header.Evlrs); ok {
			return crs, true
		}
		return nil, false
	}

	var keyDirectory, doubleParams, asciiParams []byte
	for _, vlr := range header.Vlrs {
		if vlr.UserID != lasfProjectionUserID {
			continue
		}
		switch vlr.RecordID {
		case recordGeoKeyDirectory:
			keyDirectory = vlr.Data
		case recordGeoDoubleParams:
			doubleParams = vlr.Data
		case recordGeoAsciiParams:
			asciiParams = vlr.Data
		}
	}
	if keyDirectory != nil {
		return CrsGeoTiff{
			KeyDirectory: keyDirectory,
			DoubleParams: doubleParams,
			AsciiParams:  asciiParams,
		}, true
	}
	return nil, false
}

func findWktRecord(records []VLR) (Crs, bool) {
	for _, vlr := range records {
		if vlr.UserID != lasfProjectionUserID && vlr.UserID != liblasUserID {
			continue
		}
		if vlr.RecordID != recordWktMathTransform && vlr.RecordID != recordWktCrs {
			continue
		}
		text := strings.TrimSpace(strings.TrimRight(string(vlr.Data), "\x00"))
		if text != "" {
			return CrsWkt{Text: text}, true
		}
	}
	return nil, false
}

// Coordinate windows used to tell the supported reference systems apart:
// geographic degrees (EPSG:4326) and NZTM2000 meters (EPSG:2193).
const (
	geoMinX, geoMaxX = -180.0, 180.0
	geoMinY, geoMaxY = -90.0, 90.0

	nztmMinX, nztmMaxX = 800000.0, 2400000.0
	nztmMinY, nztmMaxY = 4000000.0, 9000000.0
)

// GuessCrs samples up to sampleSize point coordinates from a tile and
// returns the EPSG code of the coordinate window every sample falls in.
func GuessCrs(tile Tile, sampleSize int) (string, error) {
	points, err := samplePoints(tile, sampleSize)
	if err != nil {
		return "", err
	}
	if len(points) == 0 {
		return "", ErrCrsUnguessable
	}

	isGeo, isProjected := true, true
	for _, p := range points {
		if !(p[0] > geoMinX && p[0] < geoMaxX && p[1] > geoMinY && p[1] < geoMaxY) {
			isGeo = false
		}
		if !(p[0] > nztmMinX && p[0] < nztmMaxX && p[1] > nztmMinY && p[1] < nztmMaxY) {
			isProjected = false
		}
		if !isGeo && !isProjected {
			return "", ErrCrsUnguessable
		}
	}
	if isGeo {
		return "EPSG:4326", nil
	}
	if isProjected {
		return "EPSG:2193", nil
	}
	return "", ErrCrsUnguessable
}

func samplePoints(tile Tile, sampleSize int) ([][2]float64, error) {
	total := tile.Header().PointCount
	if total == 0 || sampleSize <= 0 {
		return nil, nil
	}

	var points [][2]float64

	// Random seeks are prohibitively expensive on compressed streams; take
	// the first points sequentially instead.
	if tile.Compressed() {
		n := uint64(sampleSize)
		if n > total {
			n = total
		}
		for i := uint64(0); i < n; i++ {
			x, y, err := tile.ReadPoint()
			if err != nil {
				return nil, fmt.Errorf("sampling point %d: %w", i, err)
			}
			points = append(points, [2]float64{x, y})
		}
		return points, nil
	}

	if uint64(sampleSize) >= total {
		for {
			x, y, err := tile.ReadPoint()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("sampling points: %w", err)
			}
			points = append(points, [2]float64{x, y})
		}
		return points, nil
	}

	// Uniform random indices with replacement.
	for i := 0; i < sampleSize; i++ {
		index := uint64(rand.Int63n(int64(total)))
		if err := tile.Seek(index); err != nil {
			return nil, fmt.Errorf("seeking to point %d: %w", index, err)
		}
		x, y, err := tile.ReadPoint()
		if err != nil {
			return nil, fmt.Errorf("sampling point %d: %w", index, err)
		}
		points = append(points, [2]float64{x, y})
	}
	return points, nil
}
