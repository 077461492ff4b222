package outline

import (
	"encoding/binary"
	"strings"
	"testing"
)

// keyDirectory packs u16 values into the little-endian byte layout of a
// GeoKeyDirectoryTag payload.
func keyDirectory(values ...uint16) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[2*i:], v)
	}
	return out
}

func TestDecodeGeoTiffCrs(t *testing.T) {
	t.Run("projected cs key", func(t *testing.T) {
		dir := keyDirectory(1, 1, 0, 1, geoKeyProjectedCSType, 0, 1, 2193)
		crs, err := DecodeGeoTiffCrs(dir, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if crs != "EPSG:2193" {
			t.Errorf("expected EPSG:2193, got %q", crs)
		}
	})

	t.Run("geographic cs key", func(t *testing.T) {
		dir := keyDirectory(1, 1, 0, 1, geoKeyGeographicType, 0, 1, 4326)
		crs, err := DecodeGeoTiffCrs(dir, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if crs != "EPSG:4326" {
			t.Errorf("expected EPSG:4326, got %q", crs)
		}
	})

	t.Run("user defined sentinel skipped", func(t *testing.T) {
		dir := keyDirectory(1, 1, 0, 2,
			geoKeyProjectedCSType, 0, 1, geoValueUserDefined,
			geoKeyGeographicType, 0, 1, geoValueUndefined)
		crs, err := DecodeGeoTiffCrs(dir, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if crs != "" {
			t.Errorf("expected empty result, got %q", crs)
		}
	})

	t.Run("later key overwrites earlier", func(t *testing.T) {
		dir := keyDirectory(1, 1, 0, 2,
			geoKeyGeographicType, 0, 1, 4326,
			geoKeyProjectedCSType, 0, 1, 2193)
		crs, err := DecodeGeoTiffCrs(dir, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if crs != "EPSG:2193" {
			t.Errorf("expected last key to win, got %q", crs)
		}
	})

	t.Run("ascii citation with epsg suffix truncated", func(t *testing.T) {
		ascii := []byte("NZGD2000 / NZTM2000 (EPSG:2193)\x00")
		dir := keyDirectory(1, 1, 0, 1,
			geoKeyCitation, recordGeoAsciiParams, uint16(len(ascii)), 0)
		crs, err := DecodeGeoTiffCrs(dir, nil, ascii)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if crs != "NZGD2000 / NZTM2000" {
			t.Errorf("expected citation name only, got %q", crs)
		}
	})

	t.Run("ascii citation offset and count window", func(t *testing.T) {
		ascii := []byte("junkWGS 84|tail")
		dir := keyDirectory(1, 1, 0, 1,
			geoKeyCitation, recordGeoAsciiParams, 7, 4)
		crs, err := DecodeGeoTiffCrs(dir, nil, ascii)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if crs != "WGS 84" {
			t.Errorf("expected WGS 84, got %q", crs)
		}
	})

	t.Run("double citation formats single byte", func(t *testing.T) {
		doubles := []byte{65, 66, 67}
		dir := keyDirectory(1, 1, 0, 1,
			geoKeyCitation, recordGeoDoubleParams, 1, 1)
		crs, err := DecodeGeoTiffCrs(dir, doubles, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if crs != "66" {
			t.Errorf("expected byte value 66, got %q", crs)
		}
	})

	t.Run("citation with missing optional buffer skipped", func(t *testing.T) {
		dir := keyDirectory(1, 1, 0, 1,
			geoKeyCitation, recordGeoAsciiParams, 5, 0)
		crs, err := DecodeGeoTiffCrs(dir, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if crs != "" {
			t.Errorf("expected empty result, got %q", crs)
		}
	})

	t.Run("result is whitespace trimmed", func(t *testing.T) {
		dir := keyDirectory(1, 1, 0, 1, geoKeyProjectedCSType, 0, 1, 2193)
		crs, err := DecodeGeoTiffCrs(dir, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.HasSuffix(crs, " ") {
			t.Errorf("trailing space not trimmed: %q", crs)
		}
	})
}

func TestDecodeGeoTiffCrsErrors(t *testing.T) {
	t.Run("payload too short", func(t *testing.T) {
		if _, err := DecodeGeoTiffCrs([]byte{1, 0, 1, 0}, nil, nil); err == nil {
			t.Error("expected error for short payload")
		}
	})

	t.Run("truncated key entries", func(t *testing.T) {
		dir := keyDirectory(1, 1, 0, 3, geoKeyProjectedCSType, 0, 1, 2193)
		if _, err := DecodeGeoTiffCrs(dir, nil, nil); err == nil {
			t.Error("expected error for truncated directory")
		}
	})

	t.Run("ascii index out of range", func(t *testing.T) {
		ascii := []byte("short")
		dir := keyDirectory(1, 1, 0, 1,
			geoKeyCitation, recordGeoAsciiParams, 50, 2)
		if _, err := DecodeGeoTiffCrs(dir, nil, ascii); err == nil {
			t.Error("expected error for out-of-range ascii window")
		}
	})

	t.Run("double index out of range", func(t *testing.T) {
		doubles := []byte{65}
		dir := keyDirectory(1, 1, 0, 1,
			geoKeyCitation, recordGeoDoubleParams, 1, 9)
		if _, err := DecodeGeoTiffCrs(dir, doubles, nil); err == nil {
			t.Error("expected error for out-of-range double index")
		}
	})

	t.Run("zero count ascii window is invalid", func(t *testing.T) {
		ascii := []byte("abc")
		dir := keyDirectory(1, 1, 0, 1,
			geoKeyCitation, recordGeoAsciiParams, 0, 1)
		if _, err := DecodeGeoTiffCrs(dir, nil, ascii); err == nil {
			t.Error("expected error for inverted ascii window")
		}
	})
}
