package outline

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// GeoTIFF keys recognized by the decoder.
const (
	geoKeyCitation        = 1026
	geoKeyGeographicType  = 2048
	geoKeyProjectedCSType = 3072

	geoValueUserDefined = 32767
	geoValueUndefined   = 65535
)

// DecodeGeoTiffCrs recovers a CRS string from the GeoKeyDirectoryTag payload
// of a tile, consulting the optional GeoDoubleParamsTag and GeoAsciiParamsTag
// payloads for citation keys. Later keys overwrite earlier results. Returns
// an empty string when no recognized key is present.
func DecodeGeoTiffCrs(keyDirectory, doubleParams, asciiParams []byte) (string, error) {
	if len(keyDirectory) < 8 {
		return "", fmt.Errorf("GeoKeyDirectoryTag too short: %d bytes", len(keyDirectory))
	}

	entries := make([]uint16, 0, len(keyDirectory)/2)
	for i := 0; i+1 < len(keyDirectory); i += 2 {
		entries = append(entries, binary.LittleEndian.Uint16(keyDirectory[i:]))
	}

	// Four header values, then one (keyID, tagLocation, count, valueOffset)
	// group per key. entries[3] holds the key count.
	numKeys := int(entries[3])
	var crs string
	for i := 0; i < numKeys; i++ {
		base := 4 + i*4
		if base+3 >= len(entries) {
			return "", fmt.Errorf("GeoKeyDirectoryTag truncated: key %d of %d missing", i+1, numKeys)
		}
		keyID := entries[base]
		tagLocation := entries[base+1]
		count := entries[base+2]
		valueOffset := entries[base+3]

		switch keyID {
		case geoKeyGeographicType, geoKeyProjectedCSType:
			if valueOffset != geoValueUserDefined && valueOffset != geoValueUndefined {
				crs = fmt.Sprintf("EPSG:%d ", valueOffset)
			}
		case geoKeyCitation:
			switch tagLocation {
			case recordGeoDoubleParams:
				if doubleParams == nil {
					break
				}
				if int(valueOffset) >= len(doubleParams) {
					return "", fmt.Errorf("GeoDoubleParamsTag index %d out of range (%d bytes)",
						valueOffset, len(doubleParams))
				}
				crs = fmt.Sprintf("%d", doubleParams[valueOffset])
			case recordGeoAsciiParams:
				if asciiParams == nil {
					break
				}
				end := int(valueOffset) + int(count) - 1
				if end < int(valueOffset) || end > len(asciiParams) {
					return "", fmt.Errorf("GeoAsciiParamsTag slice [%d:%d] out of range (%d bytes)",
						valueOffset, end, len(asciiParams))
				}
				crs = string(asciiParams[valueOffset:end])
			}
		}
	}

	// Citations often carry a parenthetical EPSG suffix; keep the name.
	if idx := strings.Index(crs, " (EPSG:"); idx >= 0 {
		crs = crs[:idx]
	}
	return strings.TrimSpace(crs), nil
}
