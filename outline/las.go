package outline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	lasSignature  = "LASF"
	lasHeaderMin  = 227 // LAS 1.0-1.2 header size
	lasHeader14   = 375 // LAS 1.4 header size
	wktCrsMask    = 0x0010
	lazFormatMask = 0x80 // high bit of the point format marks LAZ streams

	vlrHeaderSize  = 54
	evlrHeaderSize = 60
)

// LasTile is an open .las/.laz file exposing the subset of the format the
// pipeline needs: header metadata, projection records and scaled x/y point
// coordinates. Point data of compressed (LAZ) files cannot be read, but the
// header and its CRS records still can.
type LasTile struct {
	f      *os.File
	header Header

	compressed  bool
	pointOffset uint32
	recordLen   uint16
	next        uint64

	scaleX, scaleY   float64
	offsetX, offsetY float64
}

// OpenLasTile opens path and parses its header and metadata records. It is
// the production TileOpener.
func OpenLasTile(path string) (Tile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	tile, err := readLasTile(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return tile, nil
}

func readLasTile(f *os.File, path string) (*LasTile, error) {
	buf := make([]byte, lasHeaderMin)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("reading LAS header: %w", err)
	}
	if string(buf[0:4]) != lasSignature {
		return nil, fmt.Errorf("%s is not a LAS file", path)
	}

	headerSize := binary.LittleEndian.Uint16(buf[94:])
	if int(headerSize) < lasHeaderMin {
		return nil, fmt.Errorf("invalid LAS header size %d", headerSize)
	}
	if int(headerSize) > lasHeaderMin {
		rest := make([]byte, int(headerSize)-lasHeaderMin)
		if _, err := io.ReadFull(f, rest); err != nil {
			return nil, fmt.Errorf("reading LAS header: %w", err)
		}
		buf = append(buf, rest...)
	}

	globalEncoding := binary.LittleEndian.Uint16(buf[6:])
	pointFormat := buf[104]

	tile := &LasTile{
		f:           f,
		compressed:  pointFormat&lazFormatMask != 0 || strings.EqualFold(filepath.Ext(path), ".laz"),
		pointOffset: binary.LittleEndian.Uint32(buf[96:]),
		recordLen:   binary.LittleEndian.Uint16(buf[105:]),
		scaleX:      readFloat64(buf[131:]),
		scaleY:      readFloat64(buf[139:]),
		offsetX:     readFloat64(buf[155:]),
		offsetY:     readFloat64(buf[163:]),
		header: Header{
			MaxX:               readFloat64(buf[179:]),
			MinX:               readFloat64(buf[187:]),
			MaxY:               readFloat64(buf[195:]),
			MinY:               readFloat64(buf[203:]),
			PointCount:         uint64(binary.LittleEndian.Uint32(buf[107:])),
			HasWktCrs:          globalEncoding&wktCrsMask != 0,
			FileSourceID:       binary.LittleEndian.Uint16(buf[4:]),
			SystemIdentifier:   cString(buf[26:58]),
			GeneratingSoftware: cString(buf[58:90]),
			VersionMajor:       buf[24],
			VersionMinor:       buf[25],
			Date:               creationDate(binary.LittleEndian.Uint16(buf[90:]), binary.LittleEndian.Uint16(buf[92:])),
		},
	}

	// LAS 1.4 moved the point count to a 64-bit field and added EVLRs.
	var evlrOffset uint64
	var evlrCount uint32
	if len(buf) >= lasHeader14 {
		evlrOffset = binary.LittleEndian.Uint64(buf[235:])
		evlrCount = binary.LittleEndian.Uint32(buf[243:])
		if n := binary.LittleEndian.Uint64(buf[247:]); n > 0 {
			tile.header.PointCount = n
		}
	}

	numVlrs := binary.LittleEndian.Uint32(buf[100:])
	vlrs, err := readVlrs(f, numVlrs)
	if err != nil {
		return nil, err
	}
	tile.header.Vlrs = vlrs

	if evlrCount > 0 {
		if _, err := f.Seek(int64(evlrOffset), io.SeekStart); err != nil {
			return nil, fmt.Errorf("seeking to extended records: %w", err)
		}
		evlrs, err := readEvlrs(f, evlrCount)
		if err != nil {
			return nil, err
		}
		tile.header.Evlrs = evlrs
	}

	return tile, nil
}

func readVlrs(f *os.File, count uint32) ([]VLR, error) {
	var vlrs []VLR
	head := make([]byte, vlrHeaderSize)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(f, head); err != nil {
			return nil, fmt.Errorf("reading record %d header: %w", i, err)
		}
		length := binary.LittleEndian.Uint16(head[20:])
		data := make([]byte, length)
		if _, err := io.ReadFull(f, data); err != nil {
			return nil, fmt.Errorf("reading record %d payload: %w", i, err)
		}
		vlrs = append(vlrs, VLR{
			UserID:   cString(head[2:18]),
			RecordID: binary.LittleEndian.Uint16(head[18:]),
			Data:     data,
		})
	}
	return vlrs, nil
}

func readEvlrs(f *os.File, count uint32) ([]VLR, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("sizing extended records: %w", err)
	}

	var evlrs []VLR
	head := make([]byte, evlrHeaderSize)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(f, head); err != nil {
			return nil, fmt.Errorf("reading extended record %d header: %w", i, err)
		}
		length := binary.LittleEndian.Uint64(head[20:])
		offset, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("reading extended record %d: %w", i, err)
		}
		if length > uint64(info.Size()-offset) {
			return nil, fmt.Errorf("extended record %d payload length %d exceeds file size", i, length)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(f, data); err != nil {
			return nil, fmt.Errorf("reading extended record %d payload: %w", i, err)
		}
		evlrs = append(evlrs, VLR{
			UserID:   cString(head[2:18]),
			RecordID: binary.LittleEndian.Uint16(head[18:]),
			Data:     data,
		})
	}
	return evlrs, nil
}

// Header returns the parsed tile header.
func (t *LasTile) Header() *Header {
	return &t.header
}

// Compressed reports whether the point data is LAZ-compressed.
func (t *LasTile) Compressed() bool {
	return t.compressed
}

// ReadPoint returns the next point's scaled x/y coordinates and io.EOF
// after the last point.
func (t *LasTile) ReadPoint() (float64, float64, error) {
	if t.compressed {
		return 0, 0, errors.New("compressed point data is not supported")
	}
	if t.next >= t.header.PointCount {
		return 0, 0, io.EOF
	}
	buf := make([]byte, 8)
	offset := int64(t.pointOffset) + int64(t.next)*int64(t.recordLen)
	if _, err := t.f.ReadAt(buf, offset); err != nil {
		return 0, 0, fmt.Errorf("reading point %d: %w", t.next, err)
	}
	rawX := int32(binary.LittleEndian.Uint32(buf[0:4]))
	rawY := int32(binary.LittleEndian.Uint32(buf[4:8]))
	t.next++
	return float64(rawX)*t.scaleX + t.offsetX, float64(rawY)*t.scaleY + t.offsetY, nil
}

// Seek positions the reader at the given point index.
func (t *LasTile) Seek(index uint64) error {
	if index > t.header.PointCount {
		return fmt.Errorf("point index %d out of range (%d points)", index, t.header.PointCount)
	}
	t.next = index
	return nil
}

// Close closes the underlying file.
func (t *LasTile) Close() error {
	return t.f.Close()
}

func readFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// cString trims a fixed-width LAS string field at its first NUL byte.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// creationDate formats the header's day-of-year/year pair, empty when unset.
func creationDate(dayOfYear, year uint16) string {
	if year == 0 || dayOfYear == 0 || dayOfYear > 366 {
		return ""
	}
	d := time.Date(int(year), 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(dayOfYear)-1)
	return d.Format("2006-01-02")
}
