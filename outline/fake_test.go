package outline

import (
	"errors"
	"fmt"
	"io"
)

// fakeTile is an in-memory Tile for tests.
type fakeTile struct {
	header     Header
	points     [][2]float64
	compressed bool
	next       int
}

func newFakeTile(points [][2]float64) *fakeTile {
	t := &fakeTile{points: points}
	t.header.PointCount = uint64(len(points))
	for i, p := range points {
		if i == 0 {
			t.header.MinX, t.header.MaxX = p[0], p[0]
			t.header.MinY, t.header.MaxY = p[1], p[1]
			continue
		}
		if p[0] < t.header.MinX {
			t.header.MinX = p[0]
		}
		if p[0] > t.header.MaxX {
			t.header.MaxX = p[0]
		}
		if p[1] < t.header.MinY {
			t.header.MinY = p[1]
		}
		if p[1] > t.header.MaxY {
			t.header.MaxY = p[1]
		}
	}
	return t
}

func (t *fakeTile) Header() *Header {
	return &t.header
}

func (t *fakeTile) Compressed() bool {
	return t.compressed
}

func (t *fakeTile) ReadPoint() (float64, float64, error) {
	if t.next >= len(t.points) {
		return 0, 0, io.EOF
	}
	p := t.points[t.next]
	t.next++
	return p[0], p[1], nil
}

func (t *fakeTile) Seek(index uint64) error {
	if index > uint64(len(t.points)) {
		return fmt.Errorf("point index %d out of range", index)
	}
	t.next = int(index)
	return nil
}

func (t *fakeTile) Close() error {
	return nil
}

func wktHeader(text string) Header {
	return Header{
		HasWktCrs: true,
		Vlrs: []VLR{
			{UserID: lasfProjectionUserID, RecordID: recordWktCrs, Data: []byte(text)},
		},
	}
}

// offsetTransformer shifts coordinates by fixed deltas.
type offsetTransformer struct {
	dx, dy float64
}

func (t offsetTransformer) Convert(x, y float64) (float64, float64, error) {
	return x + t.dx, y + t.dy, nil
}

// failingTransformer rejects every conversion.
type failingTransformer struct{}

func (failingTransformer) Convert(x, y float64) (float64, float64, error) {
	return 0, 0, errors.New("no inverse operation")
}

// identityFactory ignores the CRS pair and converts nothing.
func identityFactory(sourceCrs, targetCrs string) (Transformer, error) {
	return identityTransformer{}, nil
}
