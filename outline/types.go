package outline

// VLR is one variable-length metadata record from a tile header. Extended
// records share the same shape once their longer length field is read.
type VLR struct {
	UserID   string
	RecordID uint16
	Data     []byte
}

// Header carries the tile metadata the pipeline needs: bounds, point count,
// provenance fields for the output properties, and the raw metadata records
// the CRS resolver scans.
type Header struct {
	MinX, MinY float64
	MaxX, MaxY float64

	PointCount uint64
	HasWktCrs  bool

	FileSourceID       uint16
	SystemIdentifier   string
	GeneratingSoftware string
	VersionMajor       uint8
	VersionMinor       uint8
	Date               string

	Vlrs  []VLR
	Evlrs []VLR
}

// Tile is one open point-cloud file. ReadPoint returns scaled x/y
// coordinates and io.EOF after the last point. Seek positions the reader at
// a point index for random sampling. Implementations are not safe for
// concurrent use; each worker opens its own tiles.
type Tile interface {
	Header() *Header
	Compressed() bool
	ReadPoint() (x, y float64, err error)
	Seek(index uint64) error
	Close() error
}

// TileOpener opens the tile at path. Swappable in tests.
type TileOpener func(path string) (Tile, error)
