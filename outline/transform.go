package outline

import (
	"fmt"

	proj "github.com/twpayne/go-proj/v10"
)

// CanonicalCrs is the reference system every outline is expressed in.
const CanonicalCrs = "EPSG:4326"

// Transformer converts a single coordinate pair between two reference
// systems. Implementations are not safe for concurrent use.
type Transformer interface {
	Convert(x, y float64) (float64, float64, error)
}

// TransformerFactory builds a Transformer between two CRS strings (WKT,
// "EPSG:nnnn", or anything else PROJ accepts). Swappable in tests.
type TransformerFactory func(sourceCrs, targetCrs string) (Transformer, error)

// NewProjTransformer builds a PROJ-backed Transformer. Each instance wraps
// one PROJ pipeline, so callers create one per tile instead of sharing
// across goroutines.
func NewProjTransformer(sourceCrs, targetCrs string) (Transformer, error) {
	if sourceCrs == targetCrs {
		return identityTransformer{}, nil
	}
	pj, err := proj.NewCRSToCRS(sourceCrs, targetCrs, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s -> %s transformation: %w", sourceCrs, targetCrs, err)
	}
	return &projTransformer{pj: pj}, nil
}

type projTransformer struct {
	pj *proj.PJ
}

func (t *projTransformer) Convert(x, y float64) (float64, float64, error) {
	coord, err := t.pj.Forward(proj.NewCoord(x, y, 0, 0))
	if err != nil {
		return 0, 0, err
	}
	return coord.X(), coord.Y(), nil
}

func (t *projTransformer) Close() error {
	t.pj.Destroy()
	return nil
}

type identityTransformer struct{}

func (identityTransformer) Convert(x, y float64) (float64, float64, error) {
	return x, y, nil
}
