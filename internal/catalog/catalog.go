// Package catalog turns region source documents into a uniform set of named rings.
//
// A source document is either a flat list of vertex records (one implicit
// region) or a list of {id, coordinates} groups (many named regions). Decoders
// produce a tagged Document; Build normalizes it into a Catalog.
package catalog

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/area-check/internal/geometry"
)

// Shape identifies which document variant a catalog was built from.
type Shape int

const (
	// ShapeFlat is a single implicit region built from a flat vertex list.
	ShapeFlat Shape = iota
	// ShapeGrouped is a list of named regions.
	ShapeGrouped
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeGrouped:
		return "grouped"
	default:
		return "unknown"
	}
}

// Policy controls what happens to an invalid group in a grouped document.
type Policy int

const (
	// PolicySkip drops invalid groups and keeps loading.
	PolicySkip Policy = iota
	// PolicyStrict fails the whole load on the first invalid group.
	PolicyStrict
)

// Document is a decoded source document: FlatRegion or GroupedRegions.
type Document interface {
	Shape() Shape
}

// FlatRegion is a flat vertex list describing one implicit region.
type FlatRegion struct {
	Points []geometry.RawPoint
}

// Shape implements Document.
func (FlatRegion) Shape() Shape { return ShapeFlat }

// Group is one named vertex list inside a grouped document.
type Group struct {
	ID          string
	Coordinates []geometry.RawPoint
}

// GroupedRegions is a list of named vertex lists.
type GroupedRegions struct {
	Groups []Group
}

// Shape implements Document.
func (GroupedRegions) Shape() Shape { return ShapeGrouped }

// Region is one named ring. The implicit region of a flat catalog has an empty ID.
type Region struct {
	ID   string
	Ring geometry.Ring
}

// Catalog is the set of regions derived from one source read.
// Every region holds a valid closed ring.
type Catalog struct {
	Shape   Shape
	Regions []Region
}

// Build normalizes a decoded document into a Catalog.
//
// A flat document with an invalid ring fails. Invalid groups of a grouped
// document are skipped under PolicySkip and fail the build under PolicyStrict.
func Build(doc Document, policy Policy) (*Catalog, error) {
	switch d := doc.(type) {
	case FlatRegion:
		ring, err := geometry.NormalizeRing(d.Points)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: flat region")
		}
		return &Catalog{Shape: ShapeFlat, Regions: []Region{{Ring: ring}}}, nil

	case GroupedRegions:
		cat := &Catalog{Shape: ShapeGrouped, Regions: make([]Region, 0, len(d.Groups))}
		for _, g := range d.Groups {
			ring, err := geometry.NormalizeRing(g.Coordinates)
			if err != nil {
				if policy == PolicyStrict {
					return nil, eris.Wrapf(err, "catalog: region %q", g.ID)
				}
				zap.L().Warn("catalog: skipping invalid region",
					zap.String("id", g.ID),
					zap.Int("points", len(g.Coordinates)),
					zap.Error(err),
				)
				continue
			}
			cat.Regions = append(cat.Regions, Region{ID: g.ID, Ring: ring})
		}
		return cat, nil

	case nil:
		return nil, eris.New("catalog: nil document")

	default:
		return nil, eris.Errorf("catalog: unsupported document %T", doc)
	}
}

// Containing returns the IDs of every region whose ring contains p, in catalog order.
func (c *Catalog) Containing(p geometry.Coordinate) []string {
	var ids []string
	for _, r := range c.Regions {
		if geometry.Contains(r.Ring, p) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
