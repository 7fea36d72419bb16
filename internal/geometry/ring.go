// Package geometry provides closed coordinate rings and point-in-polygon evaluation
// in planar (lon, lat) space.
package geometry

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ErrInvalidRing is returned when fewer than 3 distinct vertices survive parsing.
var ErrInvalidRing = eris.New("geometry: ring needs at least 3 distinct vertices")

// minDistinctVertices is the smallest vertex count that bounds an area.
const minDistinctVertices = 3

// Coordinate is a point in decimal degrees.
type Coordinate struct {
	Lon float64
	Lat float64
}

// RawPoint is one vertex record as it appears in a region source document.
// Both fields hold the textual form of a decimal degree value.
type RawPoint struct {
	Longitud string
	Latitud  string
}

// RawPointFrom formats a parsed coordinate back into a RawPoint without losing precision.
func RawPointFrom(c Coordinate) RawPoint {
	return RawPoint{
		Longitud: strconv.FormatFloat(c.Lon, 'g', -1, 64),
		Latitud:  strconv.FormatFloat(c.Lat, 'g', -1, 64),
	}
}

// Ring is a closed sequence of coordinates bounding a simple polygon.
// The zero value is an empty ring that contains nothing.
type Ring struct {
	lr *geom.LinearRing
}

// NormalizeRing parses raw vertex records into a closed Ring.
// Records whose fields are not finite numbers are dropped. The input slice is not modified.
func NormalizeRing(points []RawPoint) (Ring, error) {
	coords := make([]Coordinate, 0, len(points)+1)
	for _, p := range points {
		lon, okLon := parseDegrees(p.Longitud)
		lat, okLat := parseDegrees(p.Latitud)
		if !okLon || !okLat {
			continue
		}
		coords = append(coords, Coordinate{Lon: lon, Lat: lat})
	}
	return closeRing(coords)
}

// NewRing validates and closes an already parsed vertex list.
// The input slice is not modified.
func NewRing(coords []Coordinate) (Ring, error) {
	cp := make([]Coordinate, 0, len(coords)+1)
	for _, c := range coords {
		if !finite(c.Lon) || !finite(c.Lat) {
			continue
		}
		cp = append(cp, c)
	}
	return closeRing(cp)
}

// closeRing takes ownership of coords.
func closeRing(coords []Coordinate) (Ring, error) {
	if n := distinct(coords); n < minDistinctVertices {
		return Ring{}, eris.Wrapf(ErrInvalidRing, "geometry: got %d distinct vertices", n)
	}

	first, last := coords[0], coords[len(coords)-1]
	if first.Lon != last.Lon || first.Lat != last.Lat {
		coords = append(coords, first)
	}

	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c.Lon, c.Lat)
	}
	return Ring{lr: geom.NewLinearRingFlat(geom.XY, flat)}, nil
}

// Len returns the number of stored vertices, including the closing vertex.
func (r Ring) Len() int {
	if r.lr == nil {
		return 0
	}
	return r.lr.NumCoords()
}

// Coords returns a copy of the ring's vertices, closing vertex included.
func (r Ring) Coords() []Coordinate {
	if r.lr == nil {
		return nil
	}
	flat := r.lr.FlatCoords()
	out := make([]Coordinate, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		out = append(out, Coordinate{Lon: flat[i], Lat: flat[i+1]})
	}
	return out
}

// Bounds returns the ring's bounding box, or nil for the zero ring.
func (r Ring) Bounds() *geom.Bounds {
	if r.lr == nil {
		return nil
	}
	return r.lr.Bounds()
}

// Polygon returns the ring as a single-ring go-geom polygon for encoders.
func (r Ring) Polygon() *geom.Polygon {
	if r.lr == nil {
		return geom.NewPolygon(geom.XY)
	}
	flat := append([]float64(nil), r.lr.FlatCoords()...)
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
}

// IsZero reports whether the ring holds no vertices.
func (r Ring) IsZero() bool {
	return r.lr == nil
}

func parseDegrees(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func distinct(coords []Coordinate) int {
	seen := make(map[Coordinate]struct{}, len(coords))
	for _, c := range coords {
		seen[c] = struct{}{}
	}
	return len(seen)
}
