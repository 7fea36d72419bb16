package catalog

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/area-check/internal/geometry"
)

// decodeShapefile reads polygon records as grouped regions. The region id comes
// from the configured attribute (default "id", falling back to "name"); only the
// first part of each polygon is used.
func decodeShapefile(path string, opts FileOptions) (Document, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}
	idIdx := columnIndex(names, idField(opts))
	if idIdx < 0 && opts.IDField == "" {
		idIdx = columnIndex(names, "name")
	}

	var groups []Group
	for reader.Next() {
		n, shape := reader.Shape()

		id := strconv.Itoa(n + 1)
		if idIdx >= 0 {
			if v := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00")); v != "" {
				id = v
			}
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			zap.L().Debug("catalog: non-polygon shapefile record", zap.Int("record", n))
			groups = append(groups, Group{ID: id})
			continue
		}
		groups = append(groups, Group{ID: id, Coordinates: firstPart(poly)})
	}
	return GroupedRegions{Groups: groups}, nil
}

func firstPart(p *shp.Polygon) []geometry.RawPoint {
	if p.NumParts == 0 || len(p.Parts) == 0 || len(p.Points) == 0 {
		return nil
	}
	start, end := p.Parts[0], int32(len(p.Points))
	if len(p.Parts) > 1 && p.Parts[1] < end {
		end = p.Parts[1]
	}
	// Corrupt part offsets yield an empty ring; the build policy decides its fate.
	if start < 0 || start >= end {
		return nil
	}

	points := make([]geometry.RawPoint, 0, end-start)
	for j := start; j < end; j++ {
		points = append(points, geometry.RawPointFrom(geometry.Coordinate{Lon: p.Points[j].X, Lat: p.Points[j].Y}))
	}
	return points
}
