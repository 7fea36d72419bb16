package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/area-check/internal/geometry"
)

type geojsonEnvelope struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type geojsonFeature struct {
	ID         json.RawMessage `json:"id"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// decodeGeoJSON reads a FeatureCollection or a single Feature as grouped regions.
// Only the outer ring of the first polygon of each feature is used.
func decodeGeoJSON(data []byte) (Document, error) {
	var env geojsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(err, "catalog: decode geojson")
	}

	var raws []json.RawMessage
	switch strings.ToLower(env.Type) {
	case "featurecollection":
		raws = env.Features
	case "feature":
		raws = []json.RawMessage{data}
	default:
		return nil, eris.Errorf("catalog: unsupported geojson type %q", env.Type)
	}

	groups := make([]Group, 0, len(raws))
	for i, raw := range raws {
		var f geojsonFeature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, eris.Wrapf(err, "catalog: decode geojson feature %d", i)
		}
		groups = append(groups, Group{
			ID:          featureID(f, i),
			Coordinates: featureRing(f, i),
		})
	}
	return GroupedRegions{Groups: groups}, nil
}

func featureID(f geojsonFeature, idx int) string {
	if len(f.ID) > 0 && !bytes.Equal(f.ID, []byte("null")) {
		var s string
		if err := json.Unmarshal(f.ID, &s); err == nil && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(f.ID, &n); err == nil {
			return n.String()
		}
	}
	if v, ok := lookup(f.Properties, "id", "name"); ok {
		if s := text(v); s != "" {
			return s
		}
	}
	return strconv.Itoa(idx + 1)
}

// featureRing returns the outer ring vertices, or nil when the geometry is not areal.
func featureRing(f geojsonFeature, idx int) []geometry.RawPoint {
	if len(f.Geometry) == 0 || bytes.Equal(f.Geometry, []byte("null")) {
		return nil
	}

	var g geom.T
	if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
		zap.L().Debug("catalog: unreadable geojson geometry", zap.Int("feature", idx), zap.Error(err))
		return nil
	}

	var outer *geom.LinearRing
	switch p := g.(type) {
	case *geom.Polygon:
		if p.NumLinearRings() > 0 {
			outer = p.LinearRing(0)
		}
	case *geom.MultiPolygon:
		if p.NumPolygons() > 0 && p.Polygon(0).NumLinearRings() > 0 {
			if p.NumPolygons() > 1 {
				zap.L().Debug("catalog: using first polygon of multipolygon", zap.Int("feature", idx))
			}
			outer = p.Polygon(0).LinearRing(0)
		}
	}
	if outer == nil {
		return nil
	}

	points := make([]geometry.RawPoint, 0, outer.NumCoords())
	for i := 0; i < outer.NumCoords(); i++ {
		c := outer.Coord(i)
		points = append(points, geometry.RawPointFrom(geometry.Coordinate{Lon: c.X(), Lat: c.Y()}))
	}
	return points
}
