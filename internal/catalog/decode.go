package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/area-check/internal/geometry"
)

// Format names a source document encoding.
type Format string

// Supported formats.
const (
	FormatJSON      Format = "json"
	FormatYAML      Format = "yaml"
	FormatGeoJSON   Format = "geojson"
	FormatXLSX      Format = "xlsx"
	FormatCSV       Format = "csv"
	FormatShapefile Format = "shp"
)

// ParseFormat maps a user-supplied format name to a Format. An empty name yields "".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", nil
	case "json", "js":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "geojson":
		return FormatGeoJSON, nil
	case "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "shp", "shapefile":
		return FormatShapefile, nil
	default:
		return "", eris.Errorf("catalog: unknown format %q", name)
	}
}

// FormatFromPath infers a Format from a file name or URL path extension.
// Unknown extensions default to JSON.
func FormatFromPath(path string) Format {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil || f == "" {
		return FormatJSON
	}
	return f
}

// Decode parses an in-memory document. XLSX and shapefile sources are file
// based and go through DecodeFile instead.
func Decode(data []byte, format Format) (Document, error) {
	switch format {
	case FormatJSON, "":
		trimmed := stripModuleWrapper(bytes.TrimSpace(data))
		if len(trimmed) > 0 && trimmed[0] == '{' {
			return decodeGeoJSON(trimmed)
		}
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var items []any
		if err := dec.Decode(&items); err != nil {
			return nil, eris.Wrap(err, "catalog: decode json")
		}
		return fromList(items)

	case FormatYAML:
		var items []any
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, eris.Wrap(err, "catalog: decode yaml")
		}
		return fromList(items)

	case FormatGeoJSON:
		return decodeGeoJSON(data)

	case FormatCSV:
		return decodeCSV(data, FileOptions{})

	default:
		return nil, eris.Errorf("catalog: format %q cannot be decoded from memory", format)
	}
}

// decodeBytes is Decode with the id column option honored for CSV.
func decodeBytes(data []byte, format Format, opts FileOptions) (Document, error) {
	if format == FormatCSV {
		return decodeCSV(data, opts)
	}
	return Decode(data, format)
}

// stripModuleWrapper removes a JavaScript module export around a JSON literal,
// so region files written as `export default [...]` decode as plain JSON.
func stripModuleWrapper(data []byte) []byte {
	for _, prefix := range [][]byte{[]byte("export default"), []byte("module.exports =")} {
		if bytes.HasPrefix(data, prefix) {
			data = bytes.TrimSpace(data[len(prefix):])
			data = bytes.TrimSpace(bytes.TrimSuffix(data, []byte(";")))
			break
		}
	}
	return data
}

// fromList applies shape detection to a generic list: a coordinates field on the
// first element selects the grouped variant, anything else is a flat vertex list.
// A list of [lon, lat] pairs is flat as well.
func fromList(items []any) (Document, error) {
	if len(items) == 0 {
		return FlatRegion{}, nil
	}

	if _, pair := items[0].([]any); pair {
		return FlatRegion{Points: pointsFrom(items)}, nil
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return nil, eris.Errorf("catalog: list elements must be objects or [lon, lat] pairs, got %T", items[0])
	}
	if _, grouped := lookup(first, "coordinates"); !grouped {
		return FlatRegion{Points: pointsFrom(items)}, nil
	}

	groups := make([]Group, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			// Kept as an empty group so the build policy decides its fate.
			groups = append(groups, Group{ID: strconv.Itoa(i + 1)})
			continue
		}
		id := strconv.Itoa(i + 1)
		if v, ok := lookup(m, "id"); ok {
			if s := text(v); s != "" {
				id = s
			}
		}
		var coords []any
		if v, ok := lookup(m, "coordinates"); ok {
			coords, _ = v.([]any)
		}
		groups = append(groups, Group{ID: id, Coordinates: pointsFrom(coords)})
	}
	return GroupedRegions{Groups: groups}, nil
}

// pointsFrom converts vertex records into RawPoints. Records are either objects
// with Longitud/Latitud style keys or [lon, lat] pairs. Unusable records become
// empty points and are dropped during ring normalization.
func pointsFrom(items []any) []geometry.RawPoint {
	out := make([]geometry.RawPoint, 0, len(items))
	for _, it := range items {
		switch rec := it.(type) {
		case map[string]any:
			lon, _ := lookup(rec, "Longitud", "lon", "lng", "longitude", "x")
			lat, _ := lookup(rec, "Latitud", "lat", "latitude", "y")
			out = append(out, geometry.RawPoint{Longitud: text(lon), Latitud: text(lat)})
		case []any:
			if len(rec) >= 2 {
				out = append(out, geometry.RawPoint{Longitud: text(rec[0]), Latitud: text(rec[1])})
				continue
			}
			out = append(out, geometry.RawPoint{})
		default:
			out = append(out, geometry.RawPoint{})
		}
	}
	return out
}

// lookup returns the first key present in m, matched case-insensitively.
func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	for _, k := range keys {
		for mk, v := range m {
			if strings.EqualFold(mk, k) {
				return v, true
			}
		}
	}
	return nil, false
}

// text renders a scalar decoded from JSON or YAML as a string.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool, map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
