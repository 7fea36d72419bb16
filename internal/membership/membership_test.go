package membership

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/area-check/internal/catalog"
	"github.com/sells-group/area-check/internal/geometry"
	"github.com/sells-group/area-check/pkg/geocode"
)

type stubGeocoder struct {
	result *geocode.Result
	err    error
	calls  atomic.Int32
	got    string
}

func (s *stubGeocoder) Geocode(_ context.Context, address string) (*geocode.Result, error) {
	s.calls.Add(1)
	s.got = address
	return s.result, s.err
}

type stubLoader struct {
	cat   *catalog.Catalog
	err   error
	calls atomic.Int32
}

func (s *stubLoader) Load(_ context.Context) (*catalog.Catalog, error) {
	s.calls.Add(1)
	return s.cat, s.err
}

func at(lon, lat float64) *stubGeocoder {
	return &stubGeocoder{result: &geocode.Result{Longitude: lon, Latitude: lat, Matched: true, Source: "test"}}
}

func pts(pairs ...float64) []geometry.RawPoint {
	var out []geometry.RawPoint
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, geometry.RawPointFrom(geometry.Coordinate{Lon: pairs[i], Lat: pairs[i+1]}))
	}
	return out
}

func squarePts() []geometry.RawPoint {
	return pts(0, 0, 0, 10, 10, 10, 10, 0)
}

func buildCatalog(t *testing.T, doc catalog.Document) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Build(doc, catalog.PolicySkip)
	require.NoError(t, err)
	return cat
}

func flatSquare(t *testing.T) *stubLoader {
	return &stubLoader{cat: buildCatalog(t, catalog.FlatRegion{Points: squarePts()})}
}

func groupedAB(t *testing.T) *stubLoader {
	return &stubLoader{cat: buildCatalog(t, catalog.GroupedRegions{Groups: []catalog.Group{
		{ID: "A", Coordinates: squarePts()},
		{ID: "B", Coordinates: pts(20, 20, 30, 20, 25, 30)},
	}})}
}

func TestCheck_EndToEnd(t *testing.T) {
	tests := []struct {
		name       string
		address    string
		geocoder   func() *stubGeocoder
		loader     func(t *testing.T) *stubLoader
		wantStatus int
		wantBody   string
	}{
		{
			name:       "empty address",
			address:    "",
			geocoder:   func() *stubGeocoder { return at(5, 5) },
			loader:     flatSquare,
			wantStatus: http.StatusBadRequest,
			wantBody:   "❌ Falta parámetro address",
		},
		{
			name:    "address not found",
			address: "zzz-nonexistent",
			geocoder: func() *stubGeocoder {
				return &stubGeocoder{result: &geocode.Result{Matched: false}}
			},
			loader:     flatSquare,
			wantStatus: http.StatusOK,
			wantBody:   "❌ Dirección no encontrada",
		},
		{
			name:       "flat inside",
			address:    "Calle Mayor 1",
			geocoder:   func() *stubGeocoder { return at(5, 5) },
			loader:     flatSquare,
			wantStatus: http.StatusOK,
			wantBody:   "✅ Dentro del área",
		},
		{
			name:       "flat outside",
			address:    "Calle Mayor 1",
			geocoder:   func() *stubGeocoder { return at(50, 50) },
			loader:     flatSquare,
			wantStatus: http.StatusOK,
			wantBody:   "❌ Fuera del área",
		},
		{
			name:       "grouped inside A only",
			address:    "Calle Mayor 1",
			geocoder:   func() *stubGeocoder { return at(5, 5) },
			loader:     groupedAB,
			wantStatus: http.StatusOK,
			wantBody:   "✅ Dentro de: A",
		},
		{
			name:       "grouped outside all",
			address:    "Calle Mayor 1",
			geocoder:   func() *stubGeocoder { return at(-5, -5) },
			loader:     groupedAB,
			wantStatus: http.StatusOK,
			wantBody:   "❌ Fuera de todas las áreas",
		},
		{
			name:     "catalog read fails",
			address:  "Calle Mayor 1",
			geocoder: func() *stubGeocoder { return at(5, 5) },
			loader: func(t *testing.T) *stubLoader {
				_, err := catalog.Load(context.Background(),
					&catalog.FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}, catalog.PolicySkip)
				return &stubLoader{err: err}
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "⚠️ Error interno en la función:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.geocoder(), tt.loader(t))
			status, body := svc.Check(context.Background(), tt.address).Response()
			assert.Equal(t, tt.wantStatus, status)
			if status == http.StatusInternalServerError {
				assert.True(t, strings.HasPrefix(body, tt.wantBody), body)
				return
			}
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestCheck_WhitespaceAddressIsMissing(t *testing.T) {
	geo := at(5, 5)
	loader := flatSquare(t)

	out := NewService(geo, loader).Check(context.Background(), " \t\n ")
	assert.Equal(t, KindMissingParameter, out.Kind)
	assert.Zero(t, geo.calls.Load())
	assert.Zero(t, loader.calls.Load())
}

func TestCheck_NormalizesAddress(t *testing.T) {
	geo := at(5, 5)
	// "e" followed by a combining acute accent composes to "é".
	NewService(geo, flatSquare(t)).Check(context.Background(), "  Calle Peñalver, Me\u0301rida ")
	assert.Equal(t, "Calle Peñalver, M\u00e9rida", geo.got)
}

func TestCheck_MultipleMatchesInCatalogOrder(t *testing.T) {
	loader := &stubLoader{cat: buildCatalog(t, catalog.GroupedRegions{Groups: []catalog.Group{
		{ID: "Norte", Coordinates: squarePts()},
		{ID: "Centro", Coordinates: pts(-1, -1, -1, 11, 11, 11, 11, -1)},
		{ID: "Sur", Coordinates: pts(20, 20, 30, 20, 25, 30)},
	}})}

	out := NewService(at(5, 5), loader).Check(context.Background(), "x")
	assert.Equal(t, KindInside, out.Kind)
	assert.Equal(t, []string{"Norte", "Centro"}, out.Matches)

	_, body := out.Response()
	assert.Equal(t, "✅ Dentro de: Norte, Centro", body)
}

func TestCheck_BoundaryPointIsInside(t *testing.T) {
	out := NewService(at(10, 5), flatSquare(t)).Check(context.Background(), "edge")
	assert.Equal(t, KindInside, out.Kind)
	assert.Empty(t, out.Matches)
}

func TestCheck_GeocodeErrorWins(t *testing.T) {
	geo := &stubGeocoder{err: &geocode.TransportError{Source: "nominatim", StatusCode: 503}}
	loader := &stubLoader{err: errors.New("catalog: read areas.json")}

	out := NewService(geo, loader).Check(context.Background(), "Madrid")
	assert.Equal(t, KindInternalError, out.Kind)

	var te *geocode.TransportError
	require.ErrorAs(t, out.Err, &te)

	status, body := out.Response()
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "nominatim returned status 503")
}

func TestCheck_NotFoundBeatsCatalogError(t *testing.T) {
	geo := &stubGeocoder{result: &geocode.Result{Matched: false}}
	loader := &stubLoader{err: errors.New("boom")}

	out := NewService(geo, loader).Check(context.Background(), "Madrid")
	assert.Equal(t, KindAddressNotFound, out.Kind)
}

func TestCheck_NilCatalog(t *testing.T) {
	out := NewService(at(5, 5), &stubLoader{}).Check(context.Background(), "Madrid")
	assert.Equal(t, KindInternalError, out.Kind)
	require.Error(t, out.Err)
}

func TestCheck_EmptyGroupedCatalogIsOutsideAll(t *testing.T) {
	loader := &stubLoader{cat: &catalog.Catalog{Shape: catalog.ShapeGrouped}}

	_, body := NewService(at(5, 5), loader).Check(context.Background(), "Madrid").Response()
	assert.Equal(t, "❌ Fuera de todas las áreas", body)
}

func TestOutcome_ResponseInternalWithoutErr(t *testing.T) {
	status, body := Outcome{Kind: KindInternalError}.Response()
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "⚠️ Error interno en la función:\nunknown error", body)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "missing_parameter", KindMissingParameter.String())
	assert.Equal(t, "address_not_found", KindAddressNotFound.String())
	assert.Equal(t, "inside", KindInside.String())
	assert.Equal(t, "outside", KindOutside.String())
	assert.Equal(t, "internal_error", KindInternalError.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

type panicLoader struct{}

func (panicLoader) Load(context.Context) (*catalog.Catalog, error) {
	var byID map[string]int
	byID["A"] = 1
	return nil, nil
}

type panicGeocoder struct{}

func (panicGeocoder) Geocode(context.Context, string) (*geocode.Result, error) {
	panic("geocoder exploded")
}

func TestCheck_LoaderPanicIsInternalError(t *testing.T) {
	out := NewService(at(5, 5), panicLoader{}).Check(context.Background(), "Madrid")
	assert.Equal(t, KindInternalError, out.Kind)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "panic during load catalog")

	status, body := out.Response()
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.True(t, strings.HasPrefix(body, MsgInternalPrefix), body)
}

func TestCheck_GeocoderPanicIsInternalError(t *testing.T) {
	out := NewService(panicGeocoder{}, flatSquare(t)).Check(context.Background(), "Madrid")
	assert.Equal(t, KindInternalError, out.Kind)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "geocoder exploded")
}
