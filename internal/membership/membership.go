// Package membership answers whether a free-text address lies inside any region
// of the catalog: validate, geocode, load, evaluate, format.
package membership

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/area-check/internal/catalog"
	"github.com/sells-group/area-check/internal/geometry"
	"github.com/sells-group/area-check/pkg/geocode"
)

// Response messages.
const (
	MsgMissingParameter = "❌ Falta parámetro address"
	MsgAddressNotFound  = "❌ Dirección no encontrada"
	MsgOutsideAll       = "❌ Fuera de todas las áreas"
	MsgOutsideArea      = "❌ Fuera del área"
	MsgInsidePrefix     = "✅ Dentro de: "
	MsgInsideArea       = "✅ Dentro del área"
	MsgInternalPrefix   = "⚠️ Error interno en la función:\n"
)

// Geocoder resolves an address to a point.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocode.Result, error)
}

// CatalogLoader produces the region catalog for one request.
type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// Kind is the terminal state of a check.
type Kind int

const (
	KindMissingParameter Kind = iota
	KindAddressNotFound
	KindInside
	KindOutside
	KindInternalError
)

func (k Kind) String() string {
	switch k {
	case KindMissingParameter:
		return "missing_parameter"
	case KindAddressNotFound:
		return "address_not_found"
	case KindInside:
		return "inside"
	case KindOutside:
		return "outside"
	case KindInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one check.
type Outcome struct {
	Kind    Kind
	Shape   catalog.Shape
	Matches []string // region ids containing Point, grouped catalogs only
	Point   geometry.Coordinate
	Err     error
}

// Response maps the outcome to an HTTP status and a plain-text body.
func (o Outcome) Response() (int, string) {
	switch o.Kind {
	case KindMissingParameter:
		return http.StatusBadRequest, MsgMissingParameter
	case KindAddressNotFound:
		return http.StatusOK, MsgAddressNotFound
	case KindInside:
		if o.Shape == catalog.ShapeGrouped {
			return http.StatusOK, MsgInsidePrefix + strings.Join(o.Matches, ", ")
		}
		return http.StatusOK, MsgInsideArea
	case KindOutside:
		if o.Shape == catalog.ShapeGrouped {
			return http.StatusOK, MsgOutsideAll
		}
		return http.StatusOK, MsgOutsideArea
	default:
		msg := "unknown error"
		if o.Err != nil {
			msg = o.Err.Error()
		}
		return http.StatusInternalServerError, InternalErrorBody(msg)
	}
}

// InternalErrorBody formats the 500 response body for msg.
func InternalErrorBody(msg string) string {
	return MsgInternalPrefix + msg
}

// Service runs address membership checks.
type Service struct {
	geocoder Geocoder
	loader   CatalogLoader
}

// NewService creates a Service from a geocoder and a catalog loader.
func NewService(g Geocoder, l CatalogLoader) *Service {
	return &Service{geocoder: g, loader: l}
}

// NormalizeAddress trims and NFC-normalizes a raw address.
func NormalizeAddress(address string) string {
	return strings.TrimSpace(norm.NFC.String(address))
}

// Check runs one membership check for address.
//
// Geocoding and the catalog read run concurrently; precedence of the result is
// geocode failure, address not found, catalog failure, evaluation.
func (s *Service) Check(ctx context.Context, address string) Outcome {
	address = NormalizeAddress(address)
	if address == "" {
		return Outcome{Kind: KindMissingParameter}
	}

	var (
		geo                *geocode.Result
		cat                *catalog.Catalog
		geoErr, catalogErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		defer recoverInto(&geoErr, "geocode")
		geo, geoErr = s.geocoder.Geocode(ctx, address)
		return nil
	})
	g.Go(func() error {
		defer recoverInto(&catalogErr, "load catalog")
		cat, catalogErr = s.loader.Load(ctx)
		return nil
	})
	_ = g.Wait()

	log := zap.L().With(zap.String("address", address))

	if geoErr != nil {
		log.Error("membership: geocode failed", zap.Error(geoErr))
		return Outcome{Kind: KindInternalError, Err: eris.Wrap(geoErr, "membership: geocode")}
	}
	if geo == nil || !geo.Matched {
		log.Info("membership: address not found")
		return Outcome{Kind: KindAddressNotFound}
	}
	if catalogErr != nil {
		log.Error("membership: load catalog failed", zap.Error(catalogErr))
		return Outcome{Kind: KindInternalError, Err: eris.Wrap(catalogErr, "membership: load catalog")}
	}
	if cat == nil {
		return Outcome{Kind: KindInternalError, Err: eris.New("membership: loader returned no catalog")}
	}

	p := geometry.Coordinate{Lon: geo.Longitude, Lat: geo.Latitude}
	matches := cat.Containing(p)

	out := Outcome{Kind: KindOutside, Shape: cat.Shape, Point: p}
	if len(matches) > 0 {
		out.Kind = KindInside
		if cat.Shape == catalog.ShapeGrouped {
			out.Matches = matches
		}
	}

	log.Info("membership: check complete",
		zap.String("result", out.Kind.String()),
		zap.String("shape", cat.Shape.String()),
		zap.Float64("lat", p.Lat),
		zap.Float64("lon", p.Lon),
		zap.Strings("regions", out.Matches),
	)
	return out
}

// recoverInto turns a panic in a check branch into *errp. The branches run off
// the request goroutine, out of reach of the HTTP recoverer.
func recoverInto(errp *error, step string) {
	if r := recover(); r != nil {
		zap.L().Error("membership: panic", zap.String("step", step), zap.Any("panic", r), zap.Stack("stack"))
		*errp = eris.Errorf("membership: panic during %s: %v", step, r)
	}
}
