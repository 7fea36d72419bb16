package geocode

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// nominatimPlace is one candidate from the Nominatim search API.
// Coordinates arrive as strings.
type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// geocodeNominatim resolves a free-text address with the Nominatim search API.
func (g *geocoder) geocodeNominatim(ctx context.Context, address string) (*Result, error) {
	params := url.Values{
		"format": {"json"},
		"q":      {address},
		"limit":  {"1"},
	}
	if g.email != "" {
		params.Set("email", g.email)
	}

	body, err := g.get(ctx, ProviderNominatim, g.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		if json.Valid(body) {
			// A well-formed non-list answer carries no candidates.
			zap.L().Debug("geocode: nominatim returned a non-list body", zap.Int("bytes", len(body)))
			return &Result{Matched: false, Source: ProviderNominatim}, nil
		}
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}

	if len(places) == 0 {
		return &Result{Matched: false, Source: ProviderNominatim}, nil
	}

	place := places[0]
	lat, err := strconv.ParseFloat(strings.TrimSpace(place.Lat), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lat %q", place.Lat)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(place.Lon), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lon %q", place.Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		Source:      ProviderNominatim,
		Quality:     nominatimQuality(place.Class, place.Type),
		DisplayName: place.DisplayName,
		Matched:     true,
	}, nil
}

// nominatimQuality maps the OSM class/type of a match to our quality taxonomy.
func nominatimQuality(class, typ string) string {
	switch {
	case class == "building" || typ == "house":
		return "rooftop"
	case class == "highway":
		return "range"
	case class == "place" || class == "boundary":
		return "centroid"
	default:
		return "approximate"
	}
}
