package main

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/area-check/internal/catalog"
	"github.com/sells-group/area-check/internal/config"
	"github.com/sells-group/area-check/internal/membership"
	"github.com/sells-group/area-check/pkg/geocode"
)

// newGeocoder builds the geocoding client from configuration.
func newGeocoder(c *config.Config) geocode.Client {
	return geocode.NewClient(
		geocode.WithProvider(c.Geocoder.Provider),
		geocode.WithBaseURL(c.Geocoder.BaseURL),
		geocode.WithUserAgent(c.Geocoder.UserAgent),
		geocode.WithEmail(c.Geocoder.Email),
		geocode.WithGoogleAPIKey(c.Geocoder.GoogleKey),
		geocode.WithRateLimit(c.Geocoder.RateLimit),
		geocode.WithTimeout(c.Geocoder.Timeout),
	)
}

// newLoader builds the per-request catalog loader from configuration.
func newLoader(c *config.Config) (*catalog.Loader, error) {
	format, err := catalog.ParseFormat(c.Catalog.Format)
	if err != nil {
		return nil, eris.Wrap(err, "catalog format")
	}
	src := catalog.NewSource(
		c.Catalog.Source,
		format,
		catalog.FileOptions{IDField: c.Catalog.IDField, Sheet: c.Catalog.Sheet},
		&http.Client{Timeout: 30 * time.Second},
		c.Geocoder.UserAgent,
	)
	return catalog.NewLoader(src, c.Catalog.Policy()), nil
}

// newService wires a membership service from configuration.
func newService(c *config.Config) (*membership.Service, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	loader, err := newLoader(c)
	if err != nil {
		return nil, err
	}
	return membership.NewService(newGeocoder(c), loader), nil
}
