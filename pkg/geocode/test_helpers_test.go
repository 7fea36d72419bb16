package geocode

import (
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

// unlimited lets tests issue requests back to back.
func unlimited() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// providerClient returns a client that sends requests for the fixed Census and
// Google endpoints to the test server at serverURL. Requests for any other host
// fail, so a test can never reach a live provider.
func providerClient(serverURL string) *http.Client {
	target, _ := url.Parse(serverURL)
	return &http.Client{Transport: providerRedirect{target: target}}
}

type providerRedirect struct {
	target *url.URL
}

func (p providerRedirect) RoundTrip(req *http.Request) (*http.Response, error) {
	switch req.URL.Host {
	case "geocoding.geo.census.gov", "maps.googleapis.com":
	default:
		return nil, fmt.Errorf("unexpected geocoder host %q", req.URL.Host)
	}
	out := req.Clone(req.Context())
	out.URL.Scheme = p.target.Scheme
	out.URL.Host = p.target.Host
	out.Host = p.target.Host
	return http.DefaultTransport.RoundTrip(out)
}
