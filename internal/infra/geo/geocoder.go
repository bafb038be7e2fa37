package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"renta/internal/app/policies"
)

const defaultEndpoint = "https://nominatim.openstreetmap.org/search"

// HTTPGeocoder resolves addresses through a Nominatim-compatible API.
type HTTPGeocoder struct {
	HTTP      *http.Client
	Endpoint  string
	UserAgent string
	Logger    *slog.Logger
	breaker   *gobreaker.CircuitBreaker
}

func New(endpoint string, logger *slog.Logger) *HTTPGeocoder {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &HTTPGeocoder{
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		Endpoint:  endpoint,
		UserAgent: "renta/1.0",
		Logger:    logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "geocoder",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
		}),
	}
}

type geocodeHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *HTTPGeocoder) Locate(ctx context.Context, address string) (float64, float64, error) {
	result, err := g.breaker.Execute(func() (any, error) {
		return g.lookup(ctx, address)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			if g.Logger != nil {
				g.Logger.Warn("geocoder circuit open, skipping lookup")
			}
			return 0, 0, policies.ErrAddressNotFound
		}
		return 0, 0, err
	}
	hit := result.(geocodeHit)
	lat, err := strconv.ParseFloat(hit.Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geo: malformed latitude %q", hit.Lat)
	}
	lon, err := strconv.ParseFloat(hit.Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geo: malformed longitude %q", hit.Lon)
	}
	return lat, lon, nil
}

func (g *HTTPGeocoder) lookup(ctx context.Context, address string) (geocodeHit, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return geocodeHit{}, err
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return geocodeHit{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geocodeHit{}, fmt.Errorf("geo: lookup returned %d", resp.StatusCode)
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return geocodeHit{}, err
	}
	var hits []geocodeHit
	if err := json.Unmarshal(payload, &hits); err != nil {
		return geocodeHit{}, err
	}
	if len(hits) == 0 {
		return geocodeHit{}, policies.ErrAddressNotFound
	}
	return hits[0], nil
}

var _ policies.Geocoder = (*HTTPGeocoder)(nil)
