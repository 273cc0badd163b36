package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const nominatimURL = "https://nominatim.openstreetmap.org/search"

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocoder resolves a free-text address to a coordinate using the OSM
// Nominatim API.
type Geocoder struct {
	BaseURL string
	HTTP    *http.Client
}

func NewGeocoder() *Geocoder {
	return &Geocoder{
		BaseURL: nominatimURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Geocode returns the coordinate of the best match for address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (lat, lng float64, err error) {
	u := g.BaseURL + "?" + url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "geogrid/0.1 (search visibility scanner)")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, fmt.Errorf("decoding geocoding response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("address %q not found", address)
	}

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q from geocoder", results[0].Lat)
	}
	lng, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q from geocoder", results[0].Lon)
	}
	return lat, lng, nil
}
