package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rendis/geogrid/internal/model"
)

const placesBaseURL = "https://maps.googleapis.com/maps/api/place"

// PlacesClient talks to the Google Places web service.
type PlacesClient struct {
	BaseURL string
	APIKey  string
	RadiusM int // nearby search radius in meters
	client  *Client
}

func NewPlacesClient(c *Client, apiKey string, radiusM int) *PlacesClient {
	if radiusM <= 0 {
		radiusM = 1000
	}
	return &PlacesClient{
		BaseURL: placesBaseURL,
		APIKey:  apiKey,
		RadiusM: radiusM,
		client:  c,
	}
}

type placesStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// checkStatus maps a non-OK Places status to an error. ZERO_RESULTS is not
// an error.
func (s placesStatus) checkStatus() error {
	switch s.Status {
	case "OK", "ZERO_RESULTS", "":
		return nil
	case "OVER_QUERY_LIMIT":
		return &RateLimitError{StatusCode: http.StatusTooManyRequests}
	}
	if s.ErrorMessage != "" {
		return fmt.Errorf("places status %s: %s", s.Status, s.ErrorMessage)
	}
	return fmt.Errorf("places status %s", s.Status)
}

type nearbyResponse struct {
	placesStatus
	Results []struct {
		Name    string `json:"name"`
		PlaceID string `json:"place_id"`
	} `json:"results"`
}

// Nearby returns the nearby-search listing for keyword around the point.
func (p *PlacesClient) Nearby(ctx context.Context, keyword string, point model.GridPoint) ([]model.ResultEntry, error) {
	params := url.Values{}
	params.Set("location", latLng(point.Lat, point.Lng))
	params.Set("radius", strconv.Itoa(p.RadiusM))
	params.Set("keyword", keyword)
	params.Set("key", p.APIKey)

	var resp nearbyResponse
	if err := p.client.GetJSON(ctx, p.BaseURL+"/nearbysearch/json?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("nearby search %q: %w", keyword, err)
	}

	entries := make([]model.ResultEntry, 0, len(resp.Results))
	for _, r := range resp.Results {
		entries = append(entries, model.ResultEntry{Title: r.Name, ID: r.PlaceID})
	}
	return entries, nil
}

type findPlaceResponse struct {
	placesStatus
	Candidates []struct {
		PlaceID string `json:"place_id"`
	} `json:"candidates"`
}

// FindPlaceID resolves a business name to a place id, biased toward the
// given coordinate.
func (p *PlacesClient) FindPlaceID(ctx context.Context, name string, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("input", name)
	params.Set("inputtype", "textquery")
	params.Set("fields", "place_id")
	params.Set("locationbias", "point:"+latLng(lat, lng))
	params.Set("key", p.APIKey)

	var resp findPlaceResponse
	if err := p.client.GetJSON(ctx, p.BaseURL+"/findplacefromtext/json?"+params.Encode(), &resp); err != nil {
		return "", fmt.Errorf("find place %q: %w", name, err)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	return resp.Candidates[0].PlaceID, nil
}

func latLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', 7, 64) + "," + strconv.FormatFloat(lng, 'f', 7, 64)
}
