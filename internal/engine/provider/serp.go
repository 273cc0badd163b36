package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rendis/geogrid/internal/model"
)

const scraperAPIURL = "https://api.scraperapi.com/structured/google/search"

// SerpClient queries the ScraperAPI structured Google search endpoint for
// organic and local-pack results.
type SerpClient struct {
	BaseURL string
	APIKey  string
	Lang    string
	Country string
	client  *Client
}

func NewSerpClient(c *Client, apiKey, lang, country string) *SerpClient {
	return &SerpClient{
		BaseURL: scraperAPIURL,
		APIKey:  apiKey,
		Lang:    lang,
		Country: country,
		client:  c,
	}
}

type serpResponse struct {
	OrganicResults []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"organic_results"`
	LocalResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Website string `json:"website"`
		PlaceID string `json:"place_id"`
	} `json:"local_results"`
}

// Search returns the organic and local-pack lists for keyword, in page order.
func (s *SerpClient) Search(ctx context.Context, keyword string) (organic, local []model.ResultEntry, err error) {
	params := url.Values{}
	params.Set("api_key", s.APIKey)
	params.Set("query", keyword)
	if s.Lang != "" {
		params.Set("language", s.Lang)
	}
	if s.Country != "" {
		params.Set("country", s.Country)
	}

	var resp serpResponse
	if err := s.client.GetJSON(ctx, s.BaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, nil, fmt.Errorf("serp search %q: %w", keyword, err)
	}

	for _, r := range resp.OrganicResults {
		organic = append(organic, model.ResultEntry{Title: r.Title, URL: r.Link})
	}
	for _, r := range resp.LocalResults {
		link := r.Website
		if link == "" {
			link = r.Link
		}
		local = append(local, model.ResultEntry{Title: r.Title, URL: link, ID: r.PlaceID})
	}
	return organic, local, nil
}
