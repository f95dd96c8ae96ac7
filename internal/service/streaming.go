package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/go-resty/resty/v2"
)

const (
	defaultStreamingHost    = "streaming-availability.p.rapidapi.com"
	defaultStreamingCountry = "us"
)

// StreamingService queries the streaming-availability API on RapidAPI.
type StreamingService struct {
	client  *resty.Client
	country string
}

// NewStreamingService creates a streaming-availability client.
func NewStreamingService(cfg *config.StreamingConfig) *StreamingService {
	host := cfg.Host
	if host == "" {
		host = defaultStreamingHost
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + host
	}
	country := cfg.Country
	if country == "" {
		country = defaultStreamingCountry
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("x-rapidapi-key", cfg.APIKey).
		SetHeader("x-rapidapi-host", host)

	return &StreamingService{client: client, country: country}
}

type streamingShow struct {
	StreamingOptions map[string][]struct {
		Service struct {
			Name string `json:"name"`
		} `json:"service"`
	} `json:"streamingOptions"`
}

// Platforms returns the sorted service names offering the first matching show.
func (s *StreamingService) Platforms(ctx context.Context, title string) LookupResult[[]string] {
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"title":           title,
			"country":         s.country,
			"show_type":       "movie",
			"output_language": "en",
		}).
		Get("/shows/search/title")
	if err != nil {
		return Unavailable[[]string](fmt.Errorf("streaming: %w", err))
	}
	if httpResp.IsError() {
		return Unavailable[[]string](fmt.Errorf("streaming: status %d", httpResp.StatusCode()))
	}

	shows, err := decodeShows(httpResp.Body())
	if err != nil {
		return Unavailable[[]string](fmt.Errorf("streaming: %w", err))
	}
	if len(shows) == 0 {
		return NotFound[[]string]()
	}

	var names []string
	for _, opt := range shows[0].StreamingOptions[s.country] {
		names = append(names, opt.Service.Name)
	}
	names = dedupeStrings(names)
	if len(names) == 0 {
		return NotFound[[]string]()
	}
	sort.Strings(names)
	return Found(names)
}

// decodeShows accepts either a bare list of shows or {"results": [...]}.
func decodeShows(body []byte) ([]streamingShow, error) {
	var list []streamingShow
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Results []streamingShow `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return wrapped.Results, nil
}
