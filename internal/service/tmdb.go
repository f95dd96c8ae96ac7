package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/go-resty/resty/v2"
)

const defaultTMDBBaseURL = "https://api.themoviedb.org/3"

// ProviderLookup resolves the streaming providers of a catalog title.
type ProviderLookup interface {
	// SearchTitle returns the external id of the best match for title and year.
	SearchTitle(ctx context.Context, title, year string) LookupResult[int]
	// GetProviders returns provider names for an external id.
	GetProviders(ctx context.Context, id int) LookupResult[[]string]
}

// TMDBService talks to The Movie Database API.
type TMDBService struct {
	client   *resty.Client
	apiKey   string
	country  string
	language string
}

// NewTMDBService creates a TMDB client.
// Parameters:
//   - cfg: TMDB configuration (api key, base URL, watch-provider country, timeout).
//
// Returns:
//   - *TMDBService: client ready for lookups.
func NewTMDBService(cfg *config.TMDBConfig) *TMDBService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTMDBBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	country := cfg.Country
	if country == "" {
		country = "PE"
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &TMDBService{
		client:   client,
		apiKey:   cfg.APIKey,
		country:  country,
		language: language,
	}
}

type tmdbSearchResponse struct {
	Results []struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	} `json:"results"`
}

type tmdbProvidersResponse struct {
	Results map[string]struct {
		Flatrate []struct {
			ProviderName string `json:"provider_name"`
		} `json:"flatrate"`
	} `json:"results"`
}

// SearchTitle searches movies by title, filtering by year only when it is numeric.
func (s *TMDBService) SearchTitle(ctx context.Context, title, year string) LookupResult[int] {
	params := map[string]string{
		"api_key":  s.apiKey,
		"query":    title,
		"language": s.language,
	}
	if isDigits(year) {
		params["year"] = year
	}

	var resp tmdbSearchResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&resp).
		Get("/search/movie")
	if err != nil {
		return Unavailable[int](fmt.Errorf("tmdb search: %w", err))
	}
	if httpResp.IsError() {
		return Unavailable[int](fmt.Errorf("tmdb search: status %d", httpResp.StatusCode()))
	}
	if len(resp.Results) == 0 {
		return NotFound[int]()
	}
	return Found(resp.Results[0].ID)
}

// GetProviders returns the flat-rate providers for the configured country,
// de-duplicated in response order.
func (s *TMDBService) GetProviders(ctx context.Context, id int) LookupResult[[]string] {
	var resp tmdbProvidersResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("api_key", s.apiKey).
		SetPathParam("id", strconv.Itoa(id)).
		SetResult(&resp).
		Get("/movie/{id}/watch/providers")
	if err != nil {
		return Unavailable[[]string](fmt.Errorf("tmdb providers: %w", err))
	}
	if httpResp.IsError() {
		return Unavailable[[]string](fmt.Errorf("tmdb providers: status %d", httpResp.StatusCode()))
	}

	region, ok := resp.Results[s.country]
	if !ok {
		return NotFound[[]string]()
	}
	names := make([]string, 0, len(region.Flatrate))
	for _, p := range region.Flatrate {
		names = append(names, p.ProviderName)
	}
	names = dedupeStrings(names)
	if len(names) == 0 {
		return NotFound[[]string]()
	}
	return Found(names)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
