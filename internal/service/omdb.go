package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/go-resty/resty/v2"
)

const defaultOMDBBaseURL = "http://www.omdbapi.com/"

// OMDBService resolves poster URLs from the OMDb API.
type OMDBService struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

// NewOMDBService creates an OMDb client.
func NewOMDBService(cfg *config.OMDBConfig) *OMDBService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOMDBBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OMDBService{
		client:  resty.New().SetTimeout(timeout),
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
	}
}

type omdbResponse struct {
	Poster   string `json:"Poster"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// Poster looks up the poster URL for an exact title. "N/A" counts as not found.
func (s *OMDBService) Poster(ctx context.Context, title string) LookupResult[string] {
	var resp omdbResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"t":      title,
			"apikey": s.apiKey,
		}).
		SetResult(&resp).
		Get(s.baseURL)
	if err != nil {
		return Unavailable[string](fmt.Errorf("omdb: %w", err))
	}
	if httpResp.IsError() {
		return Unavailable[string](fmt.Errorf("omdb: status %d", httpResp.StatusCode()))
	}

	poster := strings.TrimSpace(resp.Poster)
	if poster == "" || poster == "N/A" {
		return NotFound[string]()
	}
	return Found(poster)
}
