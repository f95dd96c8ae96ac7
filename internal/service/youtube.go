package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	defaultYouTubeBaseURL = "https://www.youtube.com"
	videoIDMarker         = `"videoId":"`
	minVideoIDLength      = 8
)

// YouTubeService finds trailer video ids by scraping the YouTube results page.
type YouTubeService struct {
	client *resty.Client
}

// NewYouTubeService creates a trailer scraper.
func NewYouTubeService(cfg *config.YouTubeConfig) *YouTubeService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0")
	return &YouTubeService{client: client}
}

// TrailerID returns the first video id on the results page for "{title} trailer".
func (s *YouTubeService) TrailerID(ctx context.Context, title string) LookupResult[string] {
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("search_query", title+" trailer").
		Get("/results")
	if err != nil {
		return Unavailable[string](fmt.Errorf("youtube: %w", err))
	}
	if httpResp.StatusCode() != 200 {
		return Unavailable[string](fmt.Errorf("youtube: status %d", httpResp.StatusCode()))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(httpResp.String()))
	if err != nil {
		return Unavailable[string](fmt.Errorf("youtube: parse results page: %w", err))
	}

	var videoID string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if id := extractVideoID(sel.Text()); id != "" {
			videoID = id
			return false
		}
		return true
	})
	if videoID == "" {
		return NotFound[string]()
	}
	return Found(videoID)
}

// extractVideoID returns the first "videoId" value in a script body, or ""
// when it is missing or too short to be a real id.
func extractVideoID(script string) string {
	start := strings.Index(script, videoIDMarker)
	if start < 0 {
		return ""
	}
	start += len(videoIDMarker)
	end := strings.IndexByte(script[start:], '"')
	if end < 0 {
		return ""
	}
	id := script[start : start+end]
	if len(id) < minVideoIDLength {
		return ""
	}
	return id
}
