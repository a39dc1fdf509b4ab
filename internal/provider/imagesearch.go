package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// Image is one candidate returned by the image-search provider.
type Image struct {
	URL         string
	Description string
	Attribution string
}

// ImageSearcher looks up images for a free-text phrase.
type ImageSearcher interface {
	Search(ctx context.Context, query string) ([]Image, error)
}

// Unsplash implements ImageSearcher against the Unsplash search API.
type Unsplash struct {
	baseURL    string
	accessKey  string
	perPage    int
	httpClient *http.Client
}

var _ ImageSearcher = (*Unsplash)(nil)

// NewUnsplash builds a client. An empty baseURL uses the public API.
func NewUnsplash(accessKey, baseURL string, perPage int) *Unsplash {
	if baseURL == "" {
		baseURL = "https://api.unsplash.com"
	}
	if perPage <= 0 {
		perPage = 3
	}
	return &Unsplash{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		perPage:   perPage,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type unsplashResult struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		AltDescription string `json:"alt_description"`
		User           struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

// Search queries the provider for landscape photos matching query. An error
// or empty response is the caller's cue to fall back to a static image.
func (u *Unsplash) Search(ctx context.Context, query string) ([]Image, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("per_page", strconv.Itoa(u.perPage))
	q.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		u.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, apperr.Provider("image-search", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Provider("image-search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperr.Provider("image-search",
			fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(payload))))
	}

	var parsed unsplashResult
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Provider("image-search", fmt.Errorf("decode response: %w", err))
	}

	images := make([]Image, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		images = append(images, Image{
			URL:         r.URLs.Regular,
			Description: r.AltDescription,
			Attribution: "Photo by " + r.User.Name + " on Unsplash",
		})
	}
	return images, nil
}
