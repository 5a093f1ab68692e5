package isic

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// BaseURL is the base URL of the ISIC Archive API.
	BaseURL = "https://api.isic-archive.com"

	// LesionsEndpoint lists lesions with their images, cursor-paginated.
	LesionsEndpoint = "/api/v2/lesions/"

	// SearchEndpoint searches images by metadata query, cursor-paginated.
	SearchEndpoint = "/api/v2/images/search/"

	// DefaultPageLimit is the page size requested from both endpoints.
	DefaultPageLimit = 200

	// MaxPageLimit is the largest page size the archive serves.
	MaxPageLimit = 500
)

// clampLimit keeps a requested page size within the archive's bounds.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

// LesionsURL builds the first-page URL for the lesion-listing endpoint.
func LesionsURL(baseURL string, limit int) string {
	if baseURL == "" {
		baseURL = BaseURL
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(clampLimit(limit)))

	return fmt.Sprintf("%s%s?%s", baseURL, LesionsEndpoint, params.Encode())
}

// SearchURL builds the first-page URL for an image search. The query uses
// the archive's field:"value" syntax.
func SearchURL(baseURL, query string, limit int) string {
	if baseURL == "" {
		baseURL = BaseURL
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(clampLimit(limit)))

	return fmt.Sprintf("%s%s?%s", baseURL, SearchEndpoint, params.Encode())
}
