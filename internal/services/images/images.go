package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
)

const (
	serviceName = "images"
	userAgent   = "Mozilla/5.0"

	// DefaultFilename is used when an image URL has no usable base name.
	DefaultFilename = "product_image.jpg"

	// MaxImageBytes caps a downloaded image.
	MaxImageBytes = 20 << 20
)

// Finder searches for candidate images and downloads the ones an operator picks.
type Finder struct {
	searchURL  string
	limit      int
	maxBytes   int64
	httpClient *http.Client
	logger     *logger.Logger
}

func NewFinder(searchURL string, limit int, timeout time.Duration, logger *logger.Logger) *Finder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Finder{
		searchURL:  searchURL,
		limit:      limit,
		maxBytes:   MaxImageBytes,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithField("component", "images"),
	}
}

// Search scrapes an image search results page for absolute image URLs.
// Failures are logged and yield an empty list.
func (f *Finder) Search(ctx context.Context, query string) []string {
	u, err := url.Parse(f.searchURL)
	if err != nil {
		f.logger.Error("Invalid image search URL %s: %v", f.searchURL, err)
		return []string{}
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("tbm", "isch")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		f.logger.Error("Failed to build image search request: %v", err)
		return []string{}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Warn("Image search for '%s' failed: %v", query, err)
		return []string{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("Image search for '%s' returned status %d", query, resp.StatusCode)
		return []string{}
	}

	found, err := extractImageURLs(resp.Body, f.limit)
	if err != nil {
		f.logger.Warn("Failed to parse image search results for '%s': %v", query, err)
		return []string{}
	}
	f.logger.Debug("Found %d images for '%s'", len(found), query)
	return found
}

// extractImageURLs returns the src of every <img> whose src is an absolute
// http(s) URL, in document order, up to limit (0 means no limit).
func extractImageURLs(r io.Reader, limit int) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	found := []string{}
	seen := make(map[string]struct{})

	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				if attr.Key != "src" || !strings.HasPrefix(attr.Val, "http") {
					continue
				}
				if _, dup := seen[attr.Val]; dup {
					continue
				}
				seen[attr.Val] = struct{}{}
				found = append(found, attr.Val)
				if limit > 0 && len(found) >= limit {
					return false
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	return found, nil
}

// Download fetches an image body. Images over MaxImageBytes are rejected.
func (f *Finder) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("Failed to download image from %s: %v", imageURL, err)
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Error("Failed to download image from %s. Status code: %d", imageURL, resp.StatusCode)
		return nil, &apperror.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode, Body: imageURL}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		f.logger.Error("Image from %s exceeds %d bytes", imageURL, f.maxBytes)
		return nil, fmt.Errorf("image larger than %d bytes", f.maxBytes)
	}
	return data, nil
}

// FilenameFromURL derives the upload filename from the URL path.
func FilenameFromURL(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return DefaultFilename
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return DefaultFilename
	}
	return base
}
