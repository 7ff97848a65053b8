package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrNoImage = errors.New("metadata document has no image")

// maxDocumentSize bounds the JSON read from a metadata URI
const maxDocumentSize = 1 << 20

// ImageCache remembers which image a metadata URI resolved to
type ImageCache interface {
	CachedImage(ctx context.Context, metadataURI string) (string, bool, error)
	SaveImage(ctx context.Context, metadataURI, imageURI string) error
}

// Fetcher resolves metadata URIs to image URIs over HTTP
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      ImageCache
	logger     *zap.Logger
}

// NewFetcher creates a fetcher allowing rps requests per second. cache may be nil.
func NewFetcher(timeout time.Duration, rps float64, cache ImageCache, logger *zap.Logger) *Fetcher {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		cache:   cache,
		logger:  logger,
	}
}

// FetchImage returns the "image" field of the document at metadataURI
func (f *Fetcher) FetchImage(ctx context.Context, metadataURI string) (string, error) {
	if f.cache != nil {
		image, ok, err := f.cache.CachedImage(ctx, metadataURI)
		if err != nil {
			f.logger.Warn("image cache lookup failed", zap.String("uri", metadataURI), zap.Error(err))
		} else if ok {
			return image, nil
		}
	}

	doc, err := f.FetchDocument(ctx, metadataURI)
	if err != nil {
		return "", err
	}
	if doc.Image == "" {
		return "", fmt.Errorf("%w: %s", ErrNoImage, metadataURI)
	}

	if f.cache != nil {
		if err := f.cache.SaveImage(ctx, metadataURI, doc.Image); err != nil {
			f.logger.Warn("failed to cache image", zap.String("uri", metadataURI), zap.Error(err))
		}
	}
	return doc.Image, nil
}

func (f *Fetcher) FetchDocument(ctx context.Context, metadataURI string) (*Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURI, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching %s: %s", metadataURI, resp.Status)
	}

	var doc Document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("error decoding metadata document: %w", err)
	}
	return &doc, nil
}
