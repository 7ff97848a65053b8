package gallery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryCache struct {
	images map[string]string
}

func (c *memoryCache) CachedImage(ctx context.Context, metadataURI string) (string, bool, error) {
	image, ok := c.images[metadataURI]
	return image, ok, nil
}

func (c *memoryCache) SaveImage(ctx context.Context, metadataURI, imageURI string) error {
	c.images[metadataURI] = imageURI
	return nil
}

func TestFetchImage(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Candy #7","image":"https://arweave.net/7.png","attributes":[{"trait_type":"hat","value":"none"}]}`))
	}))
	defer server.Close()

	cache := &memoryCache{images: map[string]string{}}
	fetcher := NewFetcher(5*time.Second, 0, cache, zap.NewNop())

	image, err := fetcher.FetchImage(context.Background(), server.URL+"/7.json")
	require.NoError(t, err)
	assert.Equal(t, "https://arweave.net/7.png", image)
	assert.Equal(t, "https://arweave.net/7.png", cache.images[server.URL+"/7.json"])

	image, err = fetcher.FetchImage(context.Background(), server.URL+"/7.json")
	require.NoError(t, err)
	assert.Equal(t, "https://arweave.net/7.png", image)
	assert.Equal(t, int32(1), hits.Load(), "second lookup should be served from the cache")
}

func TestFetchImageFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.json":
			http.NotFound(w, r)
		case "/noimage.json":
			w.Write([]byte(`{"name":"Candy"}`))
		default:
			w.Write([]byte(`not json`))
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, 0, nil, zap.NewNop())
	ctx := context.Background()

	_, err := fetcher.FetchImage(ctx, server.URL+"/missing.json")
	assert.ErrorContains(t, err, "404")

	_, err = fetcher.FetchImage(ctx, server.URL+"/noimage.json")
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = fetcher.FetchImage(ctx, server.URL+"/broken.json")
	assert.ErrorContains(t, err, "decoding")
}

func TestFetchImageHonoursContext(t *testing.T) {
	fetcher := NewFetcher(5*time.Second, 0.001, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.FetchImage(ctx, "http://127.0.0.1:0/never.json")
	assert.Error(t, err)
}
