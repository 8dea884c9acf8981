package vertex

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/cfg"
	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var want = []float32{0.25, -0.5, 1}

// Формы ответа (a)-(d) и реальная форма Vertex с одним и тем же вектором.
var shapes = map[string]string{
	"data":               `{"data":[{"embedding":[0.25,-0.5,1]}],"model":"x"}`,
	"embeddings":         `{"embeddings":[{"values":[0.25,-0.5,1]}]}`,
	"predictions flat":   `{"predictions":[[0.25,-0.5,1]]}`,
	"predictions vertex": `{"predictions":[{"embeddings":{"values":[0.25,-0.5,1],"statistics":{"token_count":3}}}]}`,
	"top-level array":    `[[0.25,-0.5,1],[9,9,9]]`,
}

func TestParseEmbedding(t *testing.T) {
	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			vec, err := ParseEmbedding([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, want, vec)
		})
	}

	t.Run("structural mismatch falls through", func(t *testing.T) {
		vec, err := ParseEmbedding([]byte(`{"data":"oops","embeddings":[{"values":[0.25,-0.5,1]}]}`))
		require.NoError(t, err)
		assert.Equal(t, want, vec)
	})

	t.Run("data wins over later shapes", func(t *testing.T) {
		vec, err := ParseEmbedding([]byte(`{"data":[{"embedding":[1]}],"predictions":[[2]]}`))
		require.NoError(t, err)
		assert.Equal(t, []float32{1}, vec)
	})

	for _, body := range []string{`{"unexpected":true}`, `[1,2,3]`, `{"data":[]}`, `{"predictions":[{}]}`, `"text"`, ``} {
		t.Run("unrecognized "+body, func(t *testing.T) {
			_, err := ParseEmbedding([]byte(body))
			assert.ErrorIs(t, err, e.ErrUnrecognizedResponse)
		})
	}
}

type provider struct {
	hits    atomic.Int32
	handler http.HandlerFunc
}

func newProvider(t *testing.T, handler http.HandlerFunc) (*provider, *httptest.Server) {
	t.Helper()
	p := &provider{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.hits.Add(1)
		p.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return p, srv
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func testCfg(baseURL string) *cfg.EmbeddingCfg {
	return &cfg.EmbeddingCfg{
		ProjectID:       "demo",
		Location:        "us-central1",
		Model:           "text-embedding-004",
		BaseURL:         baseURL,
		Timeout:         5 * time.Second,
		MaxRetries:      2,
		BreakerFailures: 5,
		BreakerTimeout:  time.Minute,
	}
}

func newTestClient(c *cfg.EmbeddingCfg, opts ...Option) *Client {
	opts = append([]Option{
		WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})),
		WithRetryDelay(time.Millisecond, 2*time.Millisecond),
	}, opts...)
	return NewClient(c, NewMemoryCache(), logger.NewNop(), opts...)
}

func embedReq(c *cfg.EmbeddingCfg, text string) *usecase.EmbedTextReq {
	return usecase.NewEmbedTextReq(usecase.ProviderSettings{
		ProjectID: c.ProjectID,
		Location:  c.Location,
		Model:     c.Model,
	}, text)
}

func TestEmbedText(t *testing.T) {
	ctx := context.Background()

	t.Run("request shape", func(t *testing.T) {
		var (
			path, auth, method string
			payload            embedTextRequest
		)
		_, srv := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			method, path, auth = r.Method, r.URL.Path, r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&payload)
			respond(http.StatusOK, shapes["predictions vertex"])(w, r)
		})
		c := testCfg(srv.URL)

		vec, err := newTestClient(c).EmbedText(ctx, embedReq(c, "Blue Vase pottery handmade"))
		require.NoError(t, err)

		assert.Equal(t, want, vec)
		assert.Equal(t, http.MethodPost, method)
		assert.Equal(t, "/v1/projects/demo/locations/us-central1/models/text-embedding-004:embedText", path)
		assert.Equal(t, "Bearer test-token", auth)
		require.Len(t, payload.Instances, 1)
		assert.Equal(t, "Blue Vase pottery handmade", payload.Instances[0].Content)
	})

	t.Run("every response shape gives the same vector", func(t *testing.T) {
		for name, body := range shapes {
			_, srv := newProvider(t, respond(http.StatusOK, body))
			c := testCfg(srv.URL)

			vec, err := newTestClient(c).EmbedText(ctx, embedReq(c, "x"))
			require.NoError(t, err, name)
			assert.Equal(t, want, vec, name)
		}
	})

	t.Run("missing configuration fails before the network", func(t *testing.T) {
		p, srv := newProvider(t, respond(http.StatusOK, shapes["data"]))
		c := testCfg(srv.URL)

		for _, mutate := range []func(*usecase.EmbedTextReq){
			func(r *usecase.EmbedTextReq) { r.ProjectID = "" },
			func(r *usecase.EmbedTextReq) { r.Location = "" },
			func(r *usecase.EmbedTextReq) { r.Model = "" },
		} {
			req := embedReq(c, "x")
			mutate(req)

			_, err := newTestClient(c).EmbedText(ctx, req)
			assert.ErrorIs(t, err, e.ErrConfiguration)
		}
		assert.Zero(t, p.hits.Load())
	})

	t.Run("unreadable credentials file is a configuration error", func(t *testing.T) {
		p, srv := newProvider(t, respond(http.StatusOK, shapes["data"]))
		c := testCfg(srv.URL)
		c.CredentialsFile = filepath.Join(t.TempDir(), "missing.json")

		client := NewClient(c, nil, logger.NewNop())
		_, err := client.EmbedText(ctx, embedReq(c, "x"))
		assert.ErrorIs(t, err, e.ErrConfiguration)
		assert.Zero(t, p.hits.Load())
	})

	t.Run("non-2xx carries status and body", func(t *testing.T) {
		p, srv := newProvider(t, respond(http.StatusBadRequest, `{"error":{"message":"bad instance"}}`))
		c := testCfg(srv.URL)

		_, err := newTestClient(c).EmbedText(ctx, embedReq(c, "x"))
		require.ErrorIs(t, err, e.ErrProvider)

		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
		assert.Contains(t, pe.Body, "bad instance")
		assert.EqualValues(t, 1, p.hits.Load())
	})

	t.Run("transport retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		p, srv := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				respond(http.StatusServiceUnavailable, `unavailable`)(w, r)
				return
			}
			respond(http.StatusOK, shapes["embeddings"])(w, r)
		})
		c := testCfg(srv.URL)

		vec, err := newTestClient(c).EmbedText(ctx, embedReq(c, "x"))
		require.NoError(t, err)
		assert.Equal(t, want, vec)
		assert.EqualValues(t, 2, p.hits.Load())
	})

	t.Run("retries are bounded", func(t *testing.T) {
		p, srv := newProvider(t, respond(http.StatusTooManyRequests, `slow down`))
		c := testCfg(srv.URL)

		_, err := newTestClient(c).EmbedText(ctx, embedReq(c, "x"))
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
		assert.EqualValues(t, c.MaxRetries+1, p.hits.Load())
	})

	t.Run("unrecognized body is a provider error", func(t *testing.T) {
		_, srv := newProvider(t, respond(http.StatusOK, `{"status":"ok"}`))
		c := testCfg(srv.URL)

		_, err := newTestClient(c).EmbedText(ctx, embedReq(c, "x"))
		assert.ErrorIs(t, err, e.ErrProvider)
		assert.ErrorIs(t, err, e.ErrUnrecognizedResponse)
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		p, srv := newProvider(t, respond(http.StatusInternalServerError, `boom`))
		c := testCfg(srv.URL)
		c.MaxRetries = 0
		c.BreakerFailures = 2
		client := newTestClient(c)

		for i := 0; i < 2; i++ {
			_, err := client.EmbedText(ctx, embedReq(c, "x"))
			require.ErrorIs(t, err, e.ErrProvider)
		}

		_, err := client.EmbedText(ctx, embedReq(c, "x"))
		assert.ErrorIs(t, err, e.ErrProvider)
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.EqualValues(t, 2, p.hits.Load())
	})
}

func TestGetCachedEmbedding(t *testing.T) {
	ctx := context.Background()
	p, srv := newProvider(t, respond(http.StatusOK, shapes["data"]))
	c := testCfg(srv.URL)
	cache := NewMemoryCache()
	client := NewClient(c, cache, logger.NewNop(),
		WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"})))

	first, err := client.GetCachedEmbedding(ctx, embedReq(c, "x"))
	require.NoError(t, err)
	second, err := client.GetCachedEmbedding(ctx, embedReq(c, "x"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, p.hits.Load())
	assert.Equal(t, 1, cache.Len())

	_, err = client.GetCachedEmbedding(ctx, embedReq(c, "x "))
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.hits.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestGetCachedEmbedding_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	_, srv := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			respond(http.StatusBadRequest, `no`)(w, r)
			return
		}
		respond(http.StatusOK, shapes["data"])(w, r)
	})
	c := testCfg(srv.URL)
	client := newTestClient(c)

	_, err := client.GetCachedEmbedding(ctx, embedReq(c, "x"))
	require.Error(t, err)

	vec, err := client.GetCachedEmbedding(ctx, embedReq(c, "x"))
	require.NoError(t, err)
	assert.Equal(t, want, vec)
}

func TestEndpoint(t *testing.T) {
	c := testCfg("")
	client := newTestClient(c)

	assert.Equal(t,
		"https://europe-west4-aiplatform.googleapis.com/v1/projects/demo/locations/europe-west4/models/text-embedding-004:embedText",
		client.endpoint(&usecase.EmbedTextReq{ProjectID: "demo", Location: "europe-west4", Model: "text-embedding-004"}),
	)
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()

	_, ok := cache.Get("k")
	assert.False(t, ok)

	cache.Set("k", []float32{1})
	cache.Set("k", []float32{2})

	vec, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, []float32{2}, vec)
	assert.Equal(t, 1, cache.Len())
}
