// Package vertex реализует клиент текстовых эмбеддингов Vertex AI.
package vertex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/cfg"
	"github.com/DRSN-tech/artwork-recommender/internal/metrics"
	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/DRSN-tech/artwork-recommender/pkg/vector"
	"github.com/goccy/go-json"
	"github.com/jimlawless/whereami"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	maxErrorBody       = 2048

	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxDelay   = 5 * time.Second
	defaultBreakerFailures = 5
)

// ProviderError — ответ провайдера с кодом не из 2xx.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (p *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider responded %d: %s", p.StatusCode, p.Body)
}

func (p *ProviderError) Unwrap() error {
	return e.ErrProvider
}

type embedTextRequest struct {
	Instances []instance `json:"instances"`
}

type instance struct {
	Content string `json:"content"`
}

// Client вызывает embedText модели Vertex AI. Повторы выполняет транспорт,
// сам клиент делает один запрос на вызов.
type Client struct {
	cfg       *cfg.EmbeddingCfg
	cache     Cache
	logger    logger.Logger
	breaker   *gobreaker.CircuitBreaker[[]byte]
	transport http.RoundTripper
	baseDelay time.Duration
	maxDelay  time.Duration

	mu          sync.Mutex
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
}

type Option func(*Client)

// WithTokenSource подменяет поиск учётных данных Google.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokenSource = ts }
}

// WithTransport задаёт базовый транспорт под ретраями и авторизацией.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

func WithRetryDelay(base, max time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = base
		c.maxDelay = max
	}
}

func NewClient(cfg *cfg.EmbeddingCfg, cache Cache, logger logger.Logger, opts ...Option) *Client {
	if cache == nil {
		cache = NewMemoryCache()
	}

	c := &Client{
		cfg:       cfg,
		cache:     cache,
		logger:    logger,
		transport: http.DefaultTransport,
		baseDelay: defaultRetryBaseDelay,
		maxDelay:  defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "vertex-embedding",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("circuit breaker %s changed state: %s -> %s", name, from, to)
		},
	})

	return c
}

// EmbedText возвращает эмбеддинг текста. Незаданные project, location или model
// дают e.ErrConfiguration до любого сетевого вызова.
func (c *Client) EmbedText(ctx context.Context, req *usecase.EmbedTextReq) ([]float32, error) {
	if err := validate(req); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	httpClient, err := c.client(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	payload, err := json.Marshal(embedTextRequest{Instances: []instance{{Content: req.Text}}})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	endpoint := c.endpoint(req)
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, httpClient, endpoint, payload)
	})
	metrics.EmbeddingDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.EmbeddingRequests.WithLabelValues("rejected").Inc()
			return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrProvider, err))
		}

		metrics.EmbeddingRequests.WithLabelValues("error").Inc()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	vec, err := ParseEmbedding(body)
	if err != nil {
		metrics.EmbeddingRequests.WithLabelValues("error").Inc()
		c.logger.Warnf("unrecognized embedding response shape, model: %s, body: %s", req.Model, truncate(body))
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrProvider, err))
	}

	metrics.EmbeddingRequests.WithLabelValues("ok").Inc()
	return vec, nil
}

// GetCachedEmbedding вызывает EmbedText не более одного раза на текст за время жизни кэша.
// Параллельные промахи по одному тексту могут вызвать провайдера дважды.
func (c *Client) GetCachedEmbedding(ctx context.Context, req *usecase.EmbedTextReq) ([]float32, error) {
	if err := validate(req); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	key := vector.CacheKey(req.Text)
	if vec, ok := c.cache.Get(key); ok {
		metrics.EmbeddingCache.WithLabelValues("hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCache.WithLabelValues("miss").Inc()

	vec, err := c.EmbedText(ctx, req)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, vec)
	return vec, nil
}

func (c *Client) post(ctx context.Context, httpClient *http.Client, endpoint string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", e.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", e.ErrProvider, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: truncate(body)}
	}

	return body, nil
}

// client лениво находит учётные данные и собирает HTTP-клиент: oauth2 поверх ретраев.
func (c *Client) client(ctx context.Context) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient != nil {
		return c.httpClient, nil
	}

	ts := c.tokenSource
	if ts == nil {
		creds, err := c.findCredentials(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: google credentials: %w", e.ErrConfiguration, err)
		}
		ts = creds.TokenSource
	}

	c.httpClient = &http.Client{
		Timeout: c.cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: ts,
			Base: &retryTransport{
				base:       c.transport,
				maxRetries: c.cfg.MaxRetries,
				baseDelay:  c.baseDelay,
				maxDelay:   c.maxDelay,
				logger:     c.logger,
			},
		},
	}

	return c.httpClient, nil
}

// findCredentials: сначала файл из GOOGLE_APPLICATION_CREDENTIALS, затем учётные данные окружения.
func (c *Client) findCredentials(ctx context.Context) (*google.Credentials, error) {
	if c.cfg.CredentialsFile != "" {
		data, err := os.ReadFile(c.cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}

		return google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	}

	return google.FindDefaultCredentials(ctx, cloudPlatformScope)
}

func (c *Client) endpoint(req *usecase.EmbedTextReq) string {
	base := c.cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", req.Location)
	}

	return fmt.Sprintf(
		"%s/v1/projects/%s/locations/%s/models/%s:embedText",
		strings.TrimRight(base, "/"),
		url.PathEscape(req.ProjectID),
		url.PathEscape(req.Location),
		url.PathEscape(req.Model),
	)
}

func validate(req *usecase.EmbedTextReq) error {
	var missing []string
	if req.ProjectID == "" {
		missing = append(missing, "project id")
	}
	if req.Location == "" {
		missing = append(missing, "location")
	}
	if req.Model == "" {
		missing = append(missing, "model")
	}
	if len(missing) > 0 {
		return e.Wrap("missing "+strings.Join(missing, ", "), e.ErrConfiguration)
	}

	return nil
}

// isSuccessful не считает отказом для breaker'а отмену запроса и ошибки клиента 4xx, кроме 429.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode < http.StatusInternalServerError && pe.StatusCode != http.StatusTooManyRequests
	}

	return false
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}

	return string(body)
}
