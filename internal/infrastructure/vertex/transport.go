package vertex

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/metrics"
	"github.com/DRSN-tech/artwork-recommender/pkg/jitter"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
)

// retryTransport повторяет запрос при сетевых ошибках, 429 и 5xx
// с экспоненциальной задержкой и jitter.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     logger.Logger
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	for attempt := 0; ; attempt++ {
		r, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}

		resp, err := t.base.RoundTrip(r)
		if attempt >= t.maxRetries || ctx.Err() != nil || !retryable(resp, err) {
			return resp, err
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		sleepTime := jitter.ExponentialBackoff(t.baseDelay, t.maxDelay, attempt, jitter.DefaultJitter)
		t.logger.Warnf("embedding request failed, retrying in %v (attempt %d): %s", sleepTime, attempt+1, describe(resp, err))
		metrics.EmbeddingRetries.Inc()

		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// rewind возвращает копию запроса с заново открытым телом для повторной попытки.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}

	r := req.Clone(req.Context())
	r.Body = body
	return r, nil
}

func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}

	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}

func describe(resp *http.Response, err error) string {
	if err != nil {
		return err.Error()
	}

	return resp.Status
}
