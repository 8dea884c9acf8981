package closer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloser_LIFO(t *testing.T) {
	c := NewCloser(0)

	var order []string
	for _, name := range []string{"postgres", "qdrant", "redis"} {
		c.Add(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"redis", "qdrant", "postgres"}, order)

	// повторный вызов ничего не закрывает
	require.NoError(t, c.Close(context.Background()))
	assert.Len(t, order, 3)
}

func TestCloser_ErrorsNameResource(t *testing.T) {
	c := NewCloser(0)
	c.Add("redis", func(context.Context) error { return errors.New("connection reset") })
	c.Add("kafka", func(context.Context) error { return nil })

	err := c.Close(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: connection reset")
	assert.NotContains(t, err.Error(), "kafka")
}

func TestCloser_ForcedOnTimeout(t *testing.T) {
	c := NewCloser(100 * time.Millisecond)

	var (
		mu     sync.Mutex
		forced []string
	)
	c.Add("postgres", func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		forced = append(forced, "postgres")
		return nil
	})
	c.Add("slow", func(context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return errors.New("still busy")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown interrupted after 0/2 resources")
	assert.Contains(t, err.Error(), "[FORCED] slow: still busy")
	mu.Lock()
	assert.Equal(t, []string{"postgres"}, forced)
	mu.Unlock()
}
