package usecase

import (
	"context"
	"sync"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/stretchr/testify/mock"
)

type embeddingMock struct {
	mock.Mock
}

func (m *embeddingMock) EmbedText(ctx context.Context, req *EmbedTextReq) ([]float32, error) {
	args := m.Called(ctx, req)
	vec, _ := args.Get(0).([]float32)
	return vec, args.Error(1)
}

func (m *embeddingMock) GetCachedEmbedding(ctx context.Context, req *EmbedTextReq) ([]float32, error) {
	args := m.Called(ctx, req)
	vec, _ := args.Get(0).([]float32)
	return vec, args.Error(1)
}

func textIs(text string) any {
	return mock.MatchedBy(func(req *EmbedTextReq) bool { return req.Text == text })
}

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) WriteMessage(ctx context.Context, req *WriteMessageReq) error {
	return m.Called(ctx, req).Error(0)
}

// fakeArtworkRepo хранит работы в памяти в порядке добавления.
type fakeArtworkRepo struct {
	mu        sync.Mutex
	byID      map[string]domain.Artwork
	order     []string
	getAllErr error
	getErr    error
	existErr  error
	reads     []string
}

func newFakeArtworkRepo(artworks ...domain.Artwork) *fakeArtworkRepo {
	r := &fakeArtworkRepo{byID: map[string]domain.Artwork{}}
	_ = r.Upsert(context.Background(), artworks)
	return r
}

func (r *fakeArtworkRepo) GetByID(_ context.Context, id string) (*domain.Artwork, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reads = append(r.reads, id)
	if r.getErr != nil {
		return nil, r.getErr
	}
	a, ok := r.byID[id]
	if !ok {
		return nil, e.ErrArtworkNotFound
	}
	return &a, nil
}

func (r *fakeArtworkRepo) ExistingIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.existErr != nil {
		return nil, r.existErr
	}
	existing := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

func (r *fakeArtworkRepo) GetAll(context.Context) ([]domain.Artwork, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getAllErr != nil {
		return nil, r.getAllErr
	}
	out := make([]domain.Artwork, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *fakeArtworkRepo) Upsert(_ context.Context, artworks []domain.Artwork) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range artworks {
		if _, ok := r.byID[a.ID]; !ok {
			r.order = append(r.order, a.ID)
		}
		r.byID[a.ID] = a
	}
	return nil
}

func (r *fakeArtworkRepo) readIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reads...)
}

type fakeEmbeddingRepo struct {
	mu      sync.Mutex
	records []domain.EmbeddingRecord
	batches [][]domain.EmbeddingRecord
	err     error
}

func (r *fakeEmbeddingRepo) GetAll(context.Context) ([]domain.EmbeddingRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.records, nil
}

func (r *fakeEmbeddingRepo) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, append([]domain.EmbeddingRecord(nil), records...))
	r.records = append(r.records, records...)
	return nil
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	items   map[string]domain.Artwork
	err     error
	deleted []string
	set     chan []domain.Artwork
}

func newFakeCacheRepo(artworks ...domain.Artwork) *fakeCacheRepo {
	c := &fakeCacheRepo{items: map[string]domain.Artwork{}, set: make(chan []domain.Artwork, 8)}
	for _, a := range artworks {
		c.items[a.ID] = a
	}
	return c
}

func (c *fakeCacheRepo) GetArtworks(_ context.Context, ids []string) (map[string]domain.Artwork, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	out := make(map[string]domain.Artwork)
	for _, id := range ids {
		if a, ok := c.items[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (c *fakeCacheRepo) SetArtworks(_ context.Context, artworks []domain.Artwork) error {
	c.mu.Lock()
	for _, a := range artworks {
		c.items[a.ID] = a
	}
	c.mu.Unlock()

	select {
	case c.set <- artworks:
	default:
	}
	return nil
}

func (c *fakeCacheRepo) DeleteArtworks(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleted = append(c.deleted, ids...)
	for _, id := range ids {
		delete(c.items, id)
	}
	return nil
}

func (c *fakeCacheRepo) deletedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

type prefixImages struct {
	prefix string
}

func (p prefixImages) ResolveImage(_ context.Context, ref string) string {
	return p.prefix + ref
}
