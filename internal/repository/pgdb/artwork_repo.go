package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const artworkColumns = `
	id, name, description, category, artist_name, artist, state,
	tags, images, image, price, created_at, updated_at
`

// ArtworkRepo реализует репозиторий работ поверх PostgreSQL.
type ArtworkRepo struct {
	pool *pgxpool.Pool
	conv converter.ArtworkConverter
}

func NewArtworkRepo(pool *pgxpool.Pool, conv converter.ArtworkConverter) *ArtworkRepo {
	return &ArtworkRepo{
		pool: pool,
		conv: conv,
	}
}

// GetByID возвращает работу по идентификатору или e.ErrArtworkNotFound.
func (a *ArtworkRepo) GetByID(ctx context.Context, id string) (*domain.Artwork, error) {
	query := `SELECT ` + artworkColumns + ` FROM artworks WHERE id = $1`

	rows, err := a.pool.Query(ctx, query, id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[converter.ArtworkModel])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(id, e.ErrArtworkNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a.conv.ToEntity(&model), nil
}

// GetAll возвращает все работы в порядке добавления.
func (a *ArtworkRepo) GetAll(ctx context.Context) ([]domain.Artwork, error) {
	query := `SELECT ` + artworkColumns + ` FROM artworks ORDER BY position`

	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.ArtworkModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a.conv.ToArrEntity(models), nil
}

// ExistingIDs возвращает подмножество ids, которое есть в таблице, одним запросом.
func (a *ArtworkRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := a.pool.Query(ctx, `SELECT id FROM artworks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	for _, id := range found {
		existing[id] = struct{}{}
	}

	return existing, nil
}

// Upsert создаёт или перезаписывает работы по id одним батчем.
// Позиция существующей работы в каталоге не меняется.
func (a *ArtworkRepo) Upsert(ctx context.Context, artworks []domain.Artwork) error {
	if len(artworks) == 0 {
		return nil
	}

	query := `
		INSERT INTO artworks (
			id, name, description, category, artist_name, artist, state,
			tags, images, image, price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			artist_name = EXCLUDED.artist_name,
			artist = EXCLUDED.artist,
			state = EXCLUDED.state,
			tags = EXCLUDED.tags,
			images = EXCLUDED.images,
			image = EXCLUDED.image,
			price = EXCLUDED.price,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for i := range artworks {
		m := a.conv.ToModel(&artworks[i])
		batch.Queue(query,
			m.ID, m.Name, m.Description, m.Category, m.ArtistName, m.Artist, m.State,
			m.Tags, m.Images, m.Image, m.Price,
		)
	}

	if err := a.pool.SendBatch(ctx, batch).Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
