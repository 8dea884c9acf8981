package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArtworkModel представляет запись таблицы artworks в PostgreSQL.
type ArtworkModel struct {
	ID          string              `db:"id"`
	Name        string              `db:"name"`
	Description string              `db:"description"`
	Category    string              `db:"category"`
	ArtistName  string              `db:"artist_name"`
	Artist      string              `db:"artist"`
	State       string              `db:"state"`
	Tags        []string            `db:"tags"`
	Images      []string            `db:"images"`
	Image       string              `db:"image"`
	Price       decimal.NullDecimal `db:"price"`
	CreatedAt   time.Time           `db:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at"`
}
