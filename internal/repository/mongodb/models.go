package mongodb

import (
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// artworkDocument — документ коллекции artworks при чтении.
// Цена хранится витриной по-разному (число, строка, Decimal128), поэтому читается как RawValue.
type artworkDocument struct {
	ID          string        `bson:"_id"`
	Name        string        `bson:"name,omitempty"`
	Description string        `bson:"description,omitempty"`
	Category    string        `bson:"category,omitempty"`
	ArtistName  string        `bson:"artistName,omitempty"`
	Artist      string        `bson:"artist,omitempty"`
	State       string        `bson:"state,omitempty"`
	Tags        []string      `bson:"tags,omitempty"`
	Images      []string      `bson:"images,omitempty"`
	Image       string        `bson:"image,omitempty"`
	Price       bson.RawValue `bson:"price,omitempty"`
}

// artworkWriteDocument — документ коллекции artworks при записи.
type artworkWriteDocument struct {
	ID          string           `bson:"_id"`
	Name        string           `bson:"name,omitempty"`
	Description string           `bson:"description,omitempty"`
	Category    string           `bson:"category,omitempty"`
	ArtistName  string           `bson:"artistName,omitempty"`
	Artist      string           `bson:"artist,omitempty"`
	State       string           `bson:"state,omitempty"`
	Tags        []string         `bson:"tags,omitempty"`
	Images      []string         `bson:"images,omitempty"`
	Image       string           `bson:"image,omitempty"`
	Price       *bson.Decimal128 `bson:"price,omitempty"`
	UpdatedAt   time.Time        `bson:"updatedAt"`
}

// embeddingDocument — документ коллекции embeddings. artworkId может не совпадать с _id.
type embeddingDocument struct {
	ID        string    `bson:"_id"`
	ArtworkID string    `bson:"artworkId"`
	Vector    []float64 `bson:"vector"`
	Model     string    `bson:"model,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *artworkDocument) toDomain() domain.Artwork {
	return domain.Artwork{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		ArtistName:  d.ArtistName,
		Artist:      d.Artist,
		State:       d.State,
		Tags:        d.Tags,
		Images:      d.Images,
		Image:       d.Image,
		Price:       priceFromRaw(d.Price),
	}
}

func newArtworkWriteDocument(a *domain.Artwork) (*artworkWriteDocument, error) {
	doc := &artworkWriteDocument{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Category:    a.Category,
		ArtistName:  a.ArtistName,
		Artist:      a.Artist,
		State:       a.State,
		Tags:        a.Tags,
		Images:      a.Images,
		Image:       a.Image,
		UpdatedAt:   time.Now().UTC(),
	}

	if a.Price.Valid {
		d128, err := bson.ParseDecimal128(a.Price.Decimal.String())
		if err != nil {
			return nil, err
		}
		doc.Price = &d128
	}

	return doc, nil
}

func (d *embeddingDocument) toDomain() domain.EmbeddingRecord {
	artworkID := d.ArtworkID
	if artworkID == "" {
		artworkID = d.ID
	}

	vec := make([]float32, len(d.Vector))
	for i, v := range d.Vector {
		vec[i] = float32(v)
	}

	return domain.EmbeddingRecord{
		ArtworkID: artworkID,
		Vector:    vec,
		Model:     d.Model,
		UpdatedAt: d.UpdatedAt,
	}
}

func newEmbeddingDocument(r *domain.EmbeddingRecord) *embeddingDocument {
	vec := make([]float64, len(r.Vector))
	for i, v := range r.Vector {
		vec[i] = float64(v)
	}

	return &embeddingDocument{
		ID:        r.ArtworkID,
		ArtworkID: r.ArtworkID,
		Vector:    vec,
		Model:     r.Model,
		UpdatedAt: r.UpdatedAt,
	}
}

// priceFromRaw понимает double, int32, int64, Decimal128 и строку. Остальное — цены нет.
func priceFromRaw(raw bson.RawValue) decimal.NullDecimal {
	switch raw.Type {
	case bson.TypeDouble:
		if f, ok := raw.DoubleOK(); ok {
			return decimal.NewNullDecimal(decimal.NewFromFloat(f))
		}
	case bson.TypeInt32:
		if i, ok := raw.Int32OK(); ok {
			return decimal.NewNullDecimal(decimal.NewFromInt32(i))
		}
	case bson.TypeInt64:
		if i, ok := raw.Int64OK(); ok {
			return decimal.NewNullDecimal(decimal.NewFromInt(i))
		}
	case bson.TypeDecimal128:
		if d, ok := raw.Decimal128OK(); ok {
			if v, err := decimal.NewFromString(d.String()); err == nil {
				return decimal.NewNullDecimal(v)
			}
		}
	case bson.TypeString:
		if s, ok := raw.StringValueOK(); ok {
			if v, err := decimal.NewFromString(s); err == nil {
				return decimal.NewNullDecimal(v)
			}
		}
	}

	return decimal.NullDecimal{}
}
