package converter

// ArtworkRedisModel — представление работы в кэше Redis (JSON).
type ArtworkRedisModel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	ArtistName  string   `json:"artist_name,omitempty"`
	Artist      string   `json:"artist,omitempty"`
	State       string   `json:"state,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Images      []string `json:"images,omitempty"`
	Image       string   `json:"image,omitempty"`
	Price       *string  `json:"price,omitempty"` // десятичная строка без потери точности
}
