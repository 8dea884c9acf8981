package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyFromRef(t *testing.T) {
	cases := map[string]string{
		"pottery/vase.jpg":          "pottery/vase.jpg",
		"/pottery/vase.jpg":         "pottery/vase.jpg",
		"artworks/pottery/vase.jpg": "pottery/vase.jpg",
		" /artworks/vase.jpg ":      "vase.jpg",
		"artworks-old/vase.jpg":     "artworks-old/vase.jpg",
		"":                          "",
	}
	for ref, want := range cases {
		assert.Equal(t, want, ObjectKeyFromRef("artworks", ref), ref)
	}
}
