package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidImageURL(t *testing.T) {
	denylist := []string{"1x1", "pixel", "placeholder", "logo", "spinner"}

	cases := []struct {
		name string
		url  string
		want bool
	}{
		{"https accepted", "https://cdn.example.com/img/echinacea.jpg", true},
		{"http accepted", "http://cdn.example.com/img/echinacea.jpg", true},
		{"scheme required", "ftp://cdn.example.com/img.jpg", false},
		{"relative rejected", "/img/echinacea.jpg", false},
		{"empty rejected", "", false},
		{"tracking pixel", "https://cdn.example.com/track/pixel.gif", false},
		{"1x1 image", "https://cdn.example.com/1x1.png", false},
		{"placeholder art", "https://cdn.example.com/Placeholder_bottle.jpg", false},
		{"site logo", "https://cdn.example.com/assets/LOGO.png", false},
		{"spinner gif", "https://cdn.example.com/spinner.gif", false},
		{"whitespace trimmed", "  https://cdn.example.com/ok.jpg  ", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidImageURL(tc.url, denylist))
		})
	}
}

func TestIsValidImageURLEmptyDenylist(t *testing.T) {
	assert.True(t, IsValidImageURL("https://cdn.example.com/logo.png", nil))
}
