package images

import "strings"

// IsValidImageURL accepts only http(s) URLs not matching any denylist
// substring. The denylist screens out tracking pixels, placeholder art,
// site logos, 1x1 images, and spinner gifs the scrapers kept picking up.
func IsValidImageURL(url string, denylist []string) bool {
	lower := strings.ToLower(strings.TrimSpace(url))
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	for _, bad := range denylist {
		if bad != "" && strings.Contains(lower, strings.ToLower(bad)) {
			return false
		}
	}
	return true
}
