package gemini

import (
	"fmt"
	"net/url"
	"strings"
)

// minImages is how many gallery images a listing is expected to carry.
const minImages = 8

// cleanImageURLs keeps absolute http(s) URLs, drops duplicates, and pads the
// gallery with placeholder images up to minImages.
func cleanImageURLs(id string, in []string) []string {
	out := make([]string, 0, max(len(in), minImages))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		raw = strings.TrimSpace(raw)
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		out = append(out, raw)
	}
	for j := len(out); j < minImages; j++ {
		out = append(out, placeholderImage(id, j+1))
	}
	return out
}

func placeholderImage(id string, n int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s_%d/800/600", url.PathEscape(id), n)
}
