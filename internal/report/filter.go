package report

import (
	"strings"

	"github.com/xtreamctl/xtreamctl/pkg/xtream"
)

// Filter selects the streams matching the optional category and channel
// substrings. The category substring is matched case-insensitively against
// category names; a stream survives when its category id belongs to a
// matching category. The channel substring is matched case-insensitively
// against stream names. Both filters combine with AND; an empty substring
// passes everything through.
//
// The result is always an order-preserving subsequence of streams, and a
// query matching nothing yields an empty result, not an error.
func Filter(categories []xtream.Category, streams []xtream.Stream, category, channel string) []xtream.Stream {
	category = strings.ToLower(category)
	channel = strings.ToLower(channel)

	var matchingIDs map[string]struct{}
	if category != "" {
		matchingIDs = make(map[string]struct{})
		for _, cat := range categories {
			if strings.Contains(strings.ToLower(cat.CategoryName), category) {
				matchingIDs[cat.CategoryID.String()] = struct{}{}
			}
		}
	}

	filtered := make([]xtream.Stream, 0, len(streams))
	for _, stream := range streams {
		if matchingIDs != nil {
			if _, ok := matchingIDs[stream.CategoryID.String()]; !ok {
				continue
			}
		}
		if channel != "" && !strings.Contains(strings.ToLower(stream.Name), channel) {
			continue
		}
		filtered = append(filtered, stream)
	}

	return filtered
}

// CategoryNames builds the category id to name lookup used when labeling
// report rows.
func CategoryNames(categories []xtream.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, cat := range categories {
		names[cat.CategoryID.String()] = cat.CategoryName
	}
	return names
}
