package catalog

import "carbridge/pkg/models"

// DefaultRecentLimit bounds the recent-tracks list.
const DefaultRecentLimit = 10

// PushRecent returns a new recent list with item at the front. An earlier
// entry with the same id is removed and the tail is trimmed to limit.
// The input slice is not modified.
func PushRecent(recent []models.MediaItem, item models.MediaItem, limit int) []models.MediaItem {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	out := make([]models.MediaItem, 0, limit)
	out = append(out, item)
	for _, it := range recent {
		if len(out) >= limit {
			break
		}
		if it.ID == item.ID {
			continue
		}
		out = append(out, it)
	}
	return out
}
