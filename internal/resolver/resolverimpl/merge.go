package resolverimpl

import (
	"sort"

	"github.com/orgball2608/fedi-albums/internal/domain"
)

// union deduplicates by status id. A later copy replaces the earlier one
// but keeps its position.
func union(lists ...[]domain.Photo) []domain.Photo {
	index := make(map[string]int)
	out := make([]domain.Photo, 0)
	for _, list := range lists {
		for _, p := range list {
			if i, ok := index[p.StatusID]; ok {
				out[i] = p
				continue
			}
			index[p.StatusID] = len(out)
			out = append(out, p)
		}
	}
	return out
}

// finalize filters, sorts newest first and truncates, in that order.
func finalize(candidates []domain.Photo, tags []string, mode domain.TagMode, limit int) []domain.Photo {
	matched := make([]domain.Photo, 0, len(candidates))
	for _, p := range candidates {
		if p.MatchesTags(tags, mode) {
			matched = append(matched, p)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
