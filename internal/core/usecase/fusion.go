package usecase

import (
	"sort"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

type fusedHit struct {
	hit   domain.MemoryHit
	score float64
}

// fuseHitsRRF blends primary- and fallback-space results with reciprocal
// rank fusion, deduplicating by hit identity. Primary-space metadata wins
// on conflict.
func fuseHitsRRF(primary, fallback []domain.MemoryHit, rrfK int) []domain.MemoryHit {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedHit, len(primary)+len(fallback))
	order := make([]string, 0, len(primary)+len(fallback))

	addList := func(hits []domain.MemoryHit) {
		for rank, hit := range hits {
			key := memoryHitKey(hit)
			candidate, seen := acc[key]
			if !seen {
				candidate.hit = hit
				order = append(order, key)
			}
			candidate.score += 1.0 / float64(rrfK+rank+1)
			acc[key] = candidate
		}
	}

	addList(primary)
	addList(fallback)

	out := make([]domain.MemoryHit, 0, len(acc))
	for _, key := range order {
		c := acc[key]
		hit := c.hit
		hit.Score = c.score
		out = append(out, hit)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Text < out[j].Text
	})

	return out
}

func trimHits(hits []domain.MemoryHit, limit int) []domain.MemoryHit {
	if limit <= 0 || len(hits) <= limit {
		return hits
	}
	return hits[:limit]
}

func memoryHitKey(hit domain.MemoryHit) string {
	if hit.ID != "" {
		return hit.ID
	}
	return hit.Text
}
