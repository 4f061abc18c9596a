package schedule

import (
	"github.com/trypzy/backend/internal/dates"
	"github.com/trypzy/backend/internal/storage/models"
)

// DefaultSimilarityThreshold is the score at or above which a new window is
// reported as a near-duplicate of an existing one.
const DefaultSimilarityThreshold = 0.6

// SimilarMatch is the closest existing window to a candidate range.
type SimilarMatch struct {
	WindowID string
	Score    float64
}

// Similarity scores two ranges as shared days over the longer length.
// Identical ranges score 1, disjoint ranges 0.
func Similarity(a, b dates.Range) float64 {
	overlap := a.Overlap(b)
	if overlap == 0 {
		return 0
	}
	longest := a.Days()
	if d := b.Days(); d > longest {
		longest = d
	}
	return float64(overlap) / float64(longest)
}

// FindSimilar returns the best-scoring comparable window when its score reaches
// threshold. Ties go to the earliest created window.
func FindSimilar(candidate dates.Range, existing []models.WindowWithSupport, threshold float64) *SimilarMatch {
	var best *SimilarMatch
	var bestWindow *models.WindowWithSupport
	for i := range existing {
		w := &existing[i]
		if w.IsBlocker() {
			continue
		}
		r, ok := windowRange(&w.DateWindow)
		if !ok {
			continue
		}
		score := Similarity(candidate, r)
		if score == 0 {
			continue
		}
		if best == nil || score > best.Score || (score == best.Score && createdBefore(w, bestWindow)) {
			best = &SimilarMatch{WindowID: w.ID, Score: score}
			bestWindow = w
		}
	}
	if best == nil || best.Score < threshold {
		return nil
	}
	return best
}

// windowRange returns the effective range of a structured window.
func windowRange(w *models.DateWindow) (dates.Range, bool) {
	if w.IsUnstructured() {
		return dates.Range{}, false
	}
	start, end, _ := w.EffectiveRange()
	r, err := dates.ParseRange(start, end)
	if err != nil {
		return dates.Range{}, false
	}
	return r, true
}

// createdBefore orders windows by creation time, then id.
func createdBefore(a, b *models.WindowWithSupport) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
