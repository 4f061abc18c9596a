package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trypzy/backend/internal/dates"
	"github.com/trypzy/backend/internal/storage/models"
)

func mustRange(t *testing.T, start, end string) dates.Range {
	t.Helper()
	r, err := dates.ParseRange(start, end)
	require.NoError(t, err)
	return r
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		a, b   [2]string
		expect float64
	}{
		{"identical", [2]string{"2025-03-10", "2025-03-15"}, [2]string{"2025-03-10", "2025-03-15"}, 1},
		{"disjoint", [2]string{"2025-03-10", "2025-03-15"}, [2]string{"2025-03-20", "2025-03-22"}, 0},
		{"contained", [2]string{"2025-03-11", "2025-03-14"}, [2]string{"2025-03-10", "2025-03-15"}, 4.0 / 6.0},
		{"touching one day", [2]string{"2025-03-10", "2025-03-15"}, [2]string{"2025-03-15", "2025-03-24"}, 1.0 / 10.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustRange(t, tt.a[0], tt.a[1])
			b := mustRange(t, tt.b[0], tt.b[1])
			require.InDelta(t, tt.expect, Similarity(a, b), 1e-9)
			require.InDelta(t, tt.expect, Similarity(b, a), 1e-9)
		})
	}
}

func TestFindSimilarContainedWindow(t *testing.T) {
	require := require.New(t)
	existing := []models.WindowWithSupport{
		window("w1", "alice", 0, "2025-03-10", "2025-03-15"),
	}

	match := FindSimilar(mustRange(t, "2025-03-11", "2025-03-14"), existing, DefaultSimilarityThreshold)
	require.NotNil(match)
	require.Equal("w1", match.WindowID)
	require.GreaterOrEqual(match.Score, 0.6)
}

func TestFindSimilarDisjointWindow(t *testing.T) {
	existing := []models.WindowWithSupport{
		window("w1", "alice", 0, "2025-03-10", "2025-03-15"),
		window("w2", "bob", 1, "2025-04-01", "2025-04-05"),
	}
	require.Nil(t, FindSimilar(mustRange(t, "2025-05-01", "2025-05-03"), existing, DefaultSimilarityThreshold))
}

func TestFindSimilarSkipsBlockersAndUnstructured(t *testing.T) {
	unstructured := models.WindowWithSupport{
		DateWindow: models.DateWindow{
			ID: "w3", ProposedBy: "carol", SourceText: strPtr("whenever"),
			Precision: models.PrecisionUnstructured, WindowType: models.WindowTypeAvailable,
		},
		Supporters: []string{},
	}
	existing := []models.WindowWithSupport{
		blocker("w1", "alice", 0, "2025-03-10", "2025-03-15"),
		unstructured,
	}
	require.Nil(t, FindSimilar(mustRange(t, "2025-03-10", "2025-03-15"), existing, DefaultSimilarityThreshold))
}

func TestFindSimilarTiesGoToEarliest(t *testing.T) {
	require := require.New(t)
	existing := []models.WindowWithSupport{
		window("late", "bob", 5, "2025-03-10", "2025-03-15"),
		window("early", "alice", 1, "2025-03-10", "2025-03-15"),
	}

	match := FindSimilar(mustRange(t, "2025-03-10", "2025-03-15"), existing, DefaultSimilarityThreshold)
	require.NotNil(match)
	require.Equal("early", match.WindowID)
	require.Equal(1.0, match.Score)
}

func TestFindSimilarBelowThreshold(t *testing.T) {
	existing := []models.WindowWithSupport{
		window("w1", "alice", 0, "2025-03-10", "2025-03-19"),
	}
	// 3 shared days out of 10.
	require.Nil(t, FindSimilar(mustRange(t, "2025-03-17", "2025-03-21"), existing, DefaultSimilarityThreshold))
}
