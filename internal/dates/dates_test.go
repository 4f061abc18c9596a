package dates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start, end string) Range {
	t.Helper()
	r, err := ParseRange(start, end)
	require.NoError(t, err)
	return r
}

func TestParseRange(t *testing.T) {
	require := require.New(t)

	r, err := ParseRange("2025-03-10", "2025-03-15")
	require.NoError(err)
	require.Equal(6, r.Days())
	require.Equal("2025-03-10..2025-03-15", r.String())

	_, err = ParseRange("2025-03-15", "2025-03-10")
	require.ErrorContains(err, "after end date")

	_, err = ParseRange("03/10/2025", "2025-03-15")
	require.ErrorContains(err, "YYYY-MM-DD")

	single := mustRange(t, "2025-03-10", "2025-03-10")
	require.Equal(1, single.Days())
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name     string
		a, b     [2]string
		expected int
	}{
		{"identical", [2]string{"2025-03-10", "2025-03-15"}, [2]string{"2025-03-10", "2025-03-15"}, 6},
		{"contained", [2]string{"2025-03-11", "2025-03-14"}, [2]string{"2025-03-10", "2025-03-15"}, 4},
		{"partial", [2]string{"2025-03-01", "2025-03-05"}, [2]string{"2025-03-04", "2025-03-09"}, 2},
		{"touching", [2]string{"2025-03-01", "2025-03-05"}, [2]string{"2025-03-05", "2025-03-09"}, 1},
		{"disjoint", [2]string{"2025-03-01", "2025-03-05"}, [2]string{"2025-04-01", "2025-04-05"}, 0},
		{"across month", [2]string{"2025-02-27", "2025-03-02"}, [2]string{"2025-02-01", "2025-03-01"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustRange(t, tt.a[0], tt.a[1])
			b := mustRange(t, tt.b[0], tt.b[1])
			require.Equal(t, tt.expected, a.Overlap(b))
			require.Equal(t, tt.expected, b.Overlap(a))
		})
	}
}

func TestContainsAndHuman(t *testing.T) {
	require := require.New(t)

	r := mustRange(t, "2025-03-10", "2025-03-15")
	day, err := ParseDate("2025-03-12")
	require.NoError(err)
	require.True(r.Contains(day))
	require.True(r.Contains(r.Start))
	require.True(r.Contains(r.End))
	require.False(r.Contains(r.End.AddDate(0, 0, 1)))

	require.Equal("Mar 10 - Mar 15, 2025", r.Human())
	require.Equal("Dec 30, 2025 - Jan 2, 2026", mustRange(t, "2025-12-30", "2026-01-02").Human())
	require.Equal("Mar 10, 2025", mustRange(t, "2025-03-10", "2025-03-10").Human())
}
