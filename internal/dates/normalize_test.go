package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	// Reference "today" used for year inference.
	ref := time.Date(2025, time.February, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		text   string
		start  string
		end    string
		approx bool
	}{
		{"2025-03-10 to 2025-03-15", "2025-03-10", "2025-03-15", false},
		{"2025-03-10..2025-03-15", "2025-03-10", "2025-03-15", false},
		{"from 2025-03-10 - 2025-03-15", "2025-03-10", "2025-03-15", false},
		{"2025-04-01", "2025-04-01", "2025-04-01", false},
		{"March 10-15", "2025-03-10", "2025-03-15", false},
		{"Mar 10th to 15th, 2026", "2026-03-10", "2026-03-15", false},
		{"mar 28 - apr 2", "2025-03-28", "2025-04-02", false},
		{"Dec 28 - Jan 3", "2025-12-28", "2026-01-03", false},
		{"between march 10 and march 15", "2025-03-10", "2025-03-15", false},
		{"Dec 28, 2025 to Jan 3, 2026", "2025-12-28", "2026-01-03", false},
		{"3/10-3/15", "2025-03-10", "2025-03-15", false},
		{"12/28/25 - 1/3/26", "2025-12-28", "2026-01-03", false},
		{"early April", "2025-04-01", "2025-04-10", true},
		{"mid-march", "2025-03-11", "2025-03-20", true},
		{"late February 2028", "2028-02-21", "2028-02-29", true},
		{"first week of May", "2025-05-01", "2025-05-07", true},
		{"the last week in june", "2025-06-24", "2025-06-30", true},
		{"July", "2025-07-01", "2025-07-31", true},
		{"sometime in september 2026.", "2026-09-01", "2026-09-30", true},
		// Already over this year, so next year is assumed.
		{"January 5-10", "2026-01-05", "2026-01-10", false},
		{"early feb", "2026-02-01", "2026-02-10", true},
		// Still running this year.
		{"mid feb", "2025-02-11", "2025-02-20", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			require := require.New(t)

			n, ok := Normalize(tt.text, ref)
			require.True(ok)
			require.Equal(tt.start, n.Range.StartString())
			require.Equal(tt.end, n.Range.EndString())
			require.Equal(tt.approx, n.Approximate)
		})
	}
}

func TestNormalizeUnrecognized(t *testing.T) {
	ref := time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC)

	for _, text := range []string{
		"",
		"   ",
		"whenever works for everyone",
		"after my exams",
		"March 40-42",
		"2025-03-15 to 2025-03-10",
		"13/01-13/05",
		"Feb 30-31",
	} {
		_, ok := Normalize(text, ref)
		require.False(t, ok, "expected %q to be unrecognized", text)
	}
}
