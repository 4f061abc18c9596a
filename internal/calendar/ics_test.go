package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteAllDayEvent(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	require.NoError(Write(&buf, Event{
		UID:         "trip-1@trypzy",
		Summary:     "Lisbon, finally",
		Description: "Locked; see chat",
		Start:       time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Stamp:       time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC),
	}))

	out := buf.String()
	require.True(strings.HasPrefix(out, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\n"))
	require.True(strings.HasSuffix(out, "END:VEVENT\r\nEND:VCALENDAR\r\n"))
	require.Contains(out, "DTSTART;VALUE=DATE:20250310\r\n")
	require.Contains(out, "DTEND;VALUE=DATE:20250316\r\n")
	require.Contains(out, "DTSTAMP:20250115T093000Z\r\n")
	require.Contains(out, `SUMMARY:Lisbon\, finally`+"\r\n")
	require.Contains(out, `DESCRIPTION:Locked\; see chat`+"\r\n")
}

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"short", "SUMMARY:short"},
		{"ascii", "DESCRIPTION:" + strings.Repeat("a", 200)},
		{"multibyte", "SUMMARY:" + strings.Repeat("日本", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folded := fold(tt.in)
			lines := strings.Split(folded, "\r\n")
			for i, l := range lines {
				require.LessOrEqual(t, len(l), maxLineLen)
				if i > 0 {
					require.True(t, strings.HasPrefix(l, " "))
				}
			}
			require.Equal(t, tt.in, strings.ReplaceAll(folded, "\r\n ", ""))
		})
	}
}
