package handlers

import (
	"mime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttachmentDisposition(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"plain token", "trip-1.ics"},
		{"space", "team offsite.ics"},
		{"quote and semicolon", `a"; filename="evil.exe.ics`},
		{"backslash", `weird\\id.ics`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := attachmentDisposition(tt.filename)

			disposition, params, err := mime.ParseMediaType(header)
			require.NoError(t, err)
			require.Equal(t, "attachment", disposition)
			require.Equal(t, map[string]string{"filename": tt.filename}, params)
		})
	}
}
