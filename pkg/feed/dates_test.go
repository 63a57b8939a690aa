package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-01-01", "2024-01-01"},
		{"2024/01/01", "2024-01-01"},
		{"January 1, 2024", "2024-01-01"},
		{"January 1 2024", "2024-01-01"},
		{"Mon, 01 Jan 2024 10:00:00 GMT", "2024-01-01"},
		{" 2024-07-15 ", "2024-07-15"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "qwerty-zzz"} {
		_, err := normalizeDate(in)
		var dateErr *DateParseError
		require.ErrorAs(t, err, &dateErr, in)
	}
}
