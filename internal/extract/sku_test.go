package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalSKU(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "leading apostrophe stripped",
			raw:  "'1780234567890",
			want: "1780234567890",
		},
		{
			name: "already clean",
			raw:  "1780234567890",
			want: "1780234567890",
		},
		{
			name: "letters only canonicalize to empty",
			raw:  "abc",
			want: "",
		},
		{
			name: "mixed noise removed",
			raw:  " 1780-2345.67890 ",
			want: "1780234567890",
		},
		{
			name: "double apostrophe",
			raw:  "''1780234567890",
			want: "1780234567890",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalSKU(tt.raw))
		})
	}
}
