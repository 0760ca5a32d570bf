package anime

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestIDFromURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"https://4anime.gg/ajax/episode/list/12345", 12345, false},
		{"https://mirror.example/ajax/episode/list/1", 1, false},
		{"  https://4anime.gg/ajax/episode/list/42  ", 42, false},
		{"https://4anime.gg/watch/example-show-12345", 0, true},
		{"https://4anime.gg/ajax/episode/list/", 0, true},
		{"not a url at all", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := IDFromURL(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, "IDFromURL(%q)", tt.raw)
			continue
		}
		assert.NoError(t, err, "IDFromURL(%q)", tt.raw)
		assert.Equal(t, tt.want, got)
	}
}
