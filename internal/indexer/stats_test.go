package indexer

import (
	"strings"
	"testing"
)

func TestComputeTokenStats(t *testing.T) {
	tests := []struct {
		name        string
		tokenCounts []int
		want        ChunkTokenStats
	}{
		{
			name:        "empty",
			tokenCounts: []int{},
			want:        ChunkTokenStats{},
		},
		{
			name:        "single value",
			tokenCounts: []int{100},
			want:        ChunkTokenStats{Min: 100, Max: 100, Mean: 100, P95: 100},
		},
		{
			name:        "unsorted values",
			tokenCounts: []int{30, 10, 20},
			want:        ChunkTokenStats{Min: 10, Max: 30, Mean: 20, P95: 30},
		},
		{
			name:        "twenty values",
			tokenCounts: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20},
			want:        ChunkTokenStats{Min: 1, Max: 20, Mean: 10.5, P95: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeTokenStats(tt.tokenCounts); got != tt.want {
				t.Errorf("computeTokenStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeChunkStats(t *testing.T) {
	chunks := []Chunk{
		{Text: strings.Repeat("a", 40)},
		{Text: "ab"},
	}

	got := computeChunkStats(chunks)
	if got.Max != 10 {
		t.Errorf("Max = %d, want 10", got.Max)
	}
	if got.Min != 1 {
		t.Errorf("Min = %d, want 1 (minimum token count)", got.Min)
	}

	if empty := computeChunkStats(nil); empty != (ChunkTokenStats{}) {
		t.Errorf("computeChunkStats(nil) = %+v, want zero value", empty)
	}
}
