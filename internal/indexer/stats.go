package indexer

import (
	"math"
	"sort"
	"unicode/utf8"
)

// TokensPerRune is an approximation for token counting (4 chars per token).
const TokensPerRune = 4.0

// ChunkTokenStats contains statistics about estimated token counts in a document's chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// computeChunkStats estimates token counts from rune counts and summarizes them.
func computeChunkStats(chunks []Chunk) ChunkTokenStats {
	if len(chunks) == 0 {
		return ChunkTokenStats{}
	}

	tokenCounts := make([]int, 0, len(chunks))
	for _, chunk := range chunks {
		tokenCount := int(math.Round(float64(utf8.RuneCountInString(chunk.Text)) / TokensPerRune))
		if tokenCount < 1 {
			tokenCount = 1
		}
		tokenCounts = append(tokenCounts, tokenCount)
	}
	return computeTokenStats(tokenCounts)
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
