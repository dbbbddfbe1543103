package main

import (
	"maps"
	"sort"

	"github.com/cwbudde/algo-ocarina/analysis"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Dominant   string             `json:"dominant,omitempty"`
	Knobs      map[string]float64 `json:"knobs"`
}

// leaderboard keeps the size best-scoring evaluations, earliest first on
// ties. It is not safe for concurrent use.
type leaderboard struct {
	size    int
	entries []topCandidate
}

func (b *leaderboard) offer(eval int, m analysis.Metrics, knobs map[string]float64) {
	b.entries = append(b.entries, topCandidate{
		Eval:       eval,
		Score:      m.Score,
		Similarity: m.Similarity,
		Dominant:   m.Dominant,
		Knobs:      knobs,
	})
	sort.SliceStable(b.entries, func(i, j int) bool {
		if b.entries[i].Score != b.entries[j].Score {
			return b.entries[i].Score < b.entries[j].Score
		}
		return b.entries[i].Eval < b.entries[j].Eval
	})
	if len(b.entries) > max(1, b.size) {
		b.entries = b.entries[:max(1, b.size)]
	}
}

// snapshot returns a deep copy for use outside the search lock.
func (b *leaderboard) snapshot() []topCandidate {
	out := make([]topCandidate, len(b.entries))
	for i, e := range b.entries {
		out[i] = e
		out[i].Knobs = maps.Clone(e.Knobs)
	}
	return out
}
