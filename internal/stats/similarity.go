package stats

import (
	"math"
	"sort"
	"strings"

	"strand/loom/internal/ir"
)

// NearDuplicate is a pair of nodes whose content reads almost the same.
// Content hashing only collapses exact triples, so near-misses like
// "the cache is stale" vs "cache is stale" survive as separate nodes.
type NearDuplicate struct {
	AID        string  `json:"a_id"`
	BID        string  `json:"b_id"`
	AContent   string  `json:"a_content"`
	BContent   string  `json:"b_content"`
	Similarity float64 `json:"similarity"`
}

// trigramProfile counts character trigrams of the lowercased content with
// word boundaries padded.
func trigramProfile(content string) map[string]int {
	t := strings.ToLower(strings.Join(strings.Fields(content), " "))
	if t == "" {
		return nil
	}
	t = "  " + t + "  "
	profile := make(map[string]int)
	runes := []rune(t)
	for i := 0; i+3 <= len(runes); i++ {
		profile[string(runes[i:i+3])]++
	}
	return profile
}

// trigramCosine computes cosine similarity between two trigram profiles.
// Returns 0 for empty profiles.
func trigramCosine(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for g, ca := range a {
		normA += float64(ca * ca)
		if cb, ok := b[g]; ok {
			dot += float64(ca * cb)
		}
	}
	for _, cb := range b {
		normB += float64(cb * cb)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// findNearDuplicates returns node pairs whose content similarity meets
// minSim, best matches first, capped at topN. Empty-content nodes (blocks)
// are skipped.
func findNearDuplicates(doc *ir.Document, minSim float64, topN int) []NearDuplicate {
	type candidate struct {
		node    *ir.Node
		profile map[string]int
	}
	var cands []candidate
	for _, n := range doc.Nodes {
		p := trigramProfile(n.Content)
		if p == nil {
			continue
		}
		cands = append(cands, candidate{node: n, profile: p})
	}

	var dups []NearDuplicate
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			sim := trigramCosine(cands[i].profile, cands[j].profile)
			if sim < minSim {
				continue
			}
			dups = append(dups, NearDuplicate{
				AID:        cands[i].node.ID,
				BID:        cands[j].node.ID,
				AContent:   cands[i].node.Content,
				BContent:   cands[j].node.Content,
				Similarity: sim,
			})
		}
	}

	sort.Slice(dups, func(i, j int) bool {
		if dups[i].Similarity != dups[j].Similarity {
			return dups[i].Similarity > dups[j].Similarity
		}
		return dups[i].AID < dups[j].AID
	})
	if len(dups) > topN {
		dups = dups[:topN]
	}
	return dups
}
