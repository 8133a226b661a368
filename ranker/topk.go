package ranker

import "sort"

// Scored is a node paired with its score.
type Scored struct {
	ID    string  `json:"id" yaml:"id"`
	Score float64 `json:"score" yaml:"score"`
}

// TopK returns the k best scored nodes in descending score order. Equal
// scores are ordered by id so the result is reproducible. A non-positive k
// yields an empty result.
func TopK(scores map[string]float64, k int) []Scored {
	if k <= 0 {
		return []Scored{}
	}
	all := make([]Scored, 0, len(scores))
	for id, score := range scores {
		all = append(all, Scored{ID: id, Score: score})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].ID < all[j].ID
	})
	if k < len(all) {
		all = all[:k:k]
	}
	return all
}
