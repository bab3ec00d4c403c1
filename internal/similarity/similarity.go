// Package similarity scores embeddings against each other with cosine
// similarity.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrDimensionMismatch = errors.New("vectors have different dimensions")

// Cosine returns the cosine similarity of a and b. Zero vectors score 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d and %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Normalize returns v scaled to unit length. A zero vector is returned
// unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Matrix scores every query against every passage; rows are queries.
func Matrix(queries, passages [][]float32) ([][]float64, error) {
	scores := make([][]float64, len(queries))
	for i, q := range queries {
		row := make([]float64, len(passages))
		for j, p := range passages {
			s, err := Cosine(q, p)
			if err != nil {
				return nil, fmt.Errorf("query %d, passage %d: %w", i, j, err)
			}
			row[j] = s
		}
		scores[i] = row
	}
	return scores, nil
}

type Match struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// TopK returns the k corpus entries closest to query, best first. Ties keep
// corpus order.
func TopK(query []float32, corpus [][]float32, k int) ([]Match, error) {
	matches := make([]Match, 0, len(corpus))
	for i, c := range corpus {
		s, err := Cosine(query, c)
		if err != nil {
			return nil, fmt.Errorf("corpus %d: %w", i, err)
		}
		matches = append(matches, Match{Index: i, Score: s})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k >= 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}
