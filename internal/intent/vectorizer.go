package intent

import (
	"math"
	"regexp"
	"slices"
	"strings"
)

// tokenPattern keeps runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// sparseVec is a row vector stored as parallel index/value slices sorted by index.
type sparseVec struct {
	idx []int
	val []float64
}

// vectorizer maps text to L2-normalized TF-IDF vectors over a fixed vocabulary.
type vectorizer struct {
	vocab map[string]int
	idf   []float64
}

// fitVectorizer builds the vocabulary and smoothed idf weights from docs.
// Vocabulary indices follow lexical term order so the feature space is stable.
func fitVectorizer(docs []string) *vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	slices.Sort(terms)

	n := float64(len(docs))
	v := &vectorizer{
		vocab: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	for i, t := range terms {
		v.vocab[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return v
}

func (v *vectorizer) dim() int { return len(v.idf) }

// transform vectorizes text. Out-of-vocabulary terms are ignored, so the
// result may be the zero vector.
func (v *vectorizer) transform(text string) sparseVec {
	counts := make(map[int]float64)
	for _, tok := range tokenize(text) {
		if i, ok := v.vocab[tok]; ok {
			counts[i]++
		}
	}

	out := sparseVec{idx: make([]int, 0, len(counts))}
	for i := range counts {
		out.idx = append(out.idx, i)
	}
	slices.Sort(out.idx)

	var norm float64
	out.val = make([]float64, len(out.idx))
	for j, i := range out.idx {
		w := counts[i] * v.idf[i]
		out.val[j] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for j := range out.val {
			out.val[j] /= norm
		}
	}
	return out
}
