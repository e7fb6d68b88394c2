// Package resolver grounds a textual UI target to a screen coordinate using
// detected elements, a vision-language model and a fuzzy fallback.
package resolver

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/shahar-caura/deskpilot/internal/provider"
)

// DefaultMaxCandidates bounds how many elements are listed in the prompt.
const DefaultMaxCandidates = 50

// Fallback scoring weights and acceptance threshold.
const (
	similarityWeight = 0.7
	confidenceWeight = 0.3
	containmentFloor = 0.9
	minScore         = 0.5
)

// Point is a screen coordinate.
type Point struct {
	X, Y int
}

// Request describes one grounding attempt.
type Request struct {
	Elements []provider.Element
	Target   string
	Action   string // human-readable step description
	Profile  string // optional; prioritized over Target
}

// Resolver picks an element for a target. Model may be nil, in which case
// only the fuzzy fallback runs.
type Resolver struct {
	Model         provider.Model
	MaxCandidates int
	Logger        *slog.Logger
}

// New creates a resolver. maxCandidates <= 0 means DefaultMaxCandidates.
func New(model provider.Model, maxCandidates int, logger *slog.Logger) *Resolver {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Resolver{Model: model, MaxCandidates: maxCandidates, Logger: logger}
}

// Resolve returns the chosen element's coordinate, or false for no match.
// Model errors and unusable model output fall through to Fallback.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Point, bool) {
	if len(req.Elements) == 0 {
		return Point{}, false
	}

	if r.Model != nil {
		candidates := r.candidates(req.Elements)
		resp, err := r.Model.Generate(ctx, buildPrompt(req, candidates))
		if err != nil {
			r.Logger.Warn("model selection failed, using fuzzy match", "err", err)
		} else if id, ok := parseSelection(resp); ok {
			if e, found := findElement(req.Elements, id); found {
				r.Logger.Info("model selected element", "id", e.ID, "label", e.Label, "x", e.X, "y", e.Y)
				return Point{e.X, e.Y}, true
			}
			r.Logger.Warn("model selected unknown element, using fuzzy match", "id", id)
		} else {
			r.Logger.Debug("model gave no usable selection, using fuzzy match", "response", resp)
		}
	}

	e, score, ok := Fallback(req.Elements, req.Target, req.Profile)
	if !ok {
		r.Logger.Warn("no element matched", "target", req.Target, "profile", req.Profile)
		return Point{}, false
	}
	r.Logger.Info("fuzzy matched element", "id", e.ID, "label", e.Label, "score", fmt.Sprintf("%.2f", score))
	return Point{e.X, e.Y}, true
}

// candidates returns the top elements by confidence, keeping detection order
// among equals.
func (r *Resolver) candidates(elements []provider.Element) []provider.Element {
	sorted := slices.Clone(elements)
	slices.SortStableFunc(sorted, func(a, b provider.Element) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	if len(sorted) > r.MaxCandidates {
		sorted = sorted[:r.MaxCandidates]
	}
	return sorted
}

func findElement(elements []provider.Element, id int) (provider.Element, bool) {
	for _, e := range elements {
		if e.ID == id {
			return e, true
		}
	}
	return provider.Element{}, false
}

// Fallback scores every element against the profile hint and the target and
// returns the best one whose score exceeds 0.5.
func Fallback(elements []provider.Element, target, profile string) (provider.Element, float64, bool) {
	var terms []string
	for _, t := range []string{profile, target} {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return provider.Element{}, 0, false
	}

	var best provider.Element
	bestScore := 0.0
	for _, e := range elements {
		label := strings.ToLower(strings.TrimSpace(e.Label))
		for _, term := range terms {
			score := similarityWeight*Similarity(label, term) + confidenceWeight*e.Confidence
			if score > bestScore {
				best, bestScore = e, score
			}
		}
	}

	if bestScore <= minScore {
		return provider.Element{}, bestScore, false
	}
	return best, bestScore, true
}

// Similarity is the normalized edit-distance ratio of a and b in [0,1],
// raised to 0.9 when either contains the other.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	ratio := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		ratio = max(ratio, containmentFloor)
	}
	return ratio
}
