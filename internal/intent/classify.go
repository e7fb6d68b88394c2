package intent

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Options configures a Classifier.
type Options struct {
	Train TrainOptions
	// CacheTTL bounds how long a prediction is reused for the same text. Zero disables caching.
	CacheTTL time.Duration
}

// Classifier assigns one of its trained categories to free text.
type Classifier struct {
	labels     []Category
	vectorizer *vectorizer
	model      *softmaxModel
	cache      *cache.Cache
	logger     *slog.Logger
}

type prediction struct {
	category   Category
	confidence float64
}

// New trains a classifier on examples. The label set is exactly the
// categories that occur in examples.
func New(examples []Example, opts Options, logger *slog.Logger) (*Classifier, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: no training examples", ErrClassificationFailed)
	}
	if opts.Train.Iterations == 0 {
		opts.Train = DefaultTrainOptions()
	}

	present := make(map[Category]bool)
	for _, ex := range examples {
		if !ex.Category.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, ex.Category)
		}
		present[ex.Category] = true
	}
	var labels []Category
	index := make(map[Category]int)
	for _, c := range categories {
		if present[c] {
			index[c] = len(labels)
			labels = append(labels, c)
		}
	}

	docs := make([]string, len(examples))
	for i, ex := range examples {
		docs[i] = strings.ToLower(ex.Phrase)
	}
	vec := fitVectorizer(docs)

	xs := make([]sparseVec, len(examples))
	ys := make([]int, len(examples))
	for i, ex := range examples {
		xs[i] = vec.transform(docs[i])
		ys[i] = index[ex.Category]
	}

	start := time.Now()
	model := trainSoftmax(xs, ys, len(labels), vec.dim(), opts.Train)
	logger.Debug("classifier trained",
		"examples", len(examples), "labels", len(labels), "features", vec.dim(),
		"elapsed", time.Since(start))

	c := &Classifier{
		labels:     labels,
		vectorizer: vec,
		model:      model,
		logger:     logger,
	}
	if opts.CacheTTL > 0 {
		c.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return c, nil
}

// Labels returns the categories this classifier can emit.
func (c *Classifier) Labels() []Category {
	return append([]Category(nil), c.labels...)
}

// Classify predicts the category of text. Confidence is the winning class probability.
func (c *Classifier) Classify(text string) (*Result, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, ErrEmptyCommand)
	}

	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			p := v.(prediction)
			return &Result{Input: text, Category: p.category, Confidence: p.confidence}, nil
		}
	}

	probs := c.model.probabilities(c.vectorizer.transform(key))
	best := 0
	for k, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: non-finite probability for %q", ErrClassificationFailed, text)
		}
		if p > probs[best] {
			best = k
		}
	}

	p := prediction{category: c.labels[best], confidence: probs[best]}
	if c.cache != nil {
		c.cache.SetDefault(key, p)
	}
	return &Result{Input: text, Category: p.category, Confidence: p.confidence}, nil
}
