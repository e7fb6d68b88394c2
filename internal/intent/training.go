package intent

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed training.yaml
var defaultTraining []byte

// Example is one labelled training phrase.
type Example struct {
	Phrase   string
	Category Category
}

type trainingGroup struct {
	Category Category `yaml:"category"`
	Phrases  []string `yaml:"phrases"`
}

// DefaultExamples returns the built-in training set.
func DefaultExamples() []Example {
	examples, err := parseExamples(defaultTraining)
	if err != nil {
		panic(fmt.Sprintf("intent: embedded training set: %v", err))
	}
	return examples
}

// LoadExamples reads a training set file in the same shape as the built-in one.
func LoadExamples(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading training set: %w", err)
	}
	return parseExamples(data)
}

func parseExamples(data []byte) ([]Example, error) {
	var groups []trainingGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parsing training set: %w", err)
	}

	var examples []Example
	for _, g := range groups {
		if !g.Category.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, g.Category)
		}
		for _, p := range g.Phrases {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			examples = append(examples, Example{Phrase: p, Category: g.Category})
		}
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("training set has no phrases")
	}
	return examples, nil
}
