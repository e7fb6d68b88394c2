package plan

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/shahar-caura/deskpilot/internal/slots"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// conditions maps each guard name to the slot that must be present for it to hold.
var conditions = map[string]string{
	"search_query_exists": slots.SearchQuery,
	"has_search_query":    slots.ActionContent,
	"has_message_content": slots.MessageContent,
}

// ErrInvalidTemplate indicates a template file that cannot be loaded.
var ErrInvalidTemplate = errors.New("invalid template")

// Library holds the templates plans are synthesized from. It is safe for
// concurrent use and is swapped wholesale on reload.
type Library struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewLibrary wraps an explicit template set.
func NewLibrary(templates map[string]Template) *Library {
	return &Library{templates: templates}
}

// Default returns the built-in library.
func Default() *Library {
	t, err := Parse(defaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("plan: embedded templates: %v", err))
	}
	return &Library{templates: t}
}

// Load returns the built-in library with the templates in path layered on top.
// Keys defined in the file replace built-in keys of the same name.
func Load(path string) (*Library, error) {
	l := Default()
	if err := l.Reload(path); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads path and replaces the overridden templates. On error the
// library is left unchanged.
func (l *Library) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading templates: %w", err)
	}
	overrides, err := Parse(data)
	if err != nil {
		return err
	}

	merged, err := Parse(defaultTemplates)
	if err != nil {
		return err
	}
	for k, t := range overrides {
		merged[k] = t
	}

	l.mu.Lock()
	l.templates = merged
	l.mu.Unlock()
	return nil
}

// Lookup returns the template registered under key.
func (l *Library) Lookup(key string) (Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[key]
	return t, ok
}

// Keys returns the registered template keys, sorted.
func (l *Library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.templates))
	for k := range l.templates {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type stepSpec struct {
	Include     string         `yaml:"include"`
	Action      ActionType     `yaml:"action"`
	Params      map[string]any `yaml:"params"`
	Description string         `yaml:"description"`
}

type guardSpec struct {
	When  string     `yaml:"when"`
	Steps []stepSpec `yaml:"steps"`
}

type templateSpec struct {
	Steps   []stepSpec  `yaml:"steps"`
	Guarded []guardSpec `yaml:"guarded"`
}

type fileSpec struct {
	Fragments map[string][]stepSpec  `yaml:"fragments"`
	Templates map[string]templateSpec `yaml:"templates"`
}

// Parse decodes a template document. Fragments are inlined where a step
// says include; guards must name a known condition.
func Parse(data []byte) (map[string]Template, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	var errs []error
	out := make(map[string]Template, len(spec.Templates))
	for key, ts := range spec.Templates {
		if key == "" {
			errs = append(errs, fmt.Errorf("%w: empty template key", ErrInvalidTemplate))
			continue
		}
		var t Template
		var err error
		if t.Steps, err = resolveSteps(ts.Steps, spec.Fragments); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidTemplate, key, err))
			continue
		}
		for i, gs := range ts.Guarded {
			if _, ok := conditions[gs.When]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s: guard %d: unknown condition %q", ErrInvalidTemplate, key, i, gs.When))
				continue
			}
			steps, err := resolveSteps(gs.Steps, spec.Fragments)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s: guard %d: %w", ErrInvalidTemplate, key, i, err))
				continue
			}
			t.Guarded = append(t.Guarded, Guard{Condition: gs.When, Steps: steps})
		}
		out[key] = t
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func resolveSteps(specs []stepSpec, fragments map[string][]stepSpec) ([]Step, error) {
	var steps []Step
	for i, s := range specs {
		if s.Include != "" {
			frag, ok := fragments[s.Include]
			if !ok {
				return nil, fmt.Errorf("step %d: unknown fragment %q", i, s.Include)
			}
			for _, f := range frag {
				if f.Include != "" {
					return nil, fmt.Errorf("fragment %q: nested include %q", s.Include, f.Include)
				}
			}
			inlined, err := resolveSteps(frag, nil)
			if err != nil {
				return nil, fmt.Errorf("fragment %q: %w", s.Include, err)
			}
			steps = append(steps, inlined...)
			continue
		}

		if !s.Action.Valid() {
			return nil, fmt.Errorf("step %d: unknown action %q", i, s.Action)
		}
		if s.Action == Conditional {
			return nil, fmt.Errorf("step %d: conditions belong in a guarded block", i)
		}
		params, err := normalizeParams(s.Params)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, Step{Action: s.Action, Params: params, Description: s.Description})
	}
	return steps, nil
}

// normalizeParams keeps parameter values to strings and float64.
func normalizeParams(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch v := v.(type) {
		case string:
			out[k] = v
		case int:
			out[k] = float64(v)
		case float64:
			out[k] = v
		default:
			return nil, fmt.Errorf("param %q: unsupported value %v (%T)", k, v, v)
		}
	}
	return out, nil
}
