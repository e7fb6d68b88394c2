package plan

import (
	"maps"
	"regexp"
	"slices"

	"github.com/shahar-caura/deskpilot/internal/slots"
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// Synthesize expands the template registered under key against m. An
// unknown key yields a single EXECUTE step rather than an error.
func (l *Library) Synthesize(key string, m slots.Map) Plan {
	t, ok := l.Lookup(key)
	if !ok {
		return Plan{{Action: Execute, Params: map[string]any{}, Description: "Execute: " + key}}
	}
	return Expand(t, m)
}

// Expand emits the template prefix, then each guarded block whose
// condition holds, stopping at the first guard that does not.
func Expand(t Template, m slots.Map) Plan {
	out := make(Plan, 0, t.Len())
	for _, s := range t.Steps {
		out = append(out, substitute(s, m))
	}
	for _, g := range t.Guarded {
		if !Holds(g.Condition, m) {
			break
		}
		for _, s := range g.Steps {
			out = append(out, substitute(s, m))
		}
	}
	return out
}

// Holds evaluates a named guard condition. Names with no registered slot hold.
func Holds(condition string, m slots.Map) bool {
	key, ok := conditions[condition]
	if !ok {
		return true
	}
	return m.Present(key)
}

// Conditions returns the guard names templates may use.
func Conditions() []string {
	names := make([]string, 0, len(conditions))
	for name := range conditions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func substitute(s Step, m slots.Map) Step {
	params := maps.Clone(s.Params)
	if params == nil {
		params = map[string]any{}
	}
	for k, v := range params {
		if str, ok := v.(string); ok {
			params[k] = fill(str, m)
		}
	}
	return Step{Action: s.Action, Params: params, Description: fill(s.Description, m)}
}

// fill replaces every {name} token with the slot value, or nothing when the
// slot is unset or unknown.
func fill(s string, m slots.Map) string {
	return placeholder.ReplaceAllStringFunc(s, func(tok string) string {
		return m.String(tok[1 : len(tok)-1])
	})
}
