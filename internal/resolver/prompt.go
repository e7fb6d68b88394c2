package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shahar-caura/deskpilot/internal/provider"
)

func buildPrompt(req Request, candidates []provider.Element) string {
	action := req.Action
	if action == "" {
		action = req.Target
	}

	var b strings.Builder
	b.WriteString("You pick the single UI element to click for a desktop automation step.\n\n")
	fmt.Fprintf(&b, "ACTION: %s\n", action)
	if req.Target != "" && req.Target != action {
		fmt.Fprintf(&b, "TARGET: %q\n", req.Target)
	}
	if req.Profile != "" {
		fmt.Fprintf(&b, "PROFILE_NAME: %q (PRIORITIZE THIS)\n", req.Profile)
	}

	b.WriteString("\nDetected elements:\n")
	for _, e := range candidates {
		fmt.Fprintf(&b, "%d: %q at (%d, %d) [type: %s, conf: %.2f]\n", e.ID, e.Label, e.X, e.Y, e.Type, e.Confidence)
	}

	b.WriteString(`
Rules:
1. If PROFILE_NAME is given, choose the element whose label matches it.
2. Prefer an exact label match, then a close one.
3. Prefer clickable types (buttons, icons, links) over plain text.
4. Ignore window chrome such as title bars and scroll bars.
5. Break ties by higher confidence.
6. If nothing fits, answer with id -1.

Reply with JSON only: {"id": <element id>, "reason": "<short reason>"}
`)
	return b.String()
}

// parseSelection extracts the element id from a model response. It returns
// false for unparseable output and for the -1 sentinel.
func parseSelection(resp string) (int, bool) {
	obj := firstObject(stripCodeFences(resp))
	if obj == "" {
		return 0, false
	}

	var sel struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal([]byte(obj), &sel); err != nil || len(sel.ID) == 0 {
		return 0, false
	}

	raw := strings.Trim(string(sel.ID), `"`)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// stripCodeFences removes markdown code fences wrapping JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// firstObject returns the first brace-balanced {...} in s, or "".
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// Summarize asks the model for a one or two line description of a screenshot.
func (r *Resolver) Summarize(ctx context.Context, screenshot []byte) (string, error) {
	if r.Model == nil {
		return "", fmt.Errorf("resolver: no model configured")
	}
	out, err := r.Model.Generate(ctx,
		"Describe what is on this screen in one or two short lines: the active application and anything the user can act on next.",
		screenshot)
	if err != nil {
		return "", fmt.Errorf("resolver: summarizing screen: %w", err)
	}
	return strings.TrimSpace(out), nil
}
