// Package cmdline renders command-line templates such as
// "xdotool key {{xdokey .Key}}" into an argv.
//
// A template is split into fields on whitespace that lies outside {{ }}
// actions, then each field is rendered on its own with text/template. A field
// such as {{.Text}} therefore stays a single argument even when the text
// contains spaces, and actions may contain spaces themselves.
package cmdline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Funcs are available to every command template.
var Funcs = template.FuncMap{"xdokey": XdoKey}

// Template is a parsed command line.
type Template struct {
	fields []*template.Template
}

// Parse splits s into fields and parses each one.
func Parse(s string) (*Template, error) {
	fields, err := Split(s)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}

	t := &Template{fields: make([]*template.Template, 0, len(fields))}
	for i, field := range fields {
		tmpl, err := template.New(fmt.Sprintf("arg%d", i)).Funcs(Funcs).Parse(field)
		if err != nil {
			return nil, fmt.Errorf("parsing template: %w", err)
		}
		t.fields = append(t.fields, tmpl)
	}
	return t, nil
}

// Execute renders every field against data.
func (t *Template) Execute(data any) ([]string, error) {
	args := make([]string, 0, len(t.fields))
	for _, tmpl := range t.fields {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template: %w", err)
		}
		args = append(args, buf.String())
	}
	if args[0] == "" {
		return nil, errors.New("template produced empty command")
	}
	return args, nil
}

// Render parses s and executes it against data.
func Render(s string, data any) ([]string, error) {
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return t.Execute(data)
}

// Split breaks s into fields on whitespace outside {{ }} actions. Quoted
// strings inside an action may contain "}}".
func Split(s string) ([]string, error) {
	var (
		fields []string
		cur    strings.Builder
		open   bool
	)
	flush := func() {
		if open {
			fields = append(fields, cur.String())
			cur.Reset()
			open = false
		}
	}

	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			end, err := actionEnd(s, i)
			if err != nil {
				return nil, err
			}
			cur.WriteString(s[i:end])
			open = true
			i = end
		case isSpace(s[i]):
			flush()
			i++
		default:
			cur.WriteByte(s[i])
			open = true
			i++
		}
	}
	flush()
	return fields, nil
}

// actionEnd returns the offset just past the "}}" closing the action that
// starts at start.
func actionEnd(s string, start int) (int, error) {
	for i := start + 2; i < len(s); i++ {
		switch s[i] {
		case '"':
			i++
			for i < len(s) && s[i] != '"' {
				if s[i] == '\\' {
					i++
				}
				i++
			}
		case '`':
			j := strings.IndexByte(s[i+1:], '`')
			if j < 0 {
				i = len(s)
				continue
			}
			i += j + 1
		case '}':
			if strings.HasPrefix(s[i:], "}}") {
				return i + 2, nil
			}
		}
	}
	return 0, fmt.Errorf("unclosed action at offset %d", start)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

var xdoNames = map[string]string{
	"win":       "super",
	"enter":     "Return",
	"tab":       "Tab",
	"esc":       "Escape",
	"escape":    "Escape",
	"space":     "space",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"/":         "slash",
}

// XdoKey converts a chord such as "win+e" or "alt+f4" to xdotool key syntax.
func XdoKey(chord string) string {
	parts := strings.Split(chord, "+")
	for i, p := range parts {
		lower := strings.ToLower(p)
		if name, ok := xdoNames[lower]; ok {
			parts[i] = name
			continue
		}
		if len(lower) >= 2 && lower[0] == 'f' && strings.Trim(lower[1:], "0123456789") == "" {
			parts[i] = "F" + lower[1:]
		}
	}
	return strings.Join(parts, "+")
}
