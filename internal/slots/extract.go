package slots

import (
	"strings"

	"github.com/shahar-caura/deskpilot/internal/intent"
)

// command is one raw input split the ways the rules need it.
type command struct {
	raw      string
	lower    string
	words    []string // lowercase tokens
	rawWords []string // original-case tokens, aligned with words
}

func newCommand(raw string) command {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return command{
		raw:      raw,
		lower:    lower,
		words:    strings.Fields(lower),
		rawWords: strings.Fields(raw),
	}
}

// index returns the position of the first token equal to word, or -1.
func (c command) index(word string) int {
	for i, w := range c.words {
		if w == word {
			return i
		}
	}
	return -1
}

type extractor func(c command, m Map)

// extractors holds the rule chain for every category. Categories that need
// no slots map to noop so coverage stays checkable.
var extractors = map[intent.Category]extractor{
	intent.OpenApp:          extractOpenApp,
	intent.CloseApp:         extractCloseApp,
	intent.OpenFileExplorer: noop,
	intent.SearchFile:       extractSearchFile,
	intent.OpenFolder:       extractOpenFolder,
	intent.TypeText:         extractTypeText,
	intent.MouseClick:       extractClickTarget,
	intent.MouseRightClick:  extractClickTarget,
	intent.MouseDoubleClick: extractClickTarget,
	intent.WindowAction:     extractWindowAction,
	intent.System:           extractSystem,
	intent.Keyboard:         extractKeyboard,
	intent.AppWithAction:    extractAppWithAction,
	intent.MediaControl:     extractMediaControl,
	intent.SendMessage:      extractSendMessage,
	intent.WebSearch:        extractWebSearch,
}

// Extract derives the slot map for raw text of the given category. It never
// fails: slots the rules cannot fill stay nil.
func Extract(raw string, category intent.Category) Map {
	m := New()
	if fn, ok := extractors[category]; ok {
		fn(newCommand(raw), m)
	}
	return m
}

// Covers reports whether category has a registered rule chain.
func Covers(category intent.Category) bool {
	_, ok := extractors[category]
	return ok
}

func noop(command, Map) {}
