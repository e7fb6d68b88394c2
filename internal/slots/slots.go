// Package slots extracts the named values a command needs from its raw text.
package slots

import (
	"maps"
	"strconv"
)

// Slot names. Every Map carries all of them.
const (
	AppName           = "app_name"
	SearchQuery       = "search_query"
	TextContent       = "text_content"
	ActionTarget      = "action_target"
	KeyboardShortcut  = "keyboard_shortcut"
	SystemAction      = "system_action"
	WindowAction      = "window_action"
	ProfileName       = "profile_name"
	Website           = "website"
	MediaQuery        = "media_query"
	Recipient         = "recipient"
	MessageContent    = "message_content"
	ActionContent     = "action_content"
	IsFileOperation   = "is_file_operation"
	FilePath          = "file_path"
	TargetType        = "target_type"
	IsKnownFolder     = "is_known_folder"
	NeedsSearch       = "needs_search"
	SearchTarget      = "search_target"
	HasMessageContent = "has_message_content"
)

// Keys lists every slot name in display order.
var Keys = []string{
	AppName, SearchQuery, TextContent, ActionTarget, KeyboardShortcut,
	SystemAction, WindowAction, ProfileName, Website, MediaQuery,
	Recipient, MessageContent, ActionContent, IsFileOperation, FilePath,
	TargetType, IsKnownFolder, NeedsSearch, SearchTarget, HasMessageContent,
}

var flagKeys = map[string]bool{
	IsFileOperation:   true,
	IsKnownFolder:     true,
	NeedsSearch:       true,
	HasMessageContent: true,
}

// IsFlag reports whether key holds a bool rather than a string.
func IsFlag(key string) bool { return flagKeys[key] }

// Map holds one value per slot: a string, a bool for flag slots, or nil.
type Map map[string]any

// New returns a map with every string slot nil and every flag false.
func New() Map {
	m := make(Map, len(Keys))
	for _, k := range Keys {
		if flagKeys[k] {
			m[k] = false
		} else {
			m[k] = nil
		}
	}
	return m
}

// String returns the slot rendered as text: "" for nil or false, "true" for a set flag.
func (m Map) String(key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case bool:
		if v {
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// Present reports whether the slot holds a non-empty string or a true flag.
func (m Map) Present(key string) bool {
	switch v := m[key].(type) {
	case string:
		return v != ""
	case bool:
		return v
	}
	return false
}

// Flag returns the bool value of a flag slot.
func (m Map) Flag(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// SetMessage records message text captured after extraction.
func (m Map) SetMessage(text string) {
	if text == "" {
		m[MessageContent] = nil
	} else {
		m[MessageContent] = text
	}
	m[HasMessageContent] = text != ""
}

// Clone returns an independent copy.
func (m Map) Clone() Map {
	return maps.Clone(m)
}

func (m Map) setString(key, value string) {
	if value == "" {
		m[key] = nil
		return
	}
	m[key] = value
}
