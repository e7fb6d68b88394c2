package slots

import (
	"testing"

	"github.com/shahar-caura/deskpilot/internal/intent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFullKeySet(t *testing.T, m Map) {
	t.Helper()
	require.Len(t, m, len(Keys))
	for _, k := range Keys {
		v, ok := m[k]
		require.True(t, ok, "missing key %s", k)
		if IsFlag(k) {
			_, isBool := v.(bool)
			assert.True(t, isBool, "flag %s holds %T", k, v)
			continue
		}
		if v != nil {
			_, isString := v.(string)
			assert.True(t, isString, "slot %s holds %T", k, v)
		}
	}
}

func TestExtract_EveryCategoryCovered(t *testing.T) {
	for _, c := range intent.Categories() {
		assert.True(t, Covers(c), "no rules for %s", c)
	}
}

func TestExtract_FullKeySetForAnyInput(t *testing.T) {
	inputs := []string{"", "   ", "open chrome", "send to", "to", "and", "play", "profile", "click", "x y z"}
	categories := append(intent.Categories(), "UNKNOWN")
	for _, c := range categories {
		for _, in := range inputs {
			assertFullKeySet(t, Extract(in, c))
		}
	}
}

func TestExtract_OpenApp(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"open chrome", "chrome"},
		{"Open Google Chrome", "google chrome"},
		{"launch the spotify app", "the spotify"},
		{"open app", nil},
		{"run app start", "start"},
		{"start", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.input, intent.OpenApp)[AppName])
		})
	}
}

func TestExtract_CloseApp(t *testing.T) {
	assert.Equal(t, "chrome", Extract("close chrome", intent.CloseApp)[AppName])
	assert.Equal(t, "current", Extract("close app", intent.CloseApp)[AppName])
	assert.Equal(t, "this", Extract("close this", intent.CloseApp)[AppName])
	assert.Equal(t, "current", Extract("quit", intent.CloseApp)[AppName])
}

func TestExtract_OpenFolder(t *testing.T) {
	m := Extract("open my downloads folder", intent.OpenFolder)
	assert.Equal(t, `%USERPROFILE%\Downloads`, m[FilePath])
	assert.Equal(t, true, m[IsKnownFolder])
	assert.Equal(t, true, m[IsFileOperation])
	assert.Equal(t, "folder", m[TargetType])
	assert.Nil(t, m[SearchTarget])

	m = Extract("open the project folder", intent.OpenFolder)
	assert.Nil(t, m[FilePath])
	assert.Equal(t, "project", m[SearchTarget])
	assert.Equal(t, true, m[NeedsSearch])
	assert.Equal(t, "folder", m[TargetType])

	m = Extract("open folder", intent.OpenFolder)
	assert.Equal(t, false, m[IsFileOperation])
	assert.Nil(t, m[SearchTarget])
}

func TestExtract_SearchFile(t *testing.T) {
	m := Extract("find the budget report", intent.SearchFile)
	assert.Equal(t, "budget report", m[SearchTarget])
	assert.Equal(t, "file", m[TargetType])
	assert.Equal(t, true, m[NeedsSearch])

	m = Extract("search documents", intent.SearchFile)
	assert.Equal(t, `%USERPROFILE%\Documents`, m[SearchTarget])
	assert.Equal(t, true, m[IsKnownFolder])
}

func TestExtract_WebSearch(t *testing.T) {
	tests := []struct {
		input   string
		profile string
		website any
		query   any
	}{
		{"go to facebook", "Default", "facebook.com", nil},
		{"search for python tutorials", "Default", nil, "python tutorials"},
		{"open youtube with profile work search golang", "work", "youtube.com", nil},
		{"with chrome profile dev open github", "dev", "github.com", nil},
		{"search cats on youtube", "Default", "youtube.com", "cats"},
		{"open gmail", "Default", "mail.google.com", nil},
		{"google best pizza", "Default", "google.com", "best pizza"},
		{"with profile josé search golang on youtube", "josé", "youtube.com", nil},
		{"chrome profile zoë2 open reddit", "zoë2", "reddit.com", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := Extract(tt.input, intent.WebSearch)
			assert.Equal(t, tt.profile, m[ProfileName])
			assert.Equal(t, tt.website, m[Website])
			assert.Equal(t, tt.query, m[SearchQuery])
		})
	}
}

func TestExtract_TypeText(t *testing.T) {
	assert.Equal(t, "Hello World", Extract("type Hello World", intent.TypeText)[TextContent])
	assert.Equal(t, "Dear Sam", Extract("Write message Dear Sam", intent.TypeText)[TextContent])
	assert.Nil(t, Extract("type text", intent.TypeText)[TextContent])
}

func TestExtract_ClickFamily(t *testing.T) {
	for _, c := range []intent.Category{intent.MouseClick, intent.MouseRightClick, intent.MouseDoubleClick} {
		assert.Equal(t, "Submit", Extract("click on Submit", c)[ActionTarget])
		assert.Equal(t, "current", Extract("click here", c)[ActionTarget])
	}
	assert.Equal(t, "Recycle Bin", Extract("double click Recycle Bin", intent.MouseDoubleClick)[ActionTarget])
	assert.Equal(t, "the file", Extract("right click on the file", intent.MouseRightClick)[ActionTarget])
}

func TestExtract_FlagScans(t *testing.T) {
	assert.Equal(t, "maximize", Extract("make it fullscreen", intent.WindowAction)[WindowAction])
	assert.Equal(t, "maximize", Extract("maximize window", intent.WindowAction)[WindowAction])
	assert.Equal(t, "minimize", Extract("minimize window", intent.WindowAction)[WindowAction])

	assert.Equal(t, "screenshot", Extract("take a screenshot", intent.System)[SystemAction])
	assert.Equal(t, "screenshot", Extract("capture the screen", intent.System)[SystemAction])
	assert.Equal(t, "lock", Extract("lock screen", intent.System)[SystemAction])
}

func TestExtract_Keyboard(t *testing.T) {
	assert.Equal(t, "ctrl+c", Extract("copy that", intent.Keyboard)[KeyboardShortcut])
	assert.Equal(t, "ctrl+v", Extract("paste", intent.Keyboard)[KeyboardShortcut])
	assert.Equal(t, "ctrl+c", Extract("copy and paste", intent.Keyboard)[KeyboardShortcut])
	assert.Nil(t, Extract("press escape", intent.Keyboard)[KeyboardShortcut])
}

func TestExtract_AppWithAction(t *testing.T) {
	m := Extract("open Spotify and play Bohemian Rhapsody", intent.AppWithAction)
	assert.Equal(t, "Spotify", m[AppName])
	assert.Equal(t, "Bohemian Rhapsody", m[ActionContent])

	m = Extract("launch notepad and type", intent.AppWithAction)
	assert.Equal(t, "notepad", m[AppName])
	assert.Nil(t, m[ActionContent])

	m = Extract("open android studio", intent.AppWithAction)
	assert.Nil(t, m[AppName])
	assert.Nil(t, m[ActionContent])
}

func TestExtract_MediaControl(t *testing.T) {
	m := Extract("play Despacito on youtube", intent.MediaControl)
	assert.Equal(t, "youtube", m[AppName])
	assert.Equal(t, "Despacito on youtube", m[MediaQuery])

	m = Extract("stream lofi beats", intent.MediaControl)
	assert.Equal(t, "spotify", m[AppName])
	assert.Equal(t, "lofi beats", m[MediaQuery])

	m = Extract("open netflix", intent.MediaControl)
	assert.Equal(t, "netflix", m[AppName])
	assert.Nil(t, m[MediaQuery])
}

func TestExtract_SendMessage(t *testing.T) {
	tests := []struct {
		input     string
		app       string
		recipient any
		message   any
	}{
		{"send hello there to mom", "whatsapp", "mom", "hello there"},
		{"email to John saying I am late", "outlook", "John", "I am late"},
		{"whatsapp to dad dinner is ready", "whatsapp", "dad", "dinner is ready"},
		{"send a telegram to Alex", "telegram", "Alex", "a telegram"},
		{"message to mom", "whatsapp", "mom", nil},
		{"whatsapp mom", "whatsapp", nil, nil},
		{"whatsapp to Zoë hello there", "whatsapp", "Zoë", "hello there"},
		{"telegram to Łukasz see you at 5", "telegram", "Łukasz", "see you at 5"},
		{"send llegaré tarde to José", "whatsapp", "José", "llegaré tarde"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := Extract(tt.input, intent.SendMessage)
			assert.Equal(t, tt.app, m[AppName])
			assert.Equal(t, tt.recipient, m[Recipient])
			assert.Equal(t, tt.message, m[MessageContent])
			assert.Equal(t, tt.message != nil, m[HasMessageContent])
		})
	}
}

func TestExtract_OpenFileExplorerHasNoSlots(t *testing.T) {
	m := Extract("open file explorer", intent.OpenFileExplorer)
	assert.Equal(t, New(), m)
}

func TestMap_Helpers(t *testing.T) {
	m := New()
	assert.Equal(t, "", m.String(AppName))
	assert.False(t, m.Present(AppName))
	assert.Equal(t, "", m.String(NeedsSearch))

	m[AppName] = "chrome"
	m[NeedsSearch] = true
	assert.Equal(t, "chrome", m.String(AppName))
	assert.Equal(t, "true", m.String(NeedsSearch))
	assert.True(t, m.Present(NeedsSearch))
	assert.True(t, m.Flag(NeedsSearch))

	c := m.Clone()
	c.SetMessage("hi")
	assert.Nil(t, m[MessageContent])
	assert.Equal(t, "hi", c[MessageContent])
	assert.Equal(t, true, c[HasMessageContent])

	c.SetMessage("")
	assert.Nil(t, c[MessageContent])
	assert.Equal(t, false, c[HasMessageContent])
}
