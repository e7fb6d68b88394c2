package slots

import (
	"regexp"
	"slices"
	"strings"
)

var appFillers = []string{"app", "application", "program"}

// afterTrigger scans triggers in order and returns the words following the
// first trigger present, minus skip words. A trigger whose tail is empty
// yields to the next one.
func afterTrigger(words, rawWords []string, triggers, skip []string) string {
	for _, trigger := range triggers {
		idx := slices.Index(words, trigger)
		if idx == -1 {
			continue
		}
		var out []string
		for i := idx + 1; i < len(words); i++ {
			if !slices.Contains(skip, words[i]) {
				out = append(out, rawWords[i])
			}
		}
		if len(out) > 0 {
			return strings.Join(out, " ")
		}
	}
	return ""
}

func extractOpenApp(c command, m Map) {
	m.setString(AppName, afterTrigger(c.words, c.words, []string{"open", "launch", "start", "run"}, appFillers))
}

func extractCloseApp(c command, m Map) {
	app := afterTrigger(c.words, c.words, []string{"close", "exit", "quit"}, appFillers)
	if app == "" {
		app = "current"
	}
	m.setString(AppName, app)
}

type knownFolder struct {
	keyword string
	path    string
}

var knownFolders = []knownFolder{
	{"documents", `%USERPROFILE%\Documents`},
	{"downloads", `%USERPROFILE%\Downloads`},
	{"desktop", `%USERPROFILE%\Desktop`},
	{"pictures", `%USERPROFILE%\Pictures`},
	{"videos", `%USERPROFILE%\Videos`},
	{"music", `%USERPROFILE%\Music`},
}

var fileStopWords = []string{"open", "file", "folder", "document", "my", "the", "launch", "show", "browse", "to", "for", "find"}

type fileTarget struct {
	name  string
	kind  string
	known bool
}

func resolveFileTarget(c command) (fileTarget, bool) {
	for _, f := range knownFolders {
		if slices.Contains(c.words, f.keyword) {
			return fileTarget{name: f.path, kind: "folder", known: true}, true
		}
	}

	var rest []string
	for _, w := range c.words {
		if !slices.Contains(fileStopWords, w) {
			rest = append(rest, w)
		}
	}
	if len(rest) == 0 {
		return fileTarget{}, false
	}

	kind := "file"
	if slices.Contains(c.words, "folder") || slices.Contains(c.words, "directory") {
		kind = "folder"
	}
	return fileTarget{name: strings.Join(rest, " "), kind: kind}, true
}

func extractOpenFolder(c command, m Map) {
	t, ok := resolveFileTarget(c)
	if !ok {
		return
	}
	m[IsFileOperation] = true
	m.setString(TargetType, t.kind)
	if t.known {
		m.setString(FilePath, t.name)
		m[IsKnownFolder] = true
		return
	}
	m.setString(SearchTarget, t.name)
	m[NeedsSearch] = true
}

func extractSearchFile(c command, m Map) {
	t, ok := resolveFileTarget(c)
	if !ok {
		return
	}
	m[IsFileOperation] = true
	m.setString(TargetType, t.kind)
	m.setString(SearchTarget, t.name)
	m[IsKnownFolder] = t.known
	m[NeedsSearch] = true
}

var profilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)with chrome profile ([\p{L}\p{N}_\s]+?)(?:\s+(?:search|open|go|and))`),
	regexp.MustCompile(`(?i)chrome profile ([\p{L}\p{N}_\s]+?)(?:\s+(?:search|open|go|and))`),
	regexp.MustCompile(`(?i)with profile ([\p{L}\p{N}_\s]+?)(?:\s+(?:search|open|go|and))`),
	regexp.MustCompile(`(?i)use profile ([\p{L}\p{N}_\s]+?)(?:\s+(?:search|open|go|and))`),
	regexp.MustCompile(`(?i)profile ([\p{L}\p{N}_\s]+?)(?:\s+(?:search|open|go|and))`),
}

// DefaultProfile is used when a web command names no browser profile.
const DefaultProfile = "Default"

type site struct {
	keyword string
	domain  string
}

var websites = []site{
	{"youtube", "youtube.com"},
	{"google", "google.com"},
	{"gmail", "mail.google.com"},
	{"facebook", "facebook.com"},
	{"twitter", "twitter.com"},
	{"instagram", "instagram.com"},
	{"linkedin", "linkedin.com"},
	{"github", "github.com"},
	{"reddit", "reddit.com"},
	{"amazon", "amazon.com"},
	{"netflix", "netflix.com"},
	{"spotify", "open.spotify.com"},
}

var profilePhrases = []*regexp.Regexp{
	regexp.MustCompile(`with chrome profile [\p{L}\p{N}_\s]+`),
	regexp.MustCompile(`chrome profile [\p{L}\p{N}_\s]+`),
	regexp.MustCompile(`profile [\p{L}\p{N}_\s]+`),
}

var queryStopWords = []string{"with", "chrome", "search", "for", "open", "go", "to", "on", "in", "and", "youtube", "google", "gmail", "facebook", "profile"}

func extractWebSearch(c command, m Map) {
	profile := DefaultProfile
	for _, re := range profilePatterns {
		if match := re.FindStringSubmatch(c.lower); match != nil {
			profile = strings.TrimSpace(match[1])
			break
		}
	}
	m.setString(ProfileName, profile)

	for _, s := range websites {
		if strings.Contains(c.lower, s.keyword) {
			m.setString(Website, s.domain)
			break
		}
	}

	rest := c.lower
	for _, re := range profilePhrases {
		rest = re.ReplaceAllString(rest, "")
	}
	var query []string
	for _, w := range strings.Fields(rest) {
		if !slices.Contains(queryStopWords, w) {
			query = append(query, w)
		}
	}
	m.setString(SearchQuery, strings.Join(query, " "))
}

func extractTypeText(c command, m Map) {
	m.setString(TextContent, afterTrigger(c.words, c.rawWords, []string{"type", "write", "enter"}, []string{"text", "message"}))
}

var clickSkipWords = []string{"click", "on", "here", "it", "this", "right", "double"}

func extractClickTarget(c command, m Map) {
	var out []string
	for i, w := range c.words {
		if !slices.Contains(clickSkipWords, w) {
			out = append(out, c.rawWords[i])
		}
	}
	target := strings.Join(out, " ")
	if target == "" {
		target = "current"
	}
	m.setString(ActionTarget, target)
}

func extractWindowAction(c command, m Map) {
	action := "minimize"
	if slices.Contains(c.words, "maximize") || slices.Contains(c.words, "fullscreen") {
		action = "maximize"
	}
	m.setString(WindowAction, action)
}

func extractSystem(c command, m Map) {
	action := "lock"
	if strings.Contains(c.lower, "screenshot") || strings.Contains(c.lower, "capture") {
		action = "screenshot"
	}
	m.setString(SystemAction, action)
}

var shortcuts = []struct {
	word  string
	chord string
}{
	{"copy", "ctrl+c"},
	{"paste", "ctrl+v"},
	{"save", "ctrl+s"},
	{"undo", "ctrl+z"},
}

func extractKeyboard(c command, m Map) {
	for _, s := range shortcuts {
		if strings.Contains(c.lower, s.word) {
			m.setString(KeyboardShortcut, s.chord)
			return
		}
	}
}

func extractAppWithAction(c command, m Map) {
	and := c.index("and")
	if and == -1 {
		return
	}
	m.setString(AppName, afterTrigger(c.words[:and], c.rawWords[:and], []string{"open", "launch", "start"}, appFillers))

	var action []string
	for i := and + 1; i < len(c.words); i++ {
		if !slices.Contains([]string{"search", "type", "play"}, c.words[i]) {
			action = append(action, c.rawWords[i])
		}
	}
	m.setString(ActionContent, strings.Join(action, " "))
}

var mediaApps = []string{"spotify", "netflix", "youtube", "vlc"}

func extractMediaControl(c command, m Map) {
	app := mediaApps[0]
	for _, a := range mediaApps {
		if strings.Contains(c.lower, a) {
			app = a
			break
		}
	}
	m.setString(AppName, app)

	at := c.index("play")
	if at == -1 {
		at = c.index("stream")
	}
	if at != -1 {
		m.setString(MediaQuery, strings.Join(c.rawWords[at+1:], " "))
	}
}

var messagingApps = []struct {
	keyword string
	app     string
}{
	{"whatsapp", "whatsapp"},
	{"email", "outlook"},
	{"social", "facebook"},
	{"twitter", "twitter"},
	{"instagram", "instagram"},
	{"telegram", "telegram"},
}

// messagePatterns are tried in order; each returns (recipient, message) group indexes.
var messagePatterns = []struct {
	re        *regexp.Regexp
	recipient int
	message   int
}{
	{regexp.MustCompile(`(?i)send\s+(.*?)\s+to\s+(.*)`), 2, 1},
	{regexp.MustCompile(`(?i)to\s+(.*?)\s+(?:message|saying|that)\s+(.*)`), 1, 2},
	{regexp.MustCompile(`(?i)to\s+([\p{L}\p{N}_]+)\s+(.*)`), 1, 2},
}

func extractSendMessage(c command, m Map) {
	app := "whatsapp"
	for _, a := range messagingApps {
		if strings.Contains(c.lower, a.keyword) {
			app = a.app
			break
		}
	}
	m.setString(AppName, app)

	for _, p := range messagePatterns {
		match := p.re.FindStringSubmatch(c.raw)
		if match == nil {
			continue
		}
		m.setString(Recipient, match[p.recipient])
		m.SetMessage(match[p.message])
		return
	}

	if to := c.index("to"); to != -1 {
		m.setString(Recipient, strings.Join(c.rawWords[to+1:], " "))
	}
}
