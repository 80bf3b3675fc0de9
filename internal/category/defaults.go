package category

// Miscellaneous is the catch-all category every unmatched title resolves to.
const Miscellaneous = "miscellaneous"

// Definition is a built-in keyword-driven category. Built-ins are never
// persisted; only custom categories and overrides live in the settings
// document.
type Definition struct {
	ID          string
	Description string
	Color       string
	Keywords    []string
}

// defaults are scanned in declared order; the first keyword match wins.
var defaults = []Definition{
	{
		ID:          "development",
		Description: "Programming and development tools",
		Color:       "#2ecc71",
		Keywords: []string{
			"code", "vim", "neovim", "emacs", "intellij", "goland", "pycharm",
			"webstorm", "xcode", "android studio", "terminal", "iterm",
			"alacritty", "kitty", "konsole", "git", "github", "gitlab",
			"stack overflow", "stackoverflow", "jetbrains", "sublime", "zed",
		},
	},
	{
		ID:          "browsers",
		Description: "Web browsers",
		Color:       "#3498db",
		Keywords: []string{
			"chrome", "chromium", "firefox", "safari", "edge", "brave",
			"opera", "vivaldi", "zen",
		},
	},
	{
		ID:          "social",
		Description: "Social media and messaging",
		Color:       "#e91e63",
		Keywords: []string{
			"slack", "discord", "telegram", "whatsapp", "signal", "messages",
			"twitter", "x.com", "reddit", "facebook", "instagram", "tiktok",
			"linkedin", "mastodon",
		},
	},
	{
		ID:          "entertainment",
		Description: "Media and games",
		Color:       "#9b59b6",
		Keywords: []string{
			"youtube", "netflix", "spotify", "twitch", "hulu", "disney",
			"vlc", "mpv", "steam", "minecraft", "game", "music", "prime video",
		},
	},
	{
		ID:          "learning",
		Description: "Courses and reference material",
		Color:       "#f39c12",
		Keywords: []string{
			"coursera", "udemy", "khan academy", "duolingo", "leetcode",
			"wikipedia", "documentation", "tutorial", "edx", "brilliant",
		},
	},
	{
		ID:          "work",
		Description: "Office and collaboration tools",
		Color:       "#1abc9c",
		Keywords: []string{
			"mail", "outlook", "gmail", "thunderbird", "calendar", "excel",
			"word", "powerpoint", "sheets", "docs.google", "notion", "jira",
			"confluence", "zoom", "meet", "teams", "figma",
		},
	},
	{
		ID:          "productivity",
		Description: "Notes and task management",
		Color:       "#34495e",
		Keywords: []string{
			"obsidian", "notes", "todo", "todoist", "trello", "asana",
			"anki", "logseq",
		},
	},
	{
		ID:          "miscellaneous",
		Description: "Everything else",
		Color:       "#95a5a6",
		Keywords:    nil,
	},
}

// browserProcesses are process/owner names treated as browsers for title
// enhancement and content-category resolution.
var browserProcesses = []string{
	"chrome", "chromium", "firefox", "safari", "edge", "brave", "opera",
	"vivaldi", "zen",
}

// contentPriority is the fixed priority list used when a browser title
// carries content keywords: a browser showing reddit resolves to social, not
// browsers.
var contentPriority = []string{"social", "entertainment", "learning", "development", "work"}

// Defaults returns the built-in category definitions in declared order.
func Defaults() []Definition {
	out := make([]Definition, len(defaults))
	copy(out, defaults)
	return out
}

func defaultByID(id string) (Definition, bool) {
	for _, d := range defaults {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
