package gnome

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/worklens/worklens/pkg/window"
)

// Provider reads the focused window from GNOME Shell over gdbus. Used on
// Wayland sessions where the X11 path cannot see native windows. GNOME Shell
// exposes no idle-time query here, so this provider has no idle source.
type Provider struct {
	hasGdbus bool
}

const evalScript = `
	let fw = global.get_window_actors()
		.map(a => a.meta_window)
		.find(w => w.has_focus());
	if (!fw) {
		fw = global.display.get_focus_window();
	}
	if (fw) {
		JSON.stringify({
			wm_class: fw.get_wm_class() || '',
			title: fw.get_title() || '',
			id: fw.get_id() || 0
		});
	} else {
		'null';
	}
`

func New() (*Provider, error) {
	if _, err := exec.LookPath("gdbus"); err != nil {
		return nil, errors.New("gdbus not available")
	}
	return &Provider{hasGdbus: true}, nil
}

// Get returns the currently focused window, or nil when none holds focus.
func (p *Provider) Get() (*window.Info, error) {
	cmd := exec.Command("gdbus", "call", "--session",
		"--dest", "org.gnome.Shell",
		"--object-path", "/org/gnome/Shell",
		"--method", "org.gnome.Shell.Eval",
		evalScript)

	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, "gnome shell eval failed")
	}

	result := string(output)
	if strings.Contains(result, "'null'") {
		return nil, nil
	}

	start := strings.Index(result, "{")
	end := strings.LastIndex(result, "}")
	if start == -1 || end == -1 {
		return nil, errors.New("unexpected gnome shell response")
	}

	jsonStr := result[start : end+1]
	jsonStr = strings.ReplaceAll(jsonStr, "\\\"", "\"")

	info := &window.Info{
		Title: extractValue(jsonStr, "title"),
		Owner: extractValue(jsonStr, "wm_class"),
	}
	if id := extractValue(jsonStr, "id"); id != "" {
		info.ID = id
	}
	if info.Title == "" && info.Owner == "" {
		return nil, nil
	}
	return info, nil
}

func (p *Provider) Close() error {
	return nil
}

// extractValue pulls one scalar out of the loosely quoted JSON the shell
// returns.
func extractValue(json, key string) string {
	search := fmt.Sprintf(`"%s":`, key)
	idx := strings.Index(json, search)
	if idx == -1 {
		return ""
	}

	rest := strings.TrimSpace(json[idx+len(search):])
	if strings.HasPrefix(rest, `"`) {
		end := strings.Index(rest[1:], `"`)
		if end == -1 {
			return ""
		}
		return rest[1 : end+1]
	}

	end := strings.IndexAny(rest, ",}")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
