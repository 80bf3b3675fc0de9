package provider

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/worklens/worklens/pkg/integrations/gnome"
	"github.com/worklens/worklens/pkg/integrations/x11"
	"github.com/worklens/worklens/pkg/window"
)

// New selects the platform integration for the current session. The returned
// idle provider is nil when the platform exposes no idle-time source; callers
// then use their wall-clock fallback.
func New() (window.ActiveWindowProvider, window.IdleTimeProvider, error) {
	server := DetectDisplayServer()

	if server == "wayland" {
		desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
		if strings.Contains(desktop, "gnome") || strings.Contains(desktop, "ubuntu") {
			if p, err := gnome.New(); err == nil {
				return p, nil, nil
			}
		}
		// XWayland still answers for many setups; fall through to X11.
	}

	p, err := x11.New()
	if err != nil {
		return nil, nil, errors.Wrap(err, "no window accessor available")
	}
	if p.HasIdleSource() {
		return p, p, nil
	}
	return p, nil, nil
}

// DetectDisplayServer reports the session's display server type.
func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
