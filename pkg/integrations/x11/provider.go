package x11

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/worklens/worklens/pkg/window"
)

// Provider reads the focused window and the user idle time over a single X11
// connection. It implements both window.ActiveWindowProvider and
// window.IdleTimeProvider.
type Provider struct {
	conn           *xgb.Conn
	root           xproto.Window
	atoms          map[string]xproto.Atom
	hasScreenSaver bool
}

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

func New() (*Provider, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	p := &Provider{
		conn:  conn,
		root:  root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		p.atoms[name] = reply.Atom
	}

	// The MIT-SCREEN-SAVER extension is the idle-time source; without it the
	// caller falls back to its wall-clock heuristic.
	if err := screensaver.Init(conn); err == nil {
		p.hasScreenSaver = true
	}

	return p, nil
}

// HasIdleSource reports whether the X server exposes idle time.
func (p *Provider) HasIdleSource() bool {
	return p.hasScreenSaver
}

// Get returns the currently focused window, or nil when none holds focus.
func (p *Provider) Get() (*window.Info, error) {
	id := p.activeWindowFromProperty()
	if id == 0 || !p.hasValidName(id) {
		id = p.activeWindowFromInputFocus()
		if id != 0 && id != p.root {
			id = p.topLevelParent(id)
		}
	}
	if id == 0 || id == p.root {
		return nil, nil
	}

	title := p.windowName(id)
	instance, class := p.windowClass(id)
	owner := class
	if owner == "" {
		owner = instance
	}

	return &window.Info{
		ID:    fmt.Sprintf("0x%x", uint32(id)),
		Title: title,
		Owner: owner,
	}, nil
}

// IdleMillis returns milliseconds since the last user input.
func (p *Provider) IdleMillis() (int64, error) {
	if !p.hasScreenSaver {
		return 0, errors.New("screensaver extension not available")
	}
	reply, err := screensaver.QueryInfo(p.conn, xproto.Drawable(p.root)).Reply()
	if err != nil {
		return 0, errors.Wrap(err, "failed to query idle time")
	}
	return int64(reply.MsSinceUserInput), nil
}

func (p *Provider) Close() error {
	p.conn.Close()
	return nil
}

func (p *Provider) getProperty(win xproto.Window, atom, atomType xproto.Atom, length uint32) []byte {
	reply, err := xproto.GetProperty(p.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil
	}
	return reply.Value
}

func (p *Provider) activeWindowFromProperty() xproto.Window {
	data := p.getProperty(p.root, p.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if len(data) < 4 {
		return 0
	}
	return xproto.Window(binary.LittleEndian.Uint32(data))
}

func (p *Provider) activeWindowFromInputFocus() xproto.Window {
	reply, err := xproto.GetInputFocus(p.conn).Reply()
	if err != nil {
		return 0
	}
	return reply.Focus
}

func (p *Provider) topLevelParent(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(p.conn, win).Reply()
		if err != nil || reply.Parent == p.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (p *Provider) hasValidName(win xproto.Window) bool {
	if data := p.getProperty(win, p.atoms["_NET_WM_NAME"], p.atoms["UTF8_STRING"], 1); len(data) > 0 {
		return true
	}
	data := p.getProperty(win, p.atoms["WM_NAME"], xproto.AtomString, 1)
	return len(data) > 0
}

func (p *Provider) windowName(win xproto.Window) string {
	if data := p.getProperty(win, p.atoms["_NET_WM_NAME"], p.atoms["UTF8_STRING"], 256); len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	if data := p.getProperty(win, p.atoms["WM_NAME"], xproto.AtomString, 256); len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	return ""
}

func (p *Provider) windowClass(win xproto.Window) (instance, class string) {
	data := p.getProperty(win, p.atoms["WM_CLASS"], xproto.AtomString, 256)
	if len(data) == 0 {
		return "", ""
	}
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}
