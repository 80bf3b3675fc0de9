package window

// Info describes the window currently holding input focus.
type Info struct {
	ID    string // platform window identifier, opaque to callers
	Title string
	Owner string // owning application/process name
}

// ActiveWindowProvider reports the currently focused window. A nil Info with a
// nil error means no window currently has focus.
type ActiveWindowProvider interface {
	Get() (*Info, error)
	Close() error
}

// IdleTimeProvider reports milliseconds since the last user input. Platforms
// without an idle source simply do not supply one; callers fall back to a
// wall-clock heuristic.
type IdleTimeProvider interface {
	IdleMillis() (int64, error)
	Close() error
}
