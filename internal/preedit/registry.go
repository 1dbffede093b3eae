package preedit

// Registry owns every live overlay window, keyed by window id. Input
// contexts refer to their window by id only, so creation and teardown go
// through here. It is not safe for concurrent use.
type Registry struct {
	windows map[WindowID]*Window
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{windows: make(map[WindowID]*Window)}
}

// Insert adds w under its id.
func (r *Registry) Insert(w *Window) {
	r.windows[w.ID()] = w
}

// Get returns the window with the given id.
func (r *Registry) Get(id WindowID) (*Window, bool) {
	w, ok := r.windows[id]
	return w, ok
}

// Remove detaches and returns the window with the given id. The caller
// becomes responsible for cleaning it.
func (r *Registry) Remove(id WindowID) (*Window, bool) {
	w, ok := r.windows[id]
	if ok {
		delete(r.windows, id)
	}
	return w, ok
}

// ByTarget returns the overlays that follow the given client window.
func (r *Registry) ByTarget(target WindowID) []*Window {
	if target == 0 {
		return nil
	}
	var out []*Window
	for _, w := range r.windows {
		if w.Target() == target {
			out = append(out, w)
		}
	}
	return out
}

// Len returns the number of live windows.
func (r *Registry) Len() int {
	return len(r.windows)
}
