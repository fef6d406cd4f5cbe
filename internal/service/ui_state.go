package service

import "sync"

// Known menu names. Anything else is rejected at the HTTP layer.
const (
	MenuDevices = "devices"
	MenuUser    = "user"
)

// UIState holds transient console state: which popover menus are open and
// the element they are anchored to. Purely in-memory, never persisted,
// reset on restart.
type UIState struct {
	mu      sync.RWMutex
	anchors map[string]string // menu name -> anchor element id
}

func NewUIState() *UIState {
	return &UIState{anchors: map[string]string{}}
}

// OpenMenu records the anchor for a menu.
func (u *UIState) OpenMenu(name, anchor string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.anchors[name] = anchor
}

// CloseMenu clears the anchor; closing a closed menu is a no-op.
func (u *UIState) CloseMenu(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.anchors, name)
}

// MenuAnchor returns the anchor and whether the menu is open.
func (u *UIState) MenuAnchor(name string) (string, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	anchor, ok := u.anchors[name]
	return anchor, ok
}
