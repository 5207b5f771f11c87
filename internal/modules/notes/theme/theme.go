package theme

import (
	"strings"
	"sync"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"

	Default = Dark
)

func Parse(raw string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	default:
		return "", false
	}
}

func (t Theme) Toggle() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

// State is the ambient theme shared by the view and the export path. The selected theme is
// what the user chose; a forced theme overrides it while an export runs.
type State struct {
	mu       sync.Mutex
	selected Theme
	forced   Theme
	depth    int
}

func NewState(initial Theme) *State {
	if _, ok := Parse(string(initial)); !ok {
		initial = Default
	}
	return &State{selected: initial}
}

// Current is the effective theme: the forced one during WithForced, otherwise the selection.
func (s *State) Current() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.depth > 0 {
		return s.forced
	}
	return s.selected
}

// Selected is the user's theme, unaffected by forcing.
func (s *State) Selected() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Set changes the selection. During WithForced it takes effect once forcing ends.
func (s *State) Set(t Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = t
}

func (s *State) Toggle() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = s.selected.Toggle()
	return s.selected
}

// WithForced runs fn with the effective theme forced to t and restores it afterwards, including
// when fn returns an error or panics. The lock is only held to enter and leave the forced
// section, so readers and Set/Toggle never wait on fn.
func WithForced(s *State, t Theme, fn func(Theme) error) error {
	s.mu.Lock()
	s.depth++
	s.forced = t
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.depth--
		s.mu.Unlock()
	}()
	return fn(t)
}

// Forced reports whether a WithForced call is in progress.
func (s *State) Forced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth > 0
}
