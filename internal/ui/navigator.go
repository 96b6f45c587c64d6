package ui

import (
	"sync"

	"github.com/ppiankov/symmetry/internal/model"
)

// View identifies a screen
type View int

const (
	ViewArticle View = iota
	ViewCompare
)

func (v View) String() string {
	if v == ViewCompare {
		return "Compare"
	}
	return "Article"
}

// Navigator owns the active view and a single-slot payload handed from
// one view to the next. The payload can be taken exactly once.
type Navigator struct {
	mu      sync.Mutex
	current View
	payload *model.Handoff
}

// NewNavigator starts on the article view
func NewNavigator() *Navigator {
	return &Navigator{current: ViewArticle}
}

// Current returns the active view
func (n *Navigator) Current() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate switches view without a payload
func (n *Navigator) Navigate(v View) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = v
}

// NavigateWithPayload switches view and stores h for the destination in one
// step. A payload nobody took yet is replaced.
func (n *Navigator) NavigateWithPayload(v View, h model.Handoff) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = v
	n.payload = &h
}

// Take returns the pending payload and clears the slot
func (n *Navigator) Take() (model.Handoff, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.payload == nil {
		return model.Handoff{}, false
	}
	h := *n.payload
	n.payload = nil
	return h, true
}
