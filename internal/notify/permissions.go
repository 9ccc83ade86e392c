// Package notify tracks whether each user allows desktop notifications.
package notify

import (
	"sync"

	"pomofocus/backend/internal/model"
)

// Permissions holds the tri-state notification permission per user. Users that
// were never asked are model.PermissionNotRequested.
type Permissions struct {
	mu     sync.RWMutex
	states map[string]model.Permission
}

func NewPermissions() *Permissions {
	return &Permissions{states: make(map[string]model.Permission)}
}

func (p *Permissions) Get(userID string) model.Permission {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if state, ok := p.states[userID]; ok {
		return state
	}
	return model.PermissionNotRequested
}

// Request records the user's answer the first time it is asked. Later calls leave
// the stored answer alone; changed reports whether anything was recorded.
func (p *Permissions) Request(userID string, granted bool) (state model.Permission, changed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current, ok := p.states[userID]; ok && current != model.PermissionNotRequested {
		return current, false
	}
	state = model.PermissionDenied
	if granted {
		state = model.PermissionGranted
	}
	p.states[userID] = state
	return state, true
}
