package tui

import "github.com/aberthet/chantier-sync/models"

// authDoneMsg carries the outcome of an async register/login call.
type authDoneMsg struct {
	user models.User
	err  error
}

// syncStateMsg streams one sync state snapshot into the status screen.
type syncStateMsg struct {
	state models.SyncState
}

// actionDoneMsg carries the outcome of a recovery action (clear pending,
// full resync).
type actionDoneMsg struct {
	info string
	err  error
}
