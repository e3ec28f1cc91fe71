// Package aggerr defines the session-manager's negative reply codes
// as sentinel errors, so every caller (the TCP handler and its tests)
// shares one source of truth instead of repeating magic strings.
package aggerr

import "errors"

var (
	// ErrNameEmpty is code -1: the requested UAV name was empty.
	ErrNameEmpty = errors.New("name must not be empty")
	// ErrConfigNotFound is code -2: the named drone config file does not exist.
	ErrConfigNotFound = errors.New("drone config not found")
	// ErrNoFreeSlot is code -3: client_limit UAVs are already active.
	ErrNoFreeSlot = errors.New("no free client slot")
)

// Code maps a sentinel error to its wire reply code. Returns 0, false
// for any other error.
func Code(err error) (int, bool) {
	switch {
	case errors.Is(err, ErrNameEmpty):
		return -1, true
	case errors.Is(err, ErrConfigNotFound):
		return -2, true
	case errors.Is(err, ErrNoFreeSlot):
		return -3, true
	default:
		return 0, false
	}
}
