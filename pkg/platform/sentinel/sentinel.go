package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and the backend
// client return these (optionally wrapped) so services can translate them into
// domain errors.
//
// - ErrNotFound: key or record does not exist
// - ErrExpired: draft, cache entry or session has expired
// - ErrConflict: a concurrent write won
// - ErrUnavailable: dependency temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
