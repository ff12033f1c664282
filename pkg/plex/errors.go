package plex

import "errors"

// Failure kinds, assigned where the remote call fails so callers never see an
// unclassified error. Wrapped with %w; test with errors.Is.
var (
	// ErrConnection covers an unreachable server, a rejected token, or a
	// failed session handshake.
	ErrConnection = errors.New("plex: connection failed")

	// ErrNotFound means a specific key resolved to no entity.
	ErrNotFound = errors.New("plex: not found")

	// ErrRemote means the server accepted the session but the individual
	// call (search, create, delete, add) failed.
	ErrRemote = errors.New("plex: remote operation failed")
)
