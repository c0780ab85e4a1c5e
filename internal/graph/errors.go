package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrUserNotFound is returned when an operation references a user ID
	// that is not registered in the graph.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when adding a user whose ID is
	// already registered.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUsersNotConnected is returned by MinDistance when no directed path
	// leads from the source user to the target user.
	ErrUsersNotConnected = errors.New("users not connected")

	// ErrAmbiguousUser is returned by Lookup when a display name matches
	// more than one registered user.
	ErrAmbiguousUser = errors.New("ambiguous user name")
)
