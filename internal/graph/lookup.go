package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// Lookup resolves a user reference typed by a person: either a user ID or
// a display name that matches exactly one registered user.
func (g *SocialGraph) Lookup(ref string) (*User, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return g.GetUser(id)
	}

	matches := g.FindByName(ref)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q matches %d users, use an ID", ErrAmbiguousUser, ref, len(matches))
	}
}
