// Package store holds the SQLite persistence layer. Each aggregate gets its
// own store type over a shared *sql.DB.
package store

import "errors"

// ErrLastAdmin is returned by membership writes that would leave a house
// group without any admin.
var ErrLastAdmin = errors.New("cannot remove the last admin")

// ErrInviteConsumed is returned when a join races another consumer of the
// same single-use invite.
var ErrInviteConsumed = errors.New("invite already consumed or revoked")
