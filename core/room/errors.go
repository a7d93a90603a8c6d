package room

import "errors"

var (
	// ErrNilConn is returned when a nil connection handle is passed to
	// Connect or SendToOne.
	ErrNilConn = errors.New("connection handle cannot be nil")

	// ErrEmptyRoom is returned when a room name is empty.
	ErrEmptyRoom = errors.New("room name cannot be empty")

	// ErrEmptyUserID is returned when a user id is empty. User ids are
	// opaque keys supplied by the identity layer; non-emptiness is the only
	// validation performed here.
	ErrEmptyUserID = errors.New("user id cannot be empty")
)
