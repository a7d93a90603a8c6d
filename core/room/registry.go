package room

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Conn is an opaque handle to a live subscriber connection, the unit of
// delivery in fan-out. Send may fail when the underlying transport is gone;
// the registry treats such failures as non-fatal to the rest of a broadcast.
//
// Implementations must be comparable (pointer receivers are the usual case)
// since the registry identifies handles by equality on disconnect.
type Conn interface {
	Send(ctx context.Context, text string) error
}

// Registry maps rooms to their live subscriber handles and users to the rooms
// they belong to. The two indices are kept consistent by funneling every
// membership change through Connect and Disconnect; nothing else mutates them.
//
// Registration is not deduplicated: a handle connected to the same room twice
// receives each broadcast twice until it disconnects twice. Membership is
// in-memory only and shares the queue package's delivery philosophy:
// best-effort, no persistence.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string][]Conn
	users  map[string][]string
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for delivery failures and membership changes.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty room registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:  make(map[string][]Conn),
		users:  make(map[string][]string),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Connect registers the handle under the room's subscriber set and records
// the room in the user's membership set. A handle may join many rooms, and a
// room may hold several handles for the same user (multi-device).
func (r *Registry) Connect(conn Conn, room, userID string) error {
	if conn == nil {
		return ErrNilConn
	}
	if room == "" {
		return ErrEmptyRoom
	}
	if userID == "" {
		return ErrEmptyUserID
	}

	r.mu.Lock()
	r.rooms[room] = append(r.rooms[room], conn)
	r.users[userID] = append(r.users[userID], room)
	r.mu.Unlock()

	r.logger.Info("user connected to room",
		slog.String("user_id", userID),
		slog.String("room", room))

	return nil
}

// Disconnect removes one registration of the handle from the room and one
// matching room entry from the user's membership set. Disconnecting a handle
// that was never registered is a no-op; when the last handle leaves a room
// the room entry is deleted entirely.
func (r *Registry) Disconnect(conn Conn, room, userID string) {
	r.mu.Lock()

	if conns, ok := r.rooms[room]; ok {
		for i, c := range conns {
			if c == conn {
				r.rooms[room] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(r.rooms[room]) == 0 {
			delete(r.rooms, room)
		}
	}

	if rooms, ok := r.users[userID]; ok {
		for i, rm := range rooms {
			if rm == room {
				r.users[userID] = append(rooms[:i], rooms[i+1:]...)
				break
			}
		}
		if len(r.users[userID]) == 0 {
			delete(r.users, userID)
		}
	}

	r.mu.Unlock()

	r.logger.Info("user disconnected from room",
		slog.String("user_id", userID),
		slog.String("room", room))
}

// Broadcast delivers the message to every handle registered to the room at
// call time. Delivery runs over a snapshot taken at call start: handles added
// afterwards miss this broadcast, and a handle removed mid-flight fails only
// its own delivery. Per-handle failures are logged and never abort the
// fan-out. Returns the number of successful deliveries.
func (r *Registry) Broadcast(ctx context.Context, room, text string) int {
	r.mu.RLock()
	conns := make([]Conn, len(r.rooms[room]))
	copy(conns, r.rooms[room])
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(ctx, text); err != nil {
			r.logger.ErrorContext(ctx, "broadcast delivery failed",
				slog.String("room", room),
				slog.String("error", err.Error()))
			continue
		}
		delivered++
	}

	return delivered
}

// SendToOne delivers the message to a single handle, bypassing room fan-out.
func (r *Registry) SendToOne(ctx context.Context, conn Conn, text string) error {
	if conn == nil {
		return ErrNilConn
	}
	return conn.Send(ctx, text)
}

// RoomsForUser returns the rooms the user belongs to. Unknown users yield an
// empty slice, never an error.
func (r *Registry) RoomsForUser(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, len(r.users[userID]))
	copy(rooms, r.users[userID])
	return rooms
}

// ConnsForRoom returns the handles registered to the room. Unknown rooms
// yield an empty slice, never an error.
func (r *Registry) ConnsForRoom(room string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, len(r.rooms[room]))
	copy(conns, r.rooms[room])
	return conns
}

// Rooms returns the names of all rooms with at least one subscriber.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.rooms))
	for room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
