// Package room provides an in-memory registry that fans messages out to the
// live subscribers of named rooms.
//
// The registry keeps two indices: room name to subscriber handles, and user
// id to room memberships. Both are mutated only through Connect and
// Disconnect, which keeps them bidirectionally consistent. Handles are opaque
// Conn values supplied by the transport layer.
//
// # Usage
//
//	registry := room.NewRegistry(room.WithLogger(logger))
//
//	if err := registry.Connect(conn, "lobby", userID); err != nil {
//	    return err
//	}
//	defer registry.Disconnect(conn, "lobby", userID)
//
//	delivered := registry.Broadcast(ctx, "lobby", "hello everyone")
//
// # Delivery Semantics
//
// Broadcast delivers to a snapshot of the room's handles taken at call start.
// Deliveries to different handles are independent and unordered: a failed
// Send (closed transport, slow client) is logged and skipped, never aborting
// the remaining deliveries or surfacing as an aggregate error.
//
// Registration is intentionally not deduplicated. Connecting the same handle
// to the same room twice yields two deliveries per broadcast until it
// disconnects twice; disconnecting an unknown handle is a no-op.
//
// # Thread Safety
//
// All methods are safe for concurrent use. A single read-write mutex guards
// both indices, optimized for broadcast-heavy workloads.
package room
