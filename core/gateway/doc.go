// Package gateway bridges websocket connections to the room registry.
//
// The gateway is an http.Handler: each accepted connection is upgraded,
// authenticated, registered to the room named in the query string, and its
// incoming text frames are fanned out to the room until the client goes away.
// On disconnect the gateway deregisters the handle and broadcasts a leave
// notice.
//
// # Usage
//
//	registry := room.NewRegistry()
//	gw, err := gateway.New(registry,
//	    gateway.WithAuthenticator(auth),
//	    gateway.WithPingInterval(30*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mux := http.NewServeMux()
//	mux.Handle("/ws", gw)
//
//	// Optional keepalive sweeps; connections work without them.
//	go gw.Start(ctx)
//	defer gw.Stop()
//
// Without an Authenticator the gateway trusts the user_id query parameter,
// which is only acceptable behind a trusted proxy or in development.
//
// # Failure Semantics
//
// A frame write to one client may fail at any time; the failure is logged
// and scoped to that client, never aborting a broadcast to the rest of the
// room. Dead connections are detected by their failing reads, helped along
// by the periodic keepalive ping.
package gateway
