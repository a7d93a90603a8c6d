package gateway

import "errors"

var (
	// ErrRegistryNil is returned when the gateway is constructed without a
	// room registry.
	ErrRegistryNil = errors.New("room registry cannot be nil")

	// ErrSendFailed marks a failed frame write to a client connection.
	// The room registry treats it as non-fatal during broadcasts.
	ErrSendFailed = errors.New("websocket send failed")

	// ErrMissingRoom is returned when a connection request names no room.
	ErrMissingRoom = errors.New("room parameter is required")

	// ErrMissingIdentity is returned when neither a token nor a user id
	// accompanies the connection request.
	ErrMissingIdentity = errors.New("user identity is required")

	// ErrAuthFailed wraps authenticator rejections.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrPingerNotRunning indicates the keepalive pinger is not running.
	ErrPingerNotRunning = errors.New("keepalive pinger is not running")

	// ErrHealthcheckFailed wraps health check failures for errors.Is matching.
	ErrHealthcheckFailed = errors.New("healthcheck failed")
)
