package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/broker/core/room"
)

// DefaultPingInterval is how often the keepalive pinger contacts every
// registered connection when no interval is configured.
const DefaultPingInterval = 30 * time.Second

// DefaultWriteTimeout bounds a single frame write to a client.
const DefaultWriteTimeout = 10 * time.Second

// Authenticator resolves an opaque identity token to a user id. It is the
// boundary to the identity layer; the gateway performs no validation of the
// returned id beyond non-emptiness.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (userID string, err error)
}

// GatewayStats provides observability metrics for monitoring and debugging.
type GatewayStats struct {
	ActiveConnections int64 // Connections currently registered through this gateway
	TotalConnections  int64 // Total connections accepted since construction
	PingCycles        int64 // Completed keepalive sweeps
	IsPingerRunning   bool  // Whether the keepalive pinger is running
}

// Gateway upgrades HTTP requests to websocket connections and bridges them to
// a room registry: every text frame received from a client is broadcast to
// the client's room, and a leave notice is broadcast when it disconnects.
//
// The gateway also owns an optional keepalive pinger, an explicitly started
// periodic task that sends a ping frame to every registered connection so
// dead transports are detected and evicted by their failing reads.
//
// Clients connect with the room and identity in the query string:
//
//	GET /ws?room=lobby&token=...        (with an Authenticator)
//	GET /ws?room=lobby&user_id=alice    (without one)
type Gateway struct {
	registry *room.Registry
	upgrader *websocket.Upgrader
	auth     Authenticator
	logger   *slog.Logger

	pingInterval    time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration

	// State management
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Observability metrics
	active     atomic.Int64
	total      atomic.Int64
	pingCycles atomic.Int64
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithAuthenticator requires clients to present a token that the
// authenticator resolves to a user id.
func WithAuthenticator(auth Authenticator) Option {
	return func(g *Gateway) {
		g.auth = auth
	}
}

// WithGatewayLogger sets the logger for internal operations.
func WithGatewayLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithPingInterval sets the keepalive sweep period. Default is DefaultPingInterval.
func WithPingInterval(interval time.Duration) Option {
	return func(g *Gateway) {
		if interval > 0 {
			g.pingInterval = interval
		}
	}
}

// WithWriteTimeout bounds each frame write to a client. Default is DefaultWriteTimeout.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.writeTimeout = timeout
		}
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout for the pinger.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.shutdownTimeout = timeout
		}
	}
}

// WithReadBuffer sets the websocket read buffer size.
func WithReadBuffer(size int) Option {
	return func(g *Gateway) {
		if size > 0 {
			g.upgrader.ReadBufferSize = size
		}
	}
}

// WithWriteBuffer sets the websocket write buffer size.
func WithWriteBuffer(size int) Option {
	return func(g *Gateway) {
		if size > 0 {
			g.upgrader.WriteBufferSize = size
		}
	}
}

// WithHandshakeTimeout sets the websocket handshake timeout.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.upgrader.HandshakeTimeout = timeout
		}
	}
}

// WithOriginCheck sets a custom origin check for the upgrade handshake.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.upgrader.CheckOrigin = fn
		}
	}
}

// WithAllowAnyOrigin disables origin checking. Intended for development and tests.
func WithAllowAnyOrigin() Option {
	return func(g *Gateway) {
		g.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
}

// New creates a gateway bound to the given room registry.
func New(registry *room.Registry, opts ...Option) (*Gateway, error) {
	if registry == nil {
		return nil, ErrRegistryNil
	}

	g := &Gateway{
		registry: registry,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		pingInterval:    DefaultPingInterval,
		writeTimeout:    DefaultWriteTimeout,
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// NewFromConfig creates a Gateway from configuration.
// Additional options override config values.
func NewFromConfig(cfg Config, registry *room.Registry, opts ...Option) (*Gateway, error) {
	allOpts := append([]Option{
		WithPingInterval(cfg.PingInterval),
		WithWriteTimeout(cfg.WriteTimeout),
		WithShutdownTimeout(cfg.ShutdownTimeout),
		WithReadBuffer(cfg.ReadBufferSize),
		WithWriteBuffer(cfg.WriteBufferSize),
	}, opts...)

	return New(registry, allOpts...)
}

// ServeHTTP upgrades the request, registers the connection to its room, and
// pumps received text frames into room broadcasts until the client goes away.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomName := r.URL.Query().Get("room")
	if roomName == "" {
		http.Error(w, ErrMissingRoom.Error(), http.StatusBadRequest)
		return
	}

	userID, err := g.identify(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrAuthFailed) {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		g.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	g.serveConn(r.Context(), conn, roomName, userID)
}

// identify resolves the client's user id from the request, through the
// authenticator when one is configured.
func (g *Gateway) identify(r *http.Request) (string, error) {
	if g.auth != nil {
		token := r.URL.Query().Get("token")
		if token == "" {
			return "", ErrMissingIdentity
		}
		userID, err := g.auth.Authenticate(r.Context(), token)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
		if userID == "" {
			return "", ErrAuthFailed
		}
		return userID, nil
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		return "", ErrMissingIdentity
	}
	return userID, nil
}

// serveConn runs the read loop for one client connection.
func (g *Gateway) serveConn(ctx context.Context, conn *websocket.Conn, roomName, userID string) {
	handle := newWSConn(conn, g.writeTimeout)
	defer handle.close()

	if err := g.registry.Connect(handle, roomName, userID); err != nil {
		g.logger.ErrorContext(ctx, "failed to register connection",
			slog.String("room", roomName),
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return
	}

	g.active.Add(1)
	g.total.Add(1)
	defer func() {
		g.registry.Disconnect(handle, roomName, userID)
		g.active.Add(-1)
		g.registry.Broadcast(ctx, roomName, fmt.Sprintf("%s left the room.", userID))
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				g.logger.WarnContext(ctx, "connection closed unexpectedly",
					slog.String("room", roomName),
					slog.String("user_id", userID),
					slog.String("error", err.Error()))
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		g.registry.Broadcast(ctx, roomName, fmt.Sprintf("%s: %s", userID, data))
	}
}

// Start begins the keepalive sweep loop. This is a blocking operation that
// runs until the context is cancelled. Use Run() for errgroup pattern or call
// this in a goroutine. Connections keep working without the pinger; it only
// accelerates detection of dead transports.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.cancel != nil {
		g.mu.Unlock()
		return errors.New("gateway pinger already started")
	}

	g.ctx, g.cancel = context.WithCancel(ctx)
	g.mu.Unlock()

	g.logger.InfoContext(g.ctx, "keepalive pinger started",
		slog.Duration("interval", g.pingInterval))

	ticker := time.NewTicker(g.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			g.logger.InfoContext(context.Background(), "keepalive pinger stopping")
			return g.ctx.Err()
		case <-ticker.C:
			select {
			case <-g.ctx.Done():
				return g.ctx.Err()
			default:
				g.pingWithWait()
			}
		}
	}
}

// Stop gracefully shuts down the keepalive pinger with a timeout.
func (g *Gateway) Stop() error {
	g.mu.Lock()
	if g.cancel == nil {
		g.mu.Unlock()
		return errors.New("gateway pinger not started")
	}

	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), g.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.logger.WarnContext(context.Background(), "pinger shutdown timeout exceeded",
			slog.Duration("timeout", g.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", g.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
func (g *Gateway) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- g.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = g.Stop() // Ignore stop error in normal shutdown
			<-errCh      // Wait for Start() to exit
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// pingWithWait wraps one sweep with WaitGroup tracking for graceful shutdown.
func (g *Gateway) pingWithWait() {
	g.mu.Lock()
	if g.cancel == nil {
		g.mu.Unlock()
		return
	}
	g.wg.Add(1)
	g.mu.Unlock()

	defer g.wg.Done()
	g.pingAll()
}

// pingAll sends a ping text to every registered connection. Failed sends are
// logged per connection; the failing client's read loop handles eviction.
func (g *Gateway) pingAll() {
	ctx := g.ctx

	for _, roomName := range g.registry.Rooms() {
		for _, conn := range g.registry.ConnsForRoom(roomName) {
			if err := g.registry.SendToOne(ctx, conn, "ping"); err != nil {
				g.logger.WarnContext(ctx, "failed to ping client",
					slog.String("room", roomName),
					slog.String("error", err.Error()))
			}
		}
	}

	g.pingCycles.Add(1)
}

// Stats returns current gateway statistics for observability and monitoring.
// This method is thread-safe and can be called at any time.
func (g *Gateway) Stats() GatewayStats {
	g.mu.Lock()
	isRunning := g.cancel != nil
	g.mu.Unlock()

	return GatewayStats{
		ActiveConnections: g.active.Load(),
		TotalConnections:  g.total.Load(),
		PingCycles:        g.pingCycles.Load(),
		IsPingerRunning:   isRunning,
	}
}

// Healthcheck validates that the keepalive pinger is running.
// This method is thread-safe and suitable for use in health check endpoints.
func (g *Gateway) Healthcheck(ctx context.Context) error {
	if !g.Stats().IsPingerRunning {
		return errors.Join(ErrHealthcheckFailed, ErrPingerNotRunning)
	}
	return nil
}
