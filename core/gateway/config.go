package gateway

import "time"

// Config holds the configuration for the websocket gateway.
// Designed for environment-based configuration using popular env parsing libraries.
type Config struct {
	PingInterval    time.Duration `env:"GATEWAY_PING_INTERVAL" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"GATEWAY_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"GATEWAY_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	ReadBufferSize  int           `env:"GATEWAY_READ_BUFFER_SIZE" envDefault:"1024"`
	WriteBufferSize int           `env:"GATEWAY_WRITE_BUFFER_SIZE" envDefault:"1024"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		PingInterval:    DefaultPingInterval,
		WriteTimeout:    DefaultWriteTimeout,
		ShutdownTimeout: 30 * time.Second,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
