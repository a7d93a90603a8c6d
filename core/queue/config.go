package queue

import "time"

// Config holds the configuration for the acknowledged queue and its reaper.
// Designed for environment-based configuration using popular env parsing libraries.
type Config struct {
	// AckQueue configuration
	Capacity   int           `env:"QUEUE_CAPACITY" envDefault:"1000"`
	AckTimeout time.Duration `env:"QUEUE_ACK_TIMEOUT" envDefault:"30s"`

	// Reaper configuration
	ReapInterval    time.Duration `env:"QUEUE_REAP_INTERVAL" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Consumer configuration
	DequeueWait time.Duration `env:"QUEUE_DEQUEUE_WAIT" envDefault:"1s"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		Capacity:        DefaultCapacity,
		AckTimeout:      DefaultAckTimeout,
		ReapInterval:    DefaultReapInterval,
		ShutdownTimeout: 30 * time.Second,
		DequeueWait:     time.Second,
	}
}
