// Package config provides type-safe environment variable loading with
// per-type caching. It automatically loads a .env file on first use and
// parses variables into struct fields via env tags.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/broker/core/config"
//
//	import "github.com/dmitrymomot/broker/core/queue"
//
//	var cfg queue.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&cfg)
//
// Each configuration type is loaded only once per process; subsequent Load
// calls for the same type return the cached value, so every component wired
// from the same config type observes identical settings.
package config
