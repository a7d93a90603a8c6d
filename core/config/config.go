package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrInvalidTarget is returned when Load receives anything other than a
// non-nil pointer to a struct.
var ErrInvalidTarget = errors.New("config target must be a non-nil struct pointer")

var (
	cache  sync.Map // reflect.Type -> parsed struct value
	dotenv sync.Once
)

// Load populates cfg from environment variables. The first call in the
// process also loads a .env file when one is present. Each configuration
// type is parsed once and cached; later calls for the same type return the
// cached value, so configuration stays consistent across components.
func Load(cfg any) error {
	dotenv.Do(func() {
		_ = godotenv.Load() // missing .env is not an error
	})

	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}

	typ := v.Elem().Type()
	if cached, ok := cache.Load(typ); ok {
		v.Elem().Set(reflect.ValueOf(cached))
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ, err)
	}

	actual, _ := cache.LoadOrStore(typ, v.Elem().Interface())
	v.Elem().Set(reflect.ValueOf(actual))

	return nil
}

// MustLoad is Load that panics on failure. Useful during application startup
// where a missing required variable should stop the process.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
