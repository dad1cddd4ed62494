package app

import (
	"context"

	"github.com/MrWong99/scribeclean/internal/config"
	"github.com/MrWong99/scribeclean/internal/dictionary"
	"github.com/MrWong99/scribeclean/internal/resilience"
)

// BuiltinStores returns a registry with the memory, redis and postgres
// dictionary backends. The remote backends are wrapped in a
// [dictionary.ResilientStore].
func BuiltinStores() *config.Registry {
	r := config.NewRegistry()
	r.RegisterStore("memory", func(context.Context, config.StoreConfig) (dictionary.Store, error) {
		return dictionary.NewMemStore(), nil
	})
	r.RegisterStore("redis", func(ctx context.Context, sc config.StoreConfig) (dictionary.Store, error) {
		s, err := dictionary.NewRedisStore(ctx, dictionary.RedisConfig{
			Addr:     sc.Addr,
			Password: sc.Password,
			DB:       sc.DB,
			Key:      sc.Key,
		})
		if err != nil {
			return nil, err
		}
		return dictionary.NewResilientStore(s, "redis", breakerConfig(sc.Breaker)), nil
	})
	r.RegisterStore("postgres", func(ctx context.Context, sc config.StoreConfig) (dictionary.Store, error) {
		s, err := dictionary.OpenPostgres(ctx, sc.DSN)
		if err != nil {
			return nil, err
		}
		return dictionary.NewResilientStore(s, "postgres", breakerConfig(sc.Breaker)), nil
	})
	return r
}

func breakerConfig(bc config.BreakerConfig) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		MaxFailures:  bc.MaxFailures,
		ResetTimeout: bc.ResetTimeout,
	}
}
