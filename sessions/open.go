package sessions

import (
	"context"
	"fmt"

	"github.com/jrsteele09/homeschool-portal/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Open builds the persistent store described by cfg: Redis when an address is
// configured, in-memory otherwise, sealed when a key is configured.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var store Store
	if addr := cfg.GetRedisAddr(); addr != "" {
		rs, err := OpenRedisStore(ctx, &redis.Options{
			Addr:     addr,
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		}, cfg.GetDeviceSessionTTL())
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", addr).Msg("Session store: redis")
		store = rs
	} else {
		log.Warn().Msg("Session store: in-memory (sessions are lost on restart)")
		store = NewInMemoryStore(cfg.GetDeviceSessionTTL())
	}

	if encoded := cfg.GetStoreSealKey(); encoded != "" {
		key, err := ParseSealKey(encoded)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("[sessions Open] %w", err)
		}
		sealed, err := NewSealedStore(store, key)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		store = sealed
	}
	return store, nil
}
