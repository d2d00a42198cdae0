package config

import (
	"strconv"
	"time"
)

const (
	redisAddrVar     = "REDIS_ADDR"
	redisPasswordVar = "REDIS_PASSWORD"
	redisDBVar       = "REDIS_DB"
	storeSealKeyVar  = "STORE_SEAL_KEY"
)

// StoreConfig selects where token sessions are kept.
// An empty Redis address means the in-memory store.
type StoreConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	// GetStoreSealKey is a base64 32-byte key; empty disables sealing.
	GetStoreSealKey() string
	GetDeviceSessionTTL() time.Duration
	GetCodeLedgerTTL() time.Duration
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

func (Store) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, "")
}

func (Store) GetRedisDB() int {
	db, err := strconv.Atoi(GetEnv(redisDBVar, "0"))
	if err != nil || db < 0 {
		return 0
	}
	return db
}

func (Store) GetStoreSealKey() string {
	return GetEnv(storeSealKeyVar, "")
}

// GetDeviceSessionTTL bounds how long stored tokens survive without a sign-in.
func (Store) GetDeviceSessionTTL() time.Duration {
	return 30 * 24 * time.Hour
}

func (Store) GetCodeLedgerTTL() time.Duration {
	return 12 * time.Hour
}
