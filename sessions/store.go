package sessions

import "context"

// Keys under which a device's session is persisted. A session is never stored
// as one object: it exists only as these independently cached values.
const (
	KeyAccessToken  = "access_token"
	KeyIDToken      = "id_token"
	KeyRefreshToken = "refresh_token"
	KeyUserInfo     = "user_info"
)

// SessionKeys lists every key erased on sign-out.
var SessionKeys = []string{KeyAccessToken, KeyIDToken, KeyRefreshToken, KeyUserInfo}

// Store is the origin-scoped persistent store. Values are namespaced by the
// device identifier so each browser sees only its own tokens. Get returns
// errors.ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace string, keys ...string) error
	Close() error
}
