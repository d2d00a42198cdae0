package config

import (
	"strings"
	"time"
)

const (
	APIBaseURLVar = "API_BASE_URL"
	apiTimeoutVar = "API_TIMEOUT"
)

// APIConfig locates the downstream activity API.
type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

func (API) GetAPIBaseURL() string {
	return strings.TrimSuffix(GetEnv(APIBaseURLVar, ""), "/")
}

// GetAPITimeout bounds downstream calls; activity generation can take a while.
func (API) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(apiTimeoutVar, "90s"))
	if err != nil || d <= 0 {
		return 90 * time.Second
	}
	return d
}
