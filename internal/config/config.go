package config

import (
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	IdentityConfig
	APIConfig
	StoreConfig
	CookieConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Identity
	API
	Store
	Cookies
}

func New() Config {
	return mainConfig{}
}

// LoadDotEnv reads a .env file from the working directory into the process
// environment. Variables already set in the environment are not overridden.
func LoadDotEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// MissingRequired lists the required environment variables that are not set.
func MissingRequired(c Config) []string {
	missing := c.MissingIdentitySettings()
	if c.GetAPIBaseURL() == "" {
		missing = append(missing, APIBaseURLVar)
	}
	return missing
}
