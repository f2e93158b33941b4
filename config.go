package taskdesk

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvConfig is the process configuration read from the environment
type EnvConfig struct {
	SigningKey      string        `env:"JWT_SECRET_KEY,required,notEmpty"`
	TokenExpiration time.Duration `env:"TOKEN_EXPIRATION" envDefault:"2h"`
	Issuer          string        `env:"TOKEN_ISSUER" envDefault:"taskdesk"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"true"`
	ReturnToTTL     time.Duration `env:"RETURN_TO_TTL" envDefault:"5m"`
	PendingTTL      time.Duration `env:"PENDING_SESSION_TTL" envDefault:"1m"`
	LoginRate       int           `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst      int           `env:"LOGIN_RATE_BURST" envDefault:"5"`
	LandingPath     string        `env:"LANDING_PATH" envDefault:"/dashboard"`
	LoginPath       string        `env:"LOGIN_PATH" envDefault:"/login"`
	PublicRoot      string        `env:"PUBLIC_ROOT" envDefault:"/"`
	DatabaseDSN     string        `env:"DATABASE_DSN" envDefault:"file:taskdesk.db?cache=shared"`
	RedisURL        string        `env:"REDIS_URL"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig reads an optional .env file and parses the environment. A
// missing signing key is an error: callers must abort startup.
func LoadConfig(dotenvFiles ...string) (*EnvConfig, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		if strings.Contains(err.Error(), "JWT_SECRET_KEY") {
			return nil, fmt.Errorf("%w: %v", ErrMissingSigningKey, err)
		}
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.TokenExpiration <= 0 {
		return nil, fmt.Errorf("TOKEN_EXPIRATION must be positive, got %s", cfg.TokenExpiration)
	}

	return cfg, nil
}

// MustLoadConfig panics when the configuration cannot be loaded
func MustLoadConfig(dotenvFiles ...string) *EnvConfig {
	cfg, err := LoadConfig(dotenvFiles...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *EnvConfig) GetSigningKey() string { return c.SigningKey }
func (c *EnvConfig) GetTokenExpiration() time.Duration { return c.TokenExpiration }
func (c *EnvConfig) GetIssuer() string { return c.Issuer }
func (c *EnvConfig) GetCookieSecure() bool { return c.CookieSecure }
func (c *EnvConfig) GetReturnToTTL() time.Duration { return c.ReturnToTTL }
func (c *EnvConfig) GetPendingTTL() time.Duration { return c.PendingTTL }
func (c *EnvConfig) GetLandingPath() string { return c.LandingPath }
func (c *EnvConfig) GetLoginPath() string { return c.LoginPath }
func (c *EnvConfig) GetPublicRoot() string { return c.PublicRoot }
