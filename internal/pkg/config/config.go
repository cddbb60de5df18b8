package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	BcryptCost      int           `env:"BCRYPT_COST,      default=10"`
	AuditWorkers    int           `env:"AUDIT_WORKERS,    default=4"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Session SessionConfig
	Github  GithubConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=ecommerce"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SessionConfig struct {
	CookieName   string        `env:"SESSION_COOKIE_NAME,   default=session"`
	Lifetime     time.Duration `env:"SESSION_LIFETIME,      default=24h"`
	IdleTimeout  time.Duration `env:"SESSION_IDLE_TIMEOUT"`
	SecureCookie bool          `env:"SESSION_SECURE_COOKIE, default=false"`
}

type GithubConfig struct {
	ClientID        string        `env:"GITHUB_CLIENT_ID"`
	ClientSecret    string        `env:"GITHUB_CLIENT_SECRET"`
	CallbackURL     string        `env:"GITHUB_CALLBACK_URL,     default=http://localhost:8080/api/sessions/githubcallback"`
	SuccessRedirect string        `env:"GITHUB_SUCCESS_REDIRECT, default=/"`
	FailureRedirect string        `env:"GITHUB_FAILURE_REDIRECT, default=/login"`
	StateSecret     string        `env:"OAUTH_STATE_SECRET"`
	StateTTL        time.Duration `env:"OAUTH_STATE_TTL,         default=10m"`
}

// Enabled reports whether GitHub login can be offered.
func (g GithubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate reports settings that would let the service start in an unusable
// or unsafe state.
func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.Github.Enabled() && c.Github.StateSecret == "" {
		errs = append(errs, errors.New("OAUTH_STATE_SECRET is required when GitHub login is enabled"))
	}
	if !c.IsDevelopment() && !c.Session.SecureCookie {
		errs = append(errs, errors.New("SESSION_SECURE_COOKIE must be true outside development"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
