package config

import (
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from the process environment.
type Config struct {
	Env            string `env:"APP_ENV" env-default:"development" env-description:"production enables Secure cookies"`
	FrontendOrigin string `env:"FRONTEND_ORIGIN" env-description:"extra origin allowed to make credentialed CORS calls"`

	HTTP struct {
		Port              int           `env:"PORT" env-default:"4000"`
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s"`
		WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m"`
		IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m"`
		ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
	}

	// Zendesk holds login fallbacks used when the login body omits a field.
	Zendesk struct {
		Email     string `env:"ZENDESK_EMAIL"`
		Token     string `env:"ZENDESK_TOKEN"`
		Subdomain string `env:"ZENDESK_SUBDOMAIN"`
	}

	Upstream struct {
		Timeout         time.Duration `env:"UPSTREAM_TIMEOUT" env-default:"30s"`
		RateLimitPerMin int           `env:"UPSTREAM_RATE_LIMIT_PER_MIN" env-default:"0" env-description:"0 disables client-side rate limiting"`
		MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" env-default:"33554432"`
	}

	Session struct {
		TTL           time.Duration `env:"SESSION_TTL" env-default:"8h"`
		SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" env-default:"10m"`
	}

	Repository struct {
		Type      string `env:"REPOSITORY_TYPE" env-default:"memory"`
		SQLiteDSN string `env:"SQLITE_DSN" env-default:"sessions.db"`
	}

	Log struct {
		Level  string `env:"LOG_LEVEL" env-default:"info"`
		Format string `env:"LOG_FORMAT" env-default:"json"`
	}
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowedOrigins returns the local dev origins plus FrontendOrigin, if set.
func (c *Config) AllowedOrigins() []string {
	origins := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	if c.FrontendOrigin != "" {
		origins = append(origins, c.FrontendOrigin)
	}
	return origins
}

// Load reads a fresh Config from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Singleton: Config should only ever be created once.
var instance *Config

var once sync.Once

// GetConfig returns pointer to Config.
func GetConfig() *Config {
	once.Do(func() {
		log.Print("collecting config...")

		cfg, err := Load()
		if err != nil {
			helpText := "Environment variables error:"
			help, descErr := cleanenv.GetDescription(&Config{}, &helpText)
			if descErr != nil {
				log.Fatal(descErr)
			}
			log.Print(help)
			log.Fatal(err)
		}
		instance = cfg
	})
	return instance
}
