// README: Config loader: .env via godotenv, FARECAST_* variables via envconfig, checked with validator.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "FARECAST"

type HTTPConfig struct {
	Addr string `envconfig:"ADDR" default:":8080"`
}

type PredictorConfig struct {
	URL             string        `envconfig:"URL" default:"http://localhost:8000" validate:"required,url"`
	Timeout         time.Duration `envconfig:"TIMEOUT" default:"10s" validate:"gt=0"`
	BreakerFailures uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"BREAKER_COOLDOWN" default:"30s"`
}

type DBConfig struct {
	DSN string `envconfig:"DSN"`
}

type RedisConfig struct {
	Addr       string        `envconfig:"ADDR"`
	GeocodeTTL time.Duration `envconfig:"GEOCODE_TTL" default:"24h"`
}

type NATSConfig struct {
	URL     string `envconfig:"URL"`
	Subject string `envconfig:"SUBJECT" default:"farecast.quotes"`
}

type MapsConfig struct {
	GoogleAPIKey string        `envconfig:"GOOGLE_API_KEY"`
	NominatimURL string        `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org" validate:"omitempty,url"`
	UserAgent    string        `envconfig:"USER_AGENT" default:"farecast/1.0"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"10s" validate:"gt=0"`
	Language     string        `envconfig:"LANGUAGE" default:"en"`
	Region       string        `envconfig:"REGION" default:"us"`
}

type AIConfig struct {
	GeminiKey string `envconfig:"GEMINI_API_KEY"`
	Model     string `envconfig:"MODEL" default:"gemini-2.0-flash"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `envconfig:"IDLE_TTL" default:"30m" validate:"gt=0"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m" validate:"gt=0"`
}

type Config struct {
	Env         string `envconfig:"APP_ENV" default:"development" validate:"oneof=development production test"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	HTTP      HTTPConfig      `envconfig:"HTTP"`
	Predictor PredictorConfig `envconfig:"PREDICTOR"`
	DB        DBConfig        `envconfig:"DB"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	NATS      NATSConfig      `envconfig:"NATS"`
	Maps      MapsConfig      `envconfig:"MAPS"`
	AI        AIConfig        `envconfig:"AI"`
	Session   SessionConfig   `envconfig:"SESSION"`
}

// Load reads .env files (if present) and the process environment.
func Load(envFiles ...string) (Config, error) {
	// Missing .env files are ignored.
	_ = godotenv.Load(envFiles...)
	return FromEnv()
}

// FromEnv reads FARECAST_* variables without touching .env files.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }
