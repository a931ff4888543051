package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/peterhellberg/duration"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingJWTSecret       = errors.New("auth.jwt_secret is required")
	ErrInvalidQuestionCount   = errors.New("quiz.question_count must be between 1 and 50")
	ErrInvalidQuestionSeconds = errors.New("quiz.question_seconds must be positive")
	ErrInvalidDuration        = errors.New("invalid duration")
	ErrInvalidBcryptCost      = errors.New("auth.bcrypt_cost is out of range")
	ErrInvalidAllowedOrigins  = errors.New("server.allowed_origins must not contain empty entries")
)

const maxQuestionCount = 50

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		SourceURL       string `yaml:"source_url"`
		QuestionCount   int    `yaml:"question_count"`
		QuestionSeconds int    `yaml:"question_seconds"`
		TickInterval    string `yaml:"tick_interval"`
		SourceTimeout   string `yaml:"source_timeout"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret  string `yaml:"jwt_secret"`
		TokenTTL   string `yaml:"token_ttl"`
		BcryptCost int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
}

// Load reads YAML config from path. JWT_SECRET in the environment overrides auth.jwt_secret.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	return cfg, nil
}

// Validate reports the first setting that would stop the service from starting.
// Zero values are allowed wherever a default applies.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Quiz.QuestionCount < 0 || c.Quiz.QuestionCount > maxQuestionCount {
		return ErrInvalidQuestionCount
	}
	if c.Quiz.QuestionSeconds < 0 {
		return ErrInvalidQuestionSeconds
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return ErrInvalidBcryptCost
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "" {
			return ErrInvalidAllowedOrigins
		}
	}
	durations := map[string]string{
		"redis.ttl":           c.Redis.TTL,
		"quiz.tick_interval":  c.Quiz.TickInterval,
		"quiz.source_timeout": c.Quiz.SourceTimeout,
		"auth.token_ttl":      c.Auth.TokenTTL,
	}
	for key, raw := range durations {
		if raw == "" {
			continue
		}
		if _, err := ParseDuration(raw); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidDuration, key, err)
		}
	}
	return nil
}

// ParseDuration accepts Go syntax ("90s") or ISO-8601 ("PT90S", "P30D").
func ParseDuration(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("duration %q must be positive", raw)
		}
		return d, nil
	}
	d, err := duration.Parse(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", raw)
	}
	return d, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
