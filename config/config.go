// Package config loads the eventcal server configuration from defaults, an
// optional YAML file and EVENTCAL_* environment variables, in that order of
// precedence.
package config

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata" // timezone works without system zoneinfo

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"

	"github.com/bob-jr-kab/eventcal/errors"
)

// EnvPrefix starts every environment variable read by Load.
const EnvPrefix = "EVENTCAL_"

// Stores are the event store backends.
var Stores = []string{"memory", "postgres", "firestore"}

// Config is the eventcal server configuration.
type Config struct {
	// Environment is "production" or "development" and picks the logger.
	Environment string `koanf:"environment"`
	// Addr is the HTTP listen address, eg ":8080".
	Addr        string   `koanf:"addr"`
	CORSOrigins []string `koanf:"cors_origins"`

	// Store is one of Stores.
	Store       string `koanf:"store"`
	DatabaseURL string `koanf:"database_url"`

	FirebaseProjectID  string   `koanf:"firebase_project_id"`
	FirebaseAPIKey     string   `koanf:"firebase_api_key"`
	ServiceAccountFile string   `koanf:"service_account_file"`
	AdminUIDs          []string `koanf:"admin_uids"`

	IdleTimeout time.Duration `koanf:"idle_timeout"`
	// Timezone is the IANA zone calendar days are taken in.
	Timezone string `koanf:"timezone"`
	// SweepSchedule is a cron spec for closing abandoned anonymous sessions,
	// and SweepAfter how long they must have been unused.
	SweepSchedule string        `koanf:"sweep_schedule"`
	SweepAfter    time.Duration `koanf:"sweep_after"`
	CookieSecure  bool          `koanf:"cookie_secure"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Environment:   "development",
		Addr:          ":8080",
		Store:         "memory",
		IdleTimeout:   15 * time.Minute,
		Timezone:      "UTC",
		SweepSchedule: "@every 10m",
		SweepAfter:    time.Hour,
	}
}

// listKeys are split on commas when they come from the environment.
var listKeys = map[string]bool{
	"cors_origins": true,
	"admin_uids":   true,
}

// Load builds a Config by layering defaults, the YAML file at path and the
// environment. An empty path falls back to $EVENTCAL_CONFIG, and no file is
// read when both are empty.
func Load(path string) (*Config, error) {
	const op errors.Op = "config.Load"

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.E(op, errors.Invalid, err)
		}
	}

	// EVENTCAL_IDLE_TIMEOUT -> idle_timeout
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.E(op, errors.Invalid, err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.E(op, errors.Invalid, err)
	}
	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))
	cfg.AdminUIDs = splitList(strings.Join(cfg.AdminUIDs, ","))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	const op errors.Op = "config.Validate"

	if c.Addr == "" {
		return errors.E(op, errors.Invalid, errors.Field("addr"), "addr must not be empty")
	}

	known := false
	for _, s := range Stores {
		if c.Store == s {
			known = true
			break
		}
	}
	if !known {
		return errors.E(op, errors.Invalid, errors.Field("store"),
			errors.Errorf("unknown store %q, want one of %s", c.Store, strings.Join(Stores, ", ")))
	}
	if c.Store == "postgres" && c.DatabaseURL == "" {
		return errors.E(op, errors.Invalid, errors.Field("database_url"), "the postgres store needs database_url")
	}
	if c.IdleTimeout <= 0 {
		return errors.E(op, errors.Invalid, errors.Field("idle_timeout"), "idle_timeout must be positive")
	}
	if _, err := c.Location(); err != nil {
		return errors.E(op, errors.Invalid, errors.Field("timezone"), err)
	}
	if c.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
			return errors.E(op, errors.Invalid, errors.Field("sweep_schedule"), err)
		}
	}
	return nil
}

// AuthEmulatorEnv names the variable that points the hosted sign-in calls at
// a local Firebase Auth emulator.
const AuthEmulatorEnv = "FIREBASE_AUTH_EMULATOR_HOST"

// CheckFirebase reports whether the Firebase settings the server needs are
// present. Accounts always live in Firebase, whatever the store, so this
// applies to store: memory too. Against an emulator the API key may be left
// out. getenv is usually os.Getenv.
func (c *Config) CheckFirebase(getenv func(string) string) error {
	const op errors.Op = "config.CheckFirebase"

	if c.FirebaseProjectID == "" {
		return errors.E(op, errors.Invalid, errors.Field("firebase_project_id"),
			errors.Errorf("firebase_project_id is required for sign-in, even with store %q; for local development set it to any demo id and run the Firebase emulators", c.Store))
	}
	if c.FirebaseAPIKey == "" && getenv(AuthEmulatorEnv) == "" {
		return errors.E(op, errors.Invalid, errors.Field("firebase_api_key"),
			errors.Errorf("firebase_api_key is required unless %s is set", AuthEmulatorEnv))
	}
	return nil
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
