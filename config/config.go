// Package config holds the client configuration, read from command-line
// flags and EXAMCODE_* environment variables through viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. EXAMCODE_SERVER.
const EnvPrefix = "EXAMCODE"

// Keys shared by flags, environment variables and Config.
const (
	KeyServer       = "server"
	KeyAPIPath      = "api-path"
	KeyTimeout      = "timeout"
	KeySessionStore = "session-store"
	KeySessionFile  = "session-file"
	KeyLogLevel     = "log-level"
	KeyLogFormat    = "log-format"
)

// Session store kinds.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
)

// Defaults.
const (
	DefaultServer    = "http://localhost:8080"
	DefaultAPIPath   = "/api/2.0"
	DefaultTimeout   = 10 * time.Second
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config is the resolved client configuration.
type Config struct {
	Server       string
	APIPath      string
	Timeout      time.Duration
	SessionStore string
	SessionFile  string
	LogLevel     string
	LogFormat    string
}

// DefaultSessionFile returns the session database path under the user cache
// directory, falling back to the working directory.
func DefaultSessionFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "examcode", "session.db")
}

// SetDefaults registers default values on v and enables EXAMCODE_*
// environment overrides.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServer, DefaultServer)
	v.SetDefault(KeyAPIPath, DefaultAPIPath)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeySessionStore, StoreFile)
	v.SetDefault(KeySessionFile, DefaultSessionFile())
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Server:       strings.TrimRight(v.GetString(KeyServer), "/"),
		APIPath:      v.GetString(KeyAPIPath),
		Timeout:      v.GetDuration(KeyTimeout),
		SessionStore: strings.ToLower(v.GetString(KeySessionStore)),
		SessionFile:  v.GetString(KeySessionFile),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Server)
	switch {
	case c.Server == "":
		errs = append(errs, errors.New("server must be configured"))
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid server URL: %w", err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("server must be an absolute http(s) URL, got %q", c.Server))
	}

	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}

	switch c.SessionStore {
	case StoreMemory:
	case StoreFile:
		if c.SessionFile == "" {
			errs = append(errs, errors.New("session-file must be set for the file session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("session-store must be %q or %q, got %q", StoreFile, StoreMemory, c.SessionStore))
	}

	return errors.Join(errs...)
}

// BaseURL is the API root: server joined with the API path.
func (c Config) BaseURL() string {
	p := strings.Trim(c.APIPath, "/")
	if p == "" {
		return c.Server
	}
	return c.Server + "/" + p
}
