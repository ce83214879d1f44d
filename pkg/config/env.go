package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DBDriver names a database/sql driver this repository layer supports.
type DBDriver string

const (
	DriverSQLite   DBDriver = "sqlite3"
	DriverPostgres DBDriver = "postgres"
	DriverMySQL    DBDriver = "mysql"
)

// Settings holds every environment-derived setting the pipeline needs:
// the LLM endpoint/credentials, the repository DSN, and the rate-limit
// and server knobs that aren't part of the explicit style/limits
// registries. Loaded once at process start and passed down explicitly,
// the same "load once, inject everywhere" idiom used throughout
// pkg/config.
type Settings struct {
	LLMAPIKey    string `yaml:"llm_api_key"`
	LLMBaseURL   string `yaml:"llm_base_url"`
	LLMModel     string `yaml:"llm_model"`

	DBDriver DBDriver `yaml:"db_driver"`
	DBDSN    string   `yaml:"db_dsn"`

	RateLimitRPM   int `yaml:"rate_limit_rpm"`
	RateLimitDaily int `yaml:"rate_limit_daily"`

	ListenAddr string `yaml:"listen_addr"`
}

// SetDefaults fills in the process defaults the Config types
// apply via a SetDefaults() method before Validate().
func (s *Settings) SetDefaults() {
	if s.DBDriver == "" {
		s.DBDriver = DriverSQLite
	}
	if s.DBDSN == "" && s.DBDriver == DriverSQLite {
		s.DBDSN = "repurpose.db"
	}
	if s.RateLimitRPM == 0 {
		s.RateLimitRPM = 10
	}
	if s.RateLimitDaily == 0 {
		s.RateLimitDaily = 250
	}
	if s.ListenAddr == "" {
		s.ListenAddr = ":8080"
	}
}

// Validate checks the settings that, if wrong, would fail loudly and
// late instead of at startup.
func (s *Settings) Validate() error {
	if s.LLMAPIKey == "" {
		return fmt.Errorf("config: llm_api_key is required (set LLM_API_KEY)")
	}
	switch s.DBDriver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("config: unsupported db_driver %q", s.DBDriver)
	}
	if s.DBDSN == "" {
		return fmt.Errorf("config: db_dsn is required")
	}
	if s.RateLimitRPM <= 0 {
		return fmt.Errorf("config: rate_limit_rpm must be positive")
	}
	if s.RateLimitDaily <= 0 {
		return fmt.Errorf("config: rate_limit_daily must be positive")
	}
	return nil
}

// LoadOptions controls Load's file/env layering.
type LoadOptions struct {
	// DotEnvPath is an optional .env file loaded before the process
	// environment is read. Missing file is not an error.
	DotEnvPath string

	// ConfigPath is an optional YAML file layered under the
	// environment-derived values (file < env precedence).
	ConfigPath string
}

// Load builds a Settings by layering, lowest precedence first: an
// optional YAML config file, then process/.env environment variables.
// Only the "file" and "confmap" koanf providers are used here — the
// consul/etcd/zookeeper providers back distributed config for
// a clustered fleet, which this single-process pipeline has no
// component to exercise (see DESIGN.md).
func Load(opts LoadOptions) (*Settings, error) {
	if opts.DotEnvPath != "" {
		if err := godotenv.Load(opts.DotEnvPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: loading %s: %w", opts.DotEnvPath, err)
		}
	}

	k := koanf.New(".")

	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			if err := k.Load(file.Provider(opts.ConfigPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: loading %s: %w", opts.ConfigPath, err)
			}
		}
	}

	envMap := envOverlay()
	if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
		return nil, fmt.Errorf("config: applying environment overlay: %w", err)
	}

	settings := &Settings{}
	if err := k.UnmarshalWithConf("", settings, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("config: unmarshalling settings: %w", err)
	}

	settings.SetDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// envOverlay maps the process environment onto Settings' yaml keys.
// Only the recognized LLM_* and REPURPOSE_* variables below are
// consumed; anything else in os.Environ is ignored.
func envOverlay() map[string]interface{} {
	m := map[string]interface{}{}
	set := func(key, envVar string) {
		if v, ok := os.LookupEnv(envVar); ok {
			m[key] = v
		}
	}
	set("llm_api_key", "LLM_API_KEY")
	set("llm_base_url", "LLM_BASE_URL")
	set("llm_model", "LLM_MODEL")
	set("db_driver", "REPURPOSE_DB_DRIVER")
	set("db_dsn", "REPURPOSE_DB_DSN")
	set("listen_addr", "REPURPOSE_LISTEN_ADDR")

	if v, ok := os.LookupEnv("REPURPOSE_RATE_LIMIT_RPM"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			m["rate_limit_rpm"] = n
		}
	}
	if v, ok := os.LookupEnv("REPURPOSE_RATE_LIMIT_DAILY"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			m["rate_limit_daily"] = n
		}
	}
	return m
}
