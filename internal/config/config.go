// Package config loads scriptbridge settings from defaults, an optional
// scriptbridge.yaml and SCRIPTBRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configFileName = "scriptbridge"
	configFileType = "yaml"
	envPrefix      = "SCRIPTBRIDGE"
)

// Backends accepted by the backend key.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config keys.
const (
	KeyBackend         = "backend"
	KeyRedisAddr       = "redis.addr"
	KeyRedisPrefix     = "redis.prefix"
	KeySQLitePath      = "sqlite.path"
	KeyScriptsLocation = "scripts_location"
	KeyModulesDir      = "modules_dir"
	KeyHandlersDir     = "handlers_dir"
	KeyOntologyFile    = "ontology_file"
	KeyACLFile         = "acl_file"
	KeySeedFile        = "seed_file"
	KeyFTQueryURL      = "ft_query_service_url"
	KeySysTicket       = "sys_ticket"
	KeyLogLevel        = "log_level"
	KeyListen          = "listen"
	KeyLockTTL         = "lock_ttl"
)

// RedisConfig selects the redis server and key namespace.
type RedisConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

// SQLiteConfig locates the database file.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// Config is the decoded configuration.
type Config struct {
	Backend         string        `mapstructure:"backend"`
	Redis           RedisConfig   `mapstructure:"redis"`
	SQLite          SQLiteConfig  `mapstructure:"sqlite"`
	ScriptsLocation []string      `mapstructure:"scripts_location"`
	ModulesDir      string        `mapstructure:"modules_dir"`
	HandlersDir     string        `mapstructure:"handlers_dir"`
	OntologyFile    string        `mapstructure:"ontology_file"`
	ACLFile         string        `mapstructure:"acl_file"`
	SeedFile        string        `mapstructure:"seed_file"`
	FTQueryURL      string        `mapstructure:"ft_query_service_url"`
	SysTicket       string        `mapstructure:"sys_ticket"`
	LogLevel        string        `mapstructure:"log_level"`
	Listen          string        `mapstructure:"listen"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyBackend, BackendMemory)
	v.SetDefault(KeyRedisAddr, "localhost:6379")
	v.SetDefault(KeyRedisPrefix, "scriptbridge:")
	v.SetDefault(KeySQLitePath, "scriptbridge.db")
	v.SetDefault(KeyScriptsLocation, []string{"./public/js/common", "./public/js/server"})
	v.SetDefault(KeyModulesDir, "./public/modules")
	v.SetDefault(KeyHandlersDir, "./public/handlers")
	v.SetDefault(KeyOntologyFile, "")
	v.SetDefault(KeyACLFile, "")
	v.SetDefault(KeySeedFile, "")
	v.SetDefault(KeyFTQueryURL, "")
	v.SetDefault(KeySysTicket, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyListen, ":8080")
	v.SetDefault(KeyLockTTL, 30*time.Second)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration. An explicit file must exist; otherwise
// scriptbridge.yaml is looked up in dir and a missing file is not an error.
func Load(v *viper.Viper, dir, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the backend selection.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendMemory, BackendRedis, BackendSQLite)
	}
}
