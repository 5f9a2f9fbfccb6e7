// Package config layers defaults, config files, and DINDEX_* environment
// variables into one viper instance.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyUsername             = "username"
	KeyStoreDrivers         = "store.drivers"
	KeyTOMLPath             = "store.toml.path"
	KeySQLitePath           = "store.sqlite.path"
	KeyNATSURL              = "store.nats.url"
	KeyNATSUser             = "store.nats.user"
	KeyNATSPassword         = "store.nats.password"
	KeyNATSStream           = "store.nats.stream"
	KeyNATSSubject          = "store.nats.subject"
	KeyNATSConnectTimeout   = "store.nats.connect_timeout"
	KeyPollInterval         = "listen.poll_interval"
	KeyMaxConsecutiveFaults = "listen.max_consecutive_faults"
	KeyLogLevel             = "log.level"
	KeyLogFormat            = "log.format"

	EnvPrefix       = "DINDEX"
	DefaultUsername = "Unknown Username"

	configType = "toml"
	configFile = "config.toml"
	systemDir  = "/etc/dindex"
	userDir    = ".dindex"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownDriver = errors.New("unknown store driver")

	knownDrivers = []string{"memory", "toml", "sqlite", "nats"}
	logFormats   = []string{"text", "json"}
)

type LoadOptions struct {
	// ConfigFile replaces the user config file and must exist.
	ConfigFile string
	HomeDir    string
	SystemDir  string
}

// Load builds the effective configuration. Later sources override
// earlier ones: defaults, the system file, the user file, environment.
func Load(opts LoadOptions) (*viper.Viper, error) {
	if opts.HomeDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		opts.HomeDir = homeDir
	}
	if opts.SystemDir == "" {
		opts.SystemDir = systemDir
	}

	cfg := viper.New()
	cfg.SetConfigType(configType)
	setDefaults(cfg, opts.HomeDir)

	if err := mergeFile(cfg, filepath.Join(opts.SystemDir, configFile), false); err != nil {
		return nil, err
	}

	userFile := filepath.Join(opts.HomeDir, userDir, configFile)
	required := false
	if opts.ConfigFile != "" {
		userFile = opts.ConfigFile
		required = true
	}
	if err := mergeFile(cfg, userFile, required); err != nil {
		return nil, err
	}

	cfg.SetEnvPrefix(EnvPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	return cfg, nil
}

func setDefaults(cfg *viper.Viper, homeDir string) {
	cfg.SetDefault(KeyUsername, "")
	cfg.SetDefault(KeyStoreDrivers, []string{"toml"})
	cfg.SetDefault(KeyTOMLPath, filepath.Join(homeDir, userDir, "records.toml"))
	cfg.SetDefault(KeySQLitePath, filepath.Join(homeDir, userDir, "records.db"))
	cfg.SetDefault(KeyNATSURL, "nats://localhost:4222")
	cfg.SetDefault(KeyNATSUser, "")
	cfg.SetDefault(KeyNATSPassword, "")
	cfg.SetDefault(KeyNATSStream, "DINDEX_RECORDS")
	cfg.SetDefault(KeyNATSSubject, "dindex.records")
	cfg.SetDefault(KeyNATSConnectTimeout, 5*time.Second)
	cfg.SetDefault(KeyPollInterval, 250*time.Millisecond)
	cfg.SetDefault(KeyMaxConsecutiveFaults, 3)
	cfg.SetDefault(KeyLogLevel, "warn")
	cfg.SetDefault(KeyLogFormat, "text")
}

func mergeFile(cfg *viper.Viper, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := cfg.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	return nil
}

// Settings is the typed view the CLI runs on.
type Settings struct {
	Username             string
	Drivers              []string
	PollInterval         time.Duration
	MaxConsecutiveFaults int
	LogLevel             slog.Level
	LogFormat            string
}

func Resolve(cfg *viper.Viper) (Settings, error) {
	settings := Settings{
		Username:             ResolveUsername(cfg),
		Drivers:              Drivers(cfg),
		PollInterval:         cfg.GetDuration(KeyPollInterval),
		MaxConsecutiveFaults: cfg.GetInt(KeyMaxConsecutiveFaults),
		LogFormat:            strings.ToLower(cfg.GetString(KeyLogFormat)),
	}

	if err := settings.LogLevel.UnmarshalText([]byte(cfg.GetString(KeyLogLevel))); err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, KeyLogLevel, err)
	}
	if !slices.Contains(logFormats, settings.LogFormat) {
		return Settings{}, fmt.Errorf("%w: %s must be one of %s", ErrInvalidConfig, KeyLogFormat, strings.Join(logFormats, ", "))
	}
	if len(settings.Drivers) == 0 {
		return Settings{}, fmt.Errorf("%w: %s is empty", ErrInvalidConfig, KeyStoreDrivers)
	}
	for _, driver := range settings.Drivers {
		if !slices.Contains(knownDrivers, driver) {
			return Settings{}, fmt.Errorf("%w: %w %q (known: %s)", ErrInvalidConfig, ErrUnknownDriver, driver, strings.Join(knownDrivers, ", "))
		}
	}
	if settings.PollInterval <= 0 {
		return Settings{}, fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyPollInterval)
	}
	if settings.MaxConsecutiveFaults <= 0 {
		return Settings{}, fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyMaxConsecutiveFaults)
	}

	return settings, nil
}

// ResolveUsername picks the chat identity: the configured username,
// then $USER, then DefaultUsername.
func ResolveUsername(cfg *viper.Viper) string {
	if username := strings.TrimSpace(cfg.GetString(KeyUsername)); username != "" {
		return username
	}
	if username := strings.TrimSpace(os.Getenv("USER")); username != "" {
		return username
	}

	return DefaultUsername
}

// Drivers accepts both a TOML array and a comma or space separated
// string, the form environment variables arrive in.
func Drivers(cfg *viper.Viper) []string {
	var drivers []string
	for _, entry := range cfg.GetStringSlice(KeyStoreDrivers) {
		for _, driver := range strings.FieldsFunc(entry, func(r rune) bool { return r == ',' || r == ' ' }) {
			driver = strings.ToLower(driver)
			if !slices.Contains(drivers, driver) {
				drivers = append(drivers, driver)
			}
		}
	}

	return drivers
}
