package cmd

import (
	"fmt"

	"github.com/bnema/dindex-chat/internal/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type rootFlags struct {
	configFile string
	stores     []string
	logLevel   string
	logFormat  string
}

func (f *rootFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configFile, "config", "", "Config file (default $HOME/.dindex/config.toml)")
	fs.StringArrayVar(&f.stores, "store", nil, "Store driver: memory, toml, sqlite, nats (repeatable; several fan out)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: text, json")
}

// bind lets explicitly set flags override every other configuration source.
func (f *rootFlags) bind(cfg *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"store":      config.KeyStoreDrivers,
		"log-level":  config.KeyLogLevel,
		"log-format": config.KeyLogFormat,
	}

	for flagName, key := range bindings {
		flag := fs.Lookup(flagName)
		if flag == nil {
			return fmt.Errorf("flag --%s is not registered", flagName)
		}
		if err := cfg.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind --%s: %w", flagName, err)
		}
	}

	return nil
}
