package cmd

import (
	"fmt"

	"github.com/bnema/dindex-chat/internal/config"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

const redacted = "********"

type effectiveConfig struct {
	Username string             `toml:"username"`
	Store    effectiveStore     `toml:"store"`
	Listen   effectiveListen    `toml:"listen"`
	Log      effectiveLogConfig `toml:"log"`
}

type effectiveStore struct {
	Drivers []string            `toml:"drivers"`
	TOML    effectivePathConfig `toml:"toml"`
	SQLite  effectivePathConfig `toml:"sqlite"`
	NATS    effectiveNATSConfig `toml:"nats"`
}

type effectivePathConfig struct {
	Path string `toml:"path"`
}

type effectiveNATSConfig struct {
	URL            string `toml:"url"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	Stream         string `toml:"stream"`
	Subject        string `toml:"subject"`
	ConnectTimeout string `toml:"connect_timeout"`
}

type effectiveListen struct {
	PollInterval         string `toml:"poll_interval"`
	MaxConsecutiveFaults int    `toml:"max_consecutive_faults"`
}

type effectiveLogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func newConfigCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := app.cfg.GetString(config.KeyNATSPassword)
			if password != "" {
				password = redacted
			}

			data, err := toml.Marshal(effectiveConfig{
				Username: app.settings.Username,
				Store: effectiveStore{
					Drivers: app.settings.Drivers,
					TOML:    effectivePathConfig{Path: app.cfg.GetString(config.KeyTOMLPath)},
					SQLite:  effectivePathConfig{Path: app.cfg.GetString(config.KeySQLitePath)},
					NATS: effectiveNATSConfig{
						URL:            app.cfg.GetString(config.KeyNATSURL),
						User:           app.cfg.GetString(config.KeyNATSUser),
						Password:       password,
						Stream:         app.cfg.GetString(config.KeyNATSStream),
						Subject:        app.cfg.GetString(config.KeyNATSSubject),
						ConnectTimeout: app.cfg.GetDuration(config.KeyNATSConnectTimeout).String(),
					},
				},
				Listen: effectiveListen{
					PollInterval:         app.settings.PollInterval.String(),
					MaxConsecutiveFaults: app.settings.MaxConsecutiveFaults,
				},
				Log: effectiveLogConfig{
					Level:  app.settings.LogLevel.String(),
					Format: app.settings.LogFormat,
				},
			})
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
