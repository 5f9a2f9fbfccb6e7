package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	presencerender "github.com/bnema/dindex-chat/internal/adapters/render/presence"
	"github.com/bnema/dindex-chat/internal/adapters/store/fanout"
	"github.com/bnema/dindex-chat/internal/adapters/store/memory"
	natsstore "github.com/bnema/dindex-chat/internal/adapters/store/nats"
	sqlitestore "github.com/bnema/dindex-chat/internal/adapters/store/sqlite"
	tomlstore "github.com/bnema/dindex-chat/internal/adapters/store/toml"
	"github.com/bnema/dindex-chat/internal/application"
	"github.com/bnema/dindex-chat/internal/config"
	"github.com/bnema/dindex-chat/internal/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	cfg          *viper.Viper
	settings     config.Settings
	logger       *slog.Logger
	clock        ports.Clock
	userRenderer func([]application.ActiveUser, presencerender.RenderOptions) (string, error)
	// openStore is replaced in tests.
	openStore func(ctx context.Context) (ports.RecordStore, error)
}

func newApp() *app {
	a := &app{
		clock:        ports.SystemClock{},
		userRenderer: presencerender.Render,
		logger:       slog.Default(),
	}
	a.openStore = a.openConfiguredStore

	return a
}

func (a *app) wire(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: flags.configFile})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := flags.bind(cfg, cmd.Flags()); err != nil {
		return err
	}

	settings, err := config.Resolve(cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.settings = settings
	a.logger = newLogger(cmd.ErrOrStderr(), settings)

	return nil
}

func newLogger(w io.Writer, settings config.Settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: settings.LogLevel}

	var handler slog.Handler
	if settings.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// openConfiguredStore opens every configured driver. Several drivers are
// combined into one fanout store.
func (a *app) openConfiguredStore(ctx context.Context) (ports.RecordStore, error) {
	backends := make([]fanout.Backend, 0, len(a.settings.Drivers))
	for _, driver := range a.settings.Drivers {
		store, err := a.openDriver(ctx, driver)
		if err != nil {
			for _, opened := range backends {
				_ = opened.Store.Close()
			}
			return nil, fmt.Errorf("open %s store: %w", driver, err)
		}
		backends = append(backends, fanout.Backend{Name: driver, Store: store})
	}

	if len(backends) == 1 {
		return backends[0].Store, nil
	}

	return fanout.NewStoreChecked(backends...)
}

func (a *app) openDriver(ctx context.Context, driver string) (ports.RecordStore, error) {
	switch driver {
	case "memory":
		return memory.NewStore(), nil
	case "toml":
		return tomlstore.NewStore(a.cfg)
	case "sqlite":
		return sqlitestore.NewStore(a.cfg, a.logger)
	case "nats":
		natsCfg := natsstore.ConfigFromViper(a.cfg)
		ctx, cancel := context.WithTimeout(ctx, natsCfg.ConnectTimeout+time.Second)
		defer cancel()
		return natsstore.Connect(ctx, natsCfg, a.logger)
	default:
		return nil, fmt.Errorf("%w %q", config.ErrUnknownDriver, driver)
	}
}

func (a *app) sessionConfig(pollInterval time.Duration) application.SessionConfig {
	if pollInterval <= 0 {
		pollInterval = a.settings.PollInterval
	}

	return application.SessionConfig{
		Username: a.settings.Username,
		Listen: application.ListenConfig{
			PollInterval:         pollInterval,
			MaxConsecutiveFaults: a.settings.MaxConsecutiveFaults,
		},
	}
}

func closeStore(store ports.RecordStore, logger *slog.Logger) {
	if err := store.Close(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("close record store", "error", err)
	}
}
