package cmds

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-go-golems/grillo/pkg/directives"
	"github.com/go-go-golems/grillo/pkg/events"
	"github.com/go-go-golems/grillo/pkg/kv"
	"github.com/go-go-golems/grillo/pkg/orchestrator"
	"github.com/go-go-golems/grillo/pkg/sessions"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/factory"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// App wires storage, provider and orchestrator from the loaded configuration.
type App struct {
	Manager      *settings.Manager
	Backend      kv.Store
	Store        *sessions.Store
	Orchestrator *orchestrator.Orchestrator
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".grillo")
	}
	return filepath.Join(dir, "grillo")
}

// OpenBackend opens the persistence medium selected by s.
func OpenBackend(s *settings.StorageSettings) (kv.Store, error) {
	backend := settings.StorageBackendBbolt
	path := ""
	if s != nil {
		if s.Backend != "" {
			backend = s.Backend
		}
		path = s.Path
	}

	switch backend {
	case settings.StorageBackendMemory:
		return kv.NewMemoryStore(), nil
	case settings.StorageBackendSQLite:
		if path == "" {
			path = filepath.Join(configDir(), "sessions.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrap(err, "could not create storage directory")
		}
		return kv.NewSQLiteStore(kv.SQLiteDSNForFile(path))
	case settings.StorageBackendBbolt:
		if path == "" {
			path = filepath.Join(configDir(), "sessions.db")
		}
		return kv.NewBboltStore(path)
	default:
		return nil, errors.Errorf("unknown storage backend %q", backend)
	}
}

func NewApp(sink events.EventSink) (*App, error) {
	manager := settings.NewManager(viper.GetViper(), filepath.Join(configDir(), "config.yaml"))
	s := manager.Current()

	backend, err := OpenBackend(s.Storage)
	if err != nil {
		return nil, err
	}

	workspace := s.Workspace
	if workspace == "" {
		workspace, err = os.Getwd()
		if err != nil {
			_ = backend.Close()
			return nil, errors.Wrap(err, "could not determine workspace")
		}
	}

	prompts, err := orchestrator.NewPrompts(s.Prompts, workspace)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	store := sessions.NewStore(backend)
	orch := orchestrator.New(store,
		func(ctx context.Context) (chat.Client, error) {
			return factory.NewClient(ctx, manager.Current())
		},
		orchestrator.WithSink(sink),
		orchestrator.WithPrompts(prompts),
		orchestrator.WithSettings(manager),
		orchestrator.WithDirectiveProcessor(directives.NewOsProcessor(workspace)),
	)

	log.Debug().
		Str("provider", string(s.Provider)).
		Str("storage", string(s.Storage.Backend)).
		Str("workspace", workspace).
		Msg("initialized grillo")

	return &App{
		Manager:      manager,
		Backend:      backend,
		Store:        store,
		Orchestrator: orch,
	}, nil
}

func (a *App) Client(ctx context.Context) (chat.Client, error) {
	return factory.NewClient(ctx, a.Manager.Current())
}

func (a *App) Close() error {
	return a.Backend.Close()
}
