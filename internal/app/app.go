// Package app wires together configuration, the logger, the dataset
// registry, and the other runtime dependencies into a single Deps struct
// that commands receive at runtime.
package app

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/beefcake-data/beefcake/internal/config"
	"github.com/beefcake-data/beefcake/internal/dbpush"
	"github.com/beefcake-data/beefcake/internal/registry"
	"github.com/beefcake-data/beefcake/internal/runcache"
	"github.com/beefcake-data/beefcake/internal/secretstore"
	"github.com/beefcake-data/beefcake/internal/util"
)

// Deps holds all runtime dependencies injected into command Run functions.
type Deps struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Registry    *registry.Registry
	Cache       *runcache.Cache
	Secrets     secretstore.SecretStore
	DBPushers   map[string]dbpush.DBPusher // keyed by driver name, e.g. "postgres"
	logCloser   *os.File
}

// New builds a Deps from resolved config, opening the registry root and
// the log file (creating either on first use).
func New(cfg *config.Config) (*Deps, error) {
	util.Global.Init()

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(cfg.RegistryRoot, logger)
	if err != nil {
		return nil, err
	}

	cache, err := runcache.Open(cfg.RegistryRoot)
	if err != nil {
		return nil, err
	}

	secrets, err := secretstore.OpenFileStore(cfg.RegistryRoot)
	if err != nil {
		return nil, err
	}

	return &Deps{
		Config:    cfg,
		Logger:    logger,
		Registry:  reg,
		Cache:     cache,
		Secrets:   secrets,
		DBPushers: map[string]dbpush.DBPusher{"postgres": dbpush.NewPostgresPusher(secrets)},
		logCloser: logFile,
	}, nil
}

// Close releases the run cache's bbolt handle, the registry, and the log
// file. Safe to call on a nil Deps.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var merr util.MultiError
	if d.Cache != nil {
		merr.Add(d.Cache.Close())
	}
	if d.Registry != nil {
		merr.Add(d.Registry.Close())
	}
	if d.logCloser != nil {
		merr.Add(d.logCloser.Close())
	}
	return merr.Err()
}

func newLogger(cfg *config.Config) (zerolog.Logger, *os.File, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if err := os.MkdirAll(parentDir(cfg.LogPath), 0755); err != nil {
		return zerolog.Logger{}, nil, err
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, f, nil
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
