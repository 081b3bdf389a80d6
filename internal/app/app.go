// Package app assembles the store, validator and managers from a config.
package app

import (
	"fmt"
	"time"

	"github.com/existflow/irontodo/internal/config"
	"github.com/existflow/irontodo/internal/importer"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/projects"
	"github.com/existflow/irontodo/internal/store"
	"github.com/existflow/irontodo/internal/tasks"
	"github.com/existflow/irontodo/internal/validate"
)

// Options overrides pieces of the assembly, mostly for tests
type Options struct {
	Logger   *logger.Logger
	Now      func() time.Time
	OnChange func(model.Change)
}

// App is an initialized engine
type App struct {
	Config   *config.Config
	Store    *store.Store
	Tasks    *tasks.Manager
	Projects *projects.Manager
	Importer *importer.Importer

	log *logger.Logger
}

// Open loads the document under cfg.DataDir and wires the managers over it
func Open(cfg *config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	s := store.New(store.Options{
		Dir:             cfg.DataDir,
		SaveDebounce:    cfg.SaveDebounce,
		BackupInterval:  cfg.BackupInterval,
		BackupRetention: cfg.BackupRetention,
		Logger:          log,
		Now:             opts.Now,
	})
	if err := s.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	v := validate.New()
	a := &App{
		Config: cfg,
		Store:  s,
		Tasks: tasks.New(s, tasks.Options{
			Logger:          log,
			Validator:       v,
			DefaultPriority: model.Priority(cfg.DefaultPriority),
			Now:             opts.Now,
			OnChange:        opts.OnChange,
		}),
		Projects: projects.New(s, projects.Options{
			Logger:    log,
			Validator: v,
			Now:       opts.Now,
			OnChange:  opts.OnChange,
		}),
		log: log,
	}
	a.Importer = importer.New(a.Tasks, a.Projects)
	return a, nil
}

// Close flushes pending writes and stops background work
func (a *App) Close() error {
	if err := a.Store.Destroy(); err != nil {
		a.log.Error("Failed to close store", logger.F("error", err))
		return err
	}
	return nil
}
