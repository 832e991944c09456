// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"

	"github.com/evstack/atlas-sub000/internal/apperror"
	"github.com/evstack/atlas-sub000/internal/config"
	"github.com/evstack/atlas-sub000/internal/di"
	"github.com/evstack/atlas-sub000/internal/logger"
	"github.com/evstack/atlas-sub000/internal/prefs"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Prefs() *prefs.Store
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Stopper is implemented by modules owning background work.
type Stopper interface {
	Shutdown(context.Context) error
}

type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	prefs     *prefs.Store
	container di.Container
	started   []Module
}

// New opens the client-local preference store and registers the global
// services every module may depend on.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	store, err := prefs.Open(cfg.UI.PrefsPath)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodePrefsError, cfg.UI.PrefsPath)
	}

	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("prefs", store)

	return &app{
		config:    cfg,
		logger:    log,
		prefs:     store,
		container: container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Prefs() *prefs.Store {
	return a.prefs
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts modules in order, stopping at the first failure.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
		a.started = append(a.started, m)
	}
	return nil
}

// ShutdownModules stops started modules in reverse order.
func (a *app) ShutdownModules(ctx context.Context) error {
	var errs []error
	for i := len(a.started) - 1; i >= 0; i-- {
		if s, ok := a.started[i].(Stopper); ok {
			if err := s.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	a.started = nil
	return errors.Join(errs...)
}

// Close releases shared resources.
func (a *app) Close() error {
	return a.prefs.Close()
}
