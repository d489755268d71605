// Package cli builds the skilltierctl command tree and the component wiring
// shared with the server binary.
package cli

import (
	"context"
	"fmt"

	"github.com/okian/skilltier/internal/adapters/notify"
	"github.com/okian/skilltier/internal/adapters/repository"
	"github.com/okian/skilltier/internal/adapters/repository/sqlite"
	service "github.com/okian/skilltier/internal/app"
	"github.com/okian/skilltier/internal/config"
	"github.com/okian/skilltier/pkg/logger"
)

// OpenStore opens the SQLite store at cfg.StorePath, or an in-memory store
// when the path is empty.
func OpenStore(cfg *config.Config) (repository.Store, error) {
	if cfg.StorePath == "" {
		return repository.NewMemoryStore(), nil
	}
	s, err := sqlite.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.StorePath, err)
	}
	return s, nil
}

// NewNotifier builds the notifier selected by cfg.Notifier.
func NewNotifier(cfg *config.Config, l logger.Logger) (notify.Notifier, error) {
	switch cfg.Notifier {
	case config.NotifierSMTP:
		n, err := notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			return nil, fmt.Errorf("smtp notifier: %w", err)
		}
		return n, nil
	default:
		return notify.NewLogNotifier(l), nil
	}
}

// NewService opens the store, builds the notifier and returns an unstarted
// service. Stop closes the store.
func NewService(_ context.Context, cfg *config.Config, l logger.Logger) (*service.Service, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	n, err := NewNotifier(cfg, l)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return service.New(
		service.WithLogger(l),
		service.WithStore(store),
		service.WithNotifier(n),
		service.WithExperienceMultiplier(cfg.ExperienceMultiplier),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithPageSizes(cfg.DefaultPageSize, cfg.MaxPageSize),
	), nil
}
