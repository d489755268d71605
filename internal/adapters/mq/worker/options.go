package worker

import (
	"github.com/okian/skilltier/internal/domain/dedupe"
	"github.com/okian/skilltier/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithLogger sets the logger used by the pool and its workers.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithDeduper clears each job's candidate from d once the job finishes.
func WithDeduper(d dedupe.Deduper) Option {
	return func(p *Pool) {
		p.deduper = d
	}
}
