// Package health aggregates component checkers into a single service status.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Checker is implemented by component-level checkers such as the store.
type Checker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// HealthPinger is implemented by components that can answer a direct probe.
// HealthPing returns nil when the component is reachable.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// Service rolls component checkers up into one cached flag.
type Service struct {
	healthy atomic.Bool
	deps    []Checker
	log     zerolog.Logger
}

func NewService(log zerolog.Logger, deps ...Checker) *Service {
	return &Service{deps: deps, log: log}
}

// IsHealthy returns the cached service health.
func (s *Service) IsHealthy() bool { return s.healthy.Load() }

// Components reports the last known state of every dependency by name.
func (s *Service) Components() map[string]bool {
	out := make(map[string]bool, len(s.deps))
	for _, c := range s.deps {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

// Evaluate recomputes the service flag from its dependencies and logs transitions.
func (s *Service) Evaluate() bool {
	all := true
	for _, c := range s.deps {
		if !c.IsHealthy() {
			all = false
			break
		}
	}
	if prev := s.healthy.Swap(all); prev != all {
		if all {
			s.log.Info().Msg("service health: UP")
		} else {
			s.log.Error().Interface("components", s.Components()).Msg("service health: DOWN")
		}
	}
	return all
}

// Start re-evaluates dependency health every interval until ctx is done.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evaluate()
		}
	}
}
