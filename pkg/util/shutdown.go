package util

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ShutdownManager stops the engine's components in a controlled order.
// Components register in startup order and are stopped in reverse, so
// the consumers stop before the stores and sinks they feed.
type ShutdownManager struct {
	mu      sync.Mutex
	stops   []stopFunc
	logger  *logrus.Logger
	timeout time.Duration
}

type stopFunc struct {
	name string
	stop func(context.Context) error
}

// NewShutdownManager creates a shutdown manager with the given overall
// timeout. A non-positive timeout falls back to 30 seconds.
func NewShutdownManager(logger *logrus.Logger, timeout time.Duration) *ShutdownManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:  logger,
		timeout: timeout,
	}
}

// Register adds a named stop function. Registration order determines
// shutdown order: last registered stops first.
func (sm *ShutdownManager) Register(name string, stop func(context.Context) error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.stops = append(sm.stops, stopFunc{name: name, stop: stop})
	sm.logger.WithField("component", name).Debug("Registered component for shutdown")
}

// RegisterCloser registers an io.Closer under the given name.
func (sm *ShutdownManager) RegisterCloser(name string, closer io.Closer) {
	sm.Register(name, func(context.Context) error {
		return closer.Close()
	})
}

// Shutdown stops every registered component in reverse registration
// order. All components share one deadline; a component that fails or
// panics is logged and the remainder still stop.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	stops := make([]stopFunc, len(sm.stops))
	copy(stops, sm.stops)
	sm.mu.Unlock()

	sm.logger.WithField("component_count", len(stops)).Info("Starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, sm.timeout)
	defer cancel()

	var failed []string
	for i := len(stops) - 1; i >= 0; i-- {
		s := stops[i]
		if err := sm.stopOne(shutdownCtx, s); err != nil {
			sm.logger.WithError(err).WithField("component", s.name).Error("Error stopping component")
			failed = append(failed, s.name)
		} else {
			sm.logger.WithField("component", s.name).Debug("Component stopped")
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("shutdown failed for components: %v", failed)
	}

	sm.logger.Info("Graceful shutdown completed")
	return nil
}

func (sm *ShutdownManager) stopOne(ctx context.Context, s stopFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic stopping %s: %v", s.name, r)
		}
	}()

	done := make(chan error, 1)
	go func() {
		done <- s.stop(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("timeout stopping %s", s.name)
	}
}
