// Package bootstrap provides application lifecycle helpers.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned by Lock when another process holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// App manages application lifecycle with graceful shutdown support.
type App struct {
	mu    sync.Mutex
	hooks []func(ctx context.Context) error
}

// New creates a new App.
func New() *App {
	return &App{}
}

// AddShutdownHook registers a function to call during graceful shutdown.
// Hooks run in reverse order (LIFO). Thread-safe.
func (a *App) AddShutdownHook(fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Lock takes an exclusive lock on path so only one process serves the same
// database. The lock is released by a shutdown hook.
func (a *App) Lock(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
		}
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: %w", path, ErrAlreadyRunning)
	}

	a.AddShutdownHook(func(ctx context.Context) error {
		if err := lock.Unlock(); err != nil {
			return fmt.Errorf("release lock %s: %w", path, err)
		}
		return nil
	})
	return nil
}

// Run sets up signal handling and executes the run function.
// On interrupt or SIGTERM it calls registered shutdown hooks in LIFO order.
// If run returns before a signal, hooks still run and run's error wins.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown(context.Background())
	case err := <-errCh:
		if shutdownErr := a.Shutdown(context.Background()); shutdownErr != nil {
			return errors.Join(err, shutdownErr)
		}
		return err
	}
}

// Shutdown runs the registered hooks in LIFO order and forgets them, so a
// second call is a no-op. Callers use it when setup fails before Run.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	hooks := a.hooks
	a.hooks = nil
	a.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
