package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jimlind/announcecast/internal/logutils"
)

// Service is anything that must release resources before the process exits.
type Service interface {
	Name() string
	Shutdown(ctx context.Context) error
}

// Manager shuts registered services down on a signal. Services registered
// with RegisterFirst are stopped before the rest are touched.
type Manager struct {
	first    []Service
	services []Service
	timeout  time.Duration
	mu       sync.RWMutex
	signals  []os.Signal
}

func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		timeout: timeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP},
	}
}

func (m *Manager) Register(service Service) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.services = append(m.services, service)
	logutils.Log.WithField("service", service.Name()).Info("Service registered for graceful shutdown")
}

// RegisterFirst registers a service that other services depend on staying
// up while it stops, such as a worker still writing to the store.
func (m *Manager) RegisterFirst(service Service) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.first = append(m.first, service)
	logutils.Log.WithField("service", service.Name()).Info("Service registered for early shutdown")
}

// WaitForShutdown blocks until a termination signal arrives or ctx is done,
// then shuts every service down.
func (m *Manager) WaitForShutdown(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, m.signals...)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logutils.Log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case <-ctx.Done():
		logutils.Log.Info("Context cancelled, shutting down")
	}

	return m.Shutdown()
}

// Shutdown stops the early services, then all others, each group
// concurrently. The whole shutdown waits at most the configured timeout.
func (m *Manager) Shutdown() error {
	logutils.Log.Info("Starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.RLock()
	stages := [][]Service{
		append([]Service(nil), m.first...),
		append([]Service(nil), m.services...),
	}
	m.mu.RUnlock()

	var errs []error
	for _, services := range stages {
		stageErrs, err := m.stopAll(ctx, services)
		if err != nil {
			return err
		}
		errs = append(errs, stageErrs...)
	}

	if len(errs) > 0 {
		logutils.Log.WithField("error_count", len(errs)).Error("Some services failed to shutdown gracefully")
		return errors.Join(errs...)
	}

	logutils.Log.Info("Graceful shutdown completed successfully")
	return nil
}

// stopAll shuts services down concurrently. It returns the services' errors,
// or a timeout error when ctx expires first.
func (m *Manager) stopAll(ctx context.Context, services []Service) ([]error, error) {
	errChan := make(chan error, len(services))
	var wg sync.WaitGroup

	for _, service := range services {
		wg.Add(1)
		go func(svc Service) {
			defer wg.Done()

			log := logutils.Log.WithField("service", svc.Name())
			log.Info("Shutting down service")

			if err := svc.Shutdown(ctx); err != nil {
				log.WithError(err).Error("Error during service shutdown")
				errChan <- fmt.Errorf("service %s shutdown failed: %w", svc.Name(), err)
				return
			}
			log.Info("Service shutdown completed")
		}(service)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logutils.Log.Warn("Shutdown timeout exceeded, forcing shutdown")
		return nil, fmt.Errorf("shutdown timeout exceeded after %s", m.timeout)
	}

	close(errChan)
	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	return errs, nil
}
