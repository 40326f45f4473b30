// Package netmon tracks connectivity to the hosted backend.
//
// Connectivity is derived from periodic gateway health probes, with an
// explicit SetOnline hook for platform signals forwarded by the UI shell.
// An offline→online transition fires the registered callback exactly once
// per transition; the sync processor's own guard makes any extra trigger
// harmless, so at-least-once is all that is promised.
package netmon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"
)

// Prober is the health check the monitor polls, normally the gateway.
type Prober interface {
	Health(ctx context.Context) error
}

type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   *slog.Logger

	online   atomic.Bool
	onOnline func()

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(prober Prober, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// OnOnline registers the reconnect callback. Must be called before Start.
func (m *Monitor) OnOnline(fn func()) {
	m.onOnline = fn
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// SetOnline applies an externally observed connectivity signal, firing the
// reconnect callback on an offline→online edge. Going offline takes no
// further action: in-flight remote calls are left to finish or fail on
// their own.
func (m *Monitor) SetOnline(online bool) {
	m.transition(online)
}

func (m *Monitor) transition(online bool) {
	was := m.online.Swap(online)
	if was == online {
		return
	}
	if online {
		m.logger.Info("connectivity restored")
		if m.onOnline != nil {
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.onOnline()
			}()
		}
	} else {
		m.logger.Info("connectivity lost")
	}
}

// Start launches the probe loop. The first probe runs immediately so the
// agent knows its state before serving requests.
func (m *Monitor) Start(ctx context.Context) {
	m.probe(ctx)
	m.wg.Add(1)
	go m.loop(ctx)
}

// Stop halts the probe loop and waits for it and any in-flight reconnect
// callback. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	if m.prober == nil {
		return
	}
	err := m.prober.Health(ctx)
	if err != nil && m.Online() {
		m.logger.Warn("health probe failed", slog.Any("err", err))
	}
	m.transition(err == nil)
}
