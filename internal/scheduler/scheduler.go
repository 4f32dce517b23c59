// Package scheduler drives the lifecycle engines across the live position
// set on a configurable cadence.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jeden-/agent-mt5/internal/logger"
)

// Default scheduler settings.
const (
	DefaultTickInterval    = 250 * time.Millisecond
	DefaultCycleInterval   = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxConcurrent   = 8
)

// Config controls the driver tick, the lifecycle cadence, and shutdown.
type Config struct {
	// TickInterval is how often the driver wakes to check task intervals.
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`
	// CycleInterval is the cadence of the position lifecycle task.
	CycleInterval time.Duration `yaml:"cycle_interval" json:"cycle_interval"`
	// ShutdownTimeout bounds the wait for in-flight task runs on Stop.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	// MaxConcurrent caps per-position fan-out within a cycle.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`
}

// DefaultConfig returns the scheduler defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:    DefaultTickInterval,
		CycleInterval:   DefaultCycleInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxConcurrent:   DefaultMaxConcurrent,
	}
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}

	if c.CycleInterval <= 0 {
		c.CycleInterval = DefaultCycleInterval
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}

	return c
}

// task is one unit of periodically dispatched work. A task whose previous
// run is still in flight is skipped until it finishes.
type task struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	lastRun  time.Time
	running  atomic.Bool
}

// Driver wakes on a fixed tick and dispatches due tasks without blocking the
// dispatch loop. Each dispatched run completes independently.
type Driver struct {
	config Config
	logger *logger.Logger

	mu      sync.Mutex
	tasks   []*task
	started bool
	stop    chan struct{}
	done    chan struct{}
	// inflight counts dispatched task runs still executing.
	inflight sync.WaitGroup
}

// NewDriver creates a periodic task driver.
func NewDriver(config Config, log *logger.Logger) *Driver {
	return &Driver{
		config:   config.withDefaults(),
		logger:   log,
		mu:       sync.Mutex{},
		tasks:    nil,
		started:  false,
		stop:     nil,
		done:     nil,
		inflight: sync.WaitGroup{},
	}
}

// AddTask registers a periodic task. Tasks added after Start are picked up
// on the next tick.
func (d *Driver) AddTask(name string, interval time.Duration, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tasks = append(d.tasks, &task{
		name:     name,
		interval: interval,
		fn:       fn,
		lastRun:  time.Time{},
		running:  atomic.Bool{},
	})
}

// Start launches the dispatch loop. A second Start is a no-op.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}

	d.started = true
	d.stop = make(chan struct{})
	d.done = make(chan struct{})

	go d.run(ctx, d.stop, d.done)
}

// Stop requests cooperative shutdown: the dispatch loop stops issuing new
// runs and in-flight runs are awaited up to the shutdown timeout. Returns
// false when the timeout elapsed with runs still in flight.
func (d *Driver) Stop() bool {
	d.mu.Lock()

	if !d.started {
		d.mu.Unlock()

		return true
	}

	d.started = false
	stop := d.stop
	done := d.done
	d.mu.Unlock()

	close(stop)
	<-done

	finished := make(chan struct{})

	go func() {
		d.inflight.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return true
	case <-time.After(d.config.ShutdownTimeout):
		d.logger.Warn("shutdown timeout elapsed with task runs still in flight")

		return false
	}
}

func (d *Driver) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.dispatchDue(ctx, now)
		}
	}
}

func (d *Driver) dispatchDue(ctx context.Context, now time.Time) {
	d.mu.Lock()
	tasks := make([]*task, len(d.tasks))
	copy(tasks, d.tasks)
	d.mu.Unlock()

	for _, t := range tasks {
		if now.Sub(t.lastRun) < t.interval {
			continue
		}

		if !t.running.CompareAndSwap(false, true) {
			// Previous run still in flight.
			continue
		}

		t.lastRun = now

		d.inflight.Add(1)

		go func(t *task) {
			defer d.inflight.Done()
			defer t.running.Store(false)

			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("task panicked", zap.String("task", t.name), zap.Any("panic", r))
				}
			}()

			t.fn(ctx)
		}(t)
	}
}
