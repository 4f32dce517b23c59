package adapter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeden-/agent-mt5/internal/logger"
	"github.com/jeden-/agent-mt5/internal/types"
)

// DefaultFlushInterval is the cadence of the background flush when the
// configuration leaves it unset.
const DefaultFlushInterval = 500 * time.Millisecond

// commandExecutor issues one queued command against the venue.
type commandExecutor func(ctx context.Context, cmd types.BatchCommand) error

// Batcher accumulates deferred mutation commands and flushes them on a fixed
// interval. At flush time commands are grouped by kind; modify commands are
// coalesced so only the most recently enqueued payload per ticket survives.
type Batcher struct {
	mu       sync.Mutex
	queue    []types.BatchCommand
	interval time.Duration
	execute  commandExecutor
	logger   *logger.Logger
	started  bool
	stop     chan struct{}
	done     chan struct{}
}

// NewBatcher creates a batcher that hands surviving commands to execute.
func NewBatcher(interval time.Duration, execute commandExecutor, log *logger.Logger) *Batcher {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	return &Batcher{
		mu:       sync.Mutex{},
		queue:    nil,
		interval: interval,
		execute:  execute,
		logger:   log,
		started:  false,
		stop:     nil,
		done:     nil,
	}
}

// Append enqueues a command for the next flush. O(1) under the queue lock.
func (b *Batcher) Append(cmd types.BatchCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue = append(b.queue, cmd)
}

// Len returns the number of commands currently queued.
func (b *Batcher) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.queue)
}

// Start launches the background flush loop. A second Start is a no-op.
func (b *Batcher) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return
	}

	b.started = true
	b.stop = make(chan struct{})
	b.done = make(chan struct{})

	go b.run(ctx, b.stop, b.done)
}

// Stop joins the flush loop and performs one final drain so no queued
// command is lost. Safe to call when the batcher was never started.
func (b *Batcher) Stop(ctx context.Context) {
	b.mu.Lock()

	if !b.started {
		b.mu.Unlock()

		return
	}

	b.started = false
	stop := b.stop
	done := b.done
	b.mu.Unlock()

	close(stop)
	<-done

	b.Flush(ctx)
}

func (b *Batcher) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Flush(ctx)
		}
	}
}

// Flush drains the queue and issues one venue call per surviving command.
// Per-command failures are logged and do not block the remaining commands.
func (b *Batcher) Flush(ctx context.Context) {
	b.mu.Lock()
	batch := b.queue
	b.queue = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	for _, cmd := range coalesce(batch) {
		if err := b.execute(ctx, cmd); err != nil {
			b.logger.Warn("batched command failed",
				zap.String("command_id", cmd.ID),
				zap.String("kind", string(cmd.Kind)),
				zap.Int64("ticket", cmd.Ticket),
				zap.Error(err),
			)
		}
	}
}

// coalesce groups commands by kind and keeps only the latest modify payload
// per ticket, preserving enqueue order among survivors.
func coalesce(batch []types.BatchCommand) []types.BatchCommand {
	latest := make(map[types.BatchCommandKind]map[int64]int, 2)

	for i, cmd := range batch {
		byTicket, ok := latest[cmd.Kind]
		if !ok {
			byTicket = make(map[int64]int)
			latest[cmd.Kind] = byTicket
		}

		byTicket[cmd.Ticket] = i
	}

	out := make([]types.BatchCommand, 0, len(batch))

	for i, cmd := range batch {
		if latest[cmd.Kind][cmd.Ticket] == i {
			out = append(out, cmd)
		}
	}

	return out
}
