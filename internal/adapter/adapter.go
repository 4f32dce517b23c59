// Package adapter implements the execution adapter: the single point of
// contact between the lifecycle engines and the remote venue. Reads are
// served through a time-bounded cache with single-flight refresh; stop/target
// modifications can be routed through a coalescing command batcher.
package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeden-/agent-mt5/internal/logger"
	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/internal/venue"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// Default adapter settings.
const (
	DefaultCallTimeout   = 10 * time.Second
	DefaultRatePerSecond = 10
	DefaultRateBurst     = 5
)

// Config controls caching, batching, and venue call pacing.
type Config struct {
	TTL TTLConfig `yaml:"ttl" json:"ttl"`
	// BatchModifies routes ModifyPosition through the command batcher
	// instead of executing immediately.
	BatchModifies bool          `yaml:"batch_modifies" json:"batch_modifies"`
	FlushInterval time.Duration `yaml:"flush_interval" json:"flush_interval"`
	// CallTimeout bounds every venue call issued by the adapter.
	CallTimeout   time.Duration `yaml:"call_timeout" json:"call_timeout"`
	RatePerSecond float64       `yaml:"rate_per_second" json:"rate_per_second"`
	RateBurst     int           `yaml:"rate_burst" json:"rate_burst"`
}

// DefaultConfig returns an adapter configuration with batching enabled.
func DefaultConfig() Config {
	return Config{
		TTL:           DefaultTTLConfig(),
		BatchModifies: true,
		FlushInterval: DefaultFlushInterval,
		CallTimeout:   DefaultCallTimeout,
		RatePerSecond: DefaultRatePerSecond,
		RateBurst:     DefaultRateBurst,
	}
}

// Adapter mediates all venue access for the lifecycle engines.
type Adapter struct {
	venue   venue.Venue
	cache   *Cache
	batcher *Batcher
	limiter *rate.Limiter
	logger  *logger.Logger
	config  Config
}

// NewAdapter creates an adapter over the given venue connector.
func NewAdapter(v venue.Venue, config Config, log *logger.Logger) *Adapter {
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultCallTimeout
	}

	if config.RatePerSecond <= 0 {
		config.RatePerSecond = DefaultRatePerSecond
	}

	if config.RateBurst <= 0 {
		config.RateBurst = DefaultRateBurst
	}

	a := &Adapter{
		venue:   v,
		cache:   NewCache(config.TTL),
		batcher: nil,
		limiter: rate.NewLimiter(rate.Limit(config.RatePerSecond), config.RateBurst),
		logger:  log,
		config:  config,
	}

	a.batcher = NewBatcher(config.FlushInterval, a.executeBatchCommand, log)

	return a
}

// StartBatching launches the background flush loop. Idempotent.
func (a *Adapter) StartBatching(ctx context.Context) {
	a.batcher.Start(ctx)
}

// StopBatching joins the flush loop and drains the queue one final time.
func (a *Adapter) StopBatching(ctx context.Context) {
	a.batcher.Stop(ctx)
}

// Batcher exposes the command batcher for observability.
func (a *Adapter) Batcher() *Batcher {
	return a.batcher
}

// EnsureConnected probes the venue before a sequence of calls. It returns an
// ErrCodeVenueUnreachable error when the probe fails. The account entry is
// invalidated first so a cached snapshot cannot satisfy the probe.
func (a *Adapter) EnsureConnected(ctx context.Context) error {
	a.cache.Invalidate(CacheKindAccount, "")

	if _, err := a.GetAccount(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeVenueUnreachable, "venue connectivity probe failed", err)
	}

	return nil
}

// GetQuote returns the current quote for a symbol, served from cache when fresh.
func (a *Adapter) GetQuote(ctx context.Context, symbol string) (types.Quote, error) {
	value, err := a.cache.Get(ctx, CacheKindQuote, symbol, func(ctx context.Context) (any, error) {
		return a.call(ctx, func(ctx context.Context) (any, error) {
			return a.venue.GetQuote(ctx, symbol)
		})
	})
	if err != nil {
		return types.Quote{}, err
	}

	return value.(types.Quote), nil
}

// GetPositions returns all open positions, served from cache when fresh.
func (a *Adapter) GetPositions(ctx context.Context) ([]types.Position, error) {
	value, err := a.cache.Get(ctx, CacheKindPositions, "", func(ctx context.Context) (any, error) {
		return a.call(ctx, func(ctx context.Context) (any, error) {
			return a.venue.GetPositions(ctx)
		})
	})
	if err != nil {
		return nil, err
	}

	return value.([]types.Position), nil
}

// GetPendingOrders returns all resting pending orders, served from cache when fresh.
func (a *Adapter) GetPendingOrders(ctx context.Context) ([]types.PendingOrder, error) {
	value, err := a.cache.Get(ctx, CacheKindOrders, "", func(ctx context.Context) (any, error) {
		return a.call(ctx, func(ctx context.Context) (any, error) {
			return a.venue.GetPendingOrders(ctx)
		})
	})
	if err != nil {
		return nil, err
	}

	return value.([]types.PendingOrder), nil
}

// GetAccount returns the account snapshot, served from cache when fresh.
func (a *Adapter) GetAccount(ctx context.Context) (types.AccountInfo, error) {
	value, err := a.cache.Get(ctx, CacheKindAccount, "", func(ctx context.Context) (any, error) {
		return a.call(ctx, func(ctx context.Context) (any, error) {
			return a.venue.GetAccount(ctx)
		})
	})
	if err != nil {
		return types.AccountInfo{}, err
	}

	return value.(types.AccountInfo), nil
}

// OpenPosition opens a market position and invalidates the position cache.
func (a *Adapter) OpenPosition(ctx context.Context, req venue.OpenRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	value, err := a.call(ctx, func(ctx context.Context) (any, error) {
		return a.venue.OpenPosition(ctx, req)
	})
	if err != nil {
		return 0, err
	}

	a.cache.Invalidate(CacheKindPositions, "")

	return value.(int64), nil
}

// ClosePosition closes a position entirely.
func (a *Adapter) ClosePosition(ctx context.Context, ticket int64) error {
	_, err := a.call(ctx, func(ctx context.Context) (any, error) {
		return nil, a.venue.ClosePosition(ctx, ticket, optional.None[float64]())
	})
	if err != nil {
		return err
	}

	a.cache.Invalidate(CacheKindPositions, "")

	return nil
}

// PartialClose closes part of a position's volume.
func (a *Adapter) PartialClose(ctx context.Context, ticket int64, volume float64) error {
	if volume <= 0 {
		return errors.Newf(errors.ErrCodeInvalidVolume, "partial close volume must be positive, got %f", volume)
	}

	_, err := a.call(ctx, func(ctx context.Context) (any, error) {
		return nil, a.venue.ClosePosition(ctx, ticket, optional.Some(volume))
	})
	if err != nil {
		return err
	}

	a.cache.Invalidate(CacheKindPositions, "")

	return nil
}

// ModifyPosition updates a position's protective levels. When batching is
// enabled the command is queued and coalesced; otherwise it executes
// immediately against the venue.
func (a *Adapter) ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit optional.Option[float64]) error {
	if stopLoss.IsNone() && takeProfit.IsNone() {
		return errors.New(errors.ErrCodeMissingParameter, "modify requires a stop loss or take profit")
	}

	if a.config.BatchModifies {
		a.batcher.Append(types.BatchCommand{
			ID:         uuid.NewString(),
			Kind:       types.BatchCommandKindModifyStops,
			Ticket:     ticket,
			StopLoss:   stopLoss,
			TakeProfit: takeProfit,
			EnqueuedAt: time.Now(),
		})

		return nil
	}

	return a.modifyNow(ctx, ticket, stopLoss, takeProfit)
}

// PlacePendingOrder places a pending order and invalidates the order cache.
func (a *Adapter) PlacePendingOrder(ctx context.Context, req venue.PendingRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	value, err := a.call(ctx, func(ctx context.Context) (any, error) {
		return a.venue.PlacePendingOrder(ctx, req)
	})
	if err != nil {
		return 0, err
	}

	a.cache.Invalidate(CacheKindOrders, "")

	return value.(int64), nil
}

// CancelPendingOrder cancels a resting pending order.
func (a *Adapter) CancelPendingOrder(ctx context.Context, ticket int64) error {
	_, err := a.call(ctx, func(ctx context.Context) (any, error) {
		return nil, a.venue.CancelPendingOrder(ctx, ticket)
	})
	if err != nil {
		return err
	}

	a.cache.Invalidate(CacheKindOrders, "")

	return nil
}

// InvalidateSnapshots drops the position and order cache entries so the next
// read observes fresh venue state.
func (a *Adapter) InvalidateSnapshots() {
	a.cache.Invalidate(CacheKindPositions, "")
	a.cache.Invalidate(CacheKindOrders, "")
}

func (a *Adapter) executeBatchCommand(ctx context.Context, cmd types.BatchCommand) error {
	switch cmd.Kind {
	case types.BatchCommandKindModifyStops:
		return a.modifyNow(ctx, cmd.Ticket, cmd.StopLoss, cmd.TakeProfit)
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown batch command kind %q", cmd.Kind)
	}
}

func (a *Adapter) modifyNow(ctx context.Context, ticket int64, stopLoss, takeProfit optional.Option[float64]) error {
	_, err := a.call(ctx, func(ctx context.Context) (any, error) {
		return nil, a.venue.ModifyPosition(ctx, ticket, stopLoss, takeProfit)
	})
	if err != nil {
		return err
	}

	a.cache.Invalidate(CacheKindPositions, "")

	return nil
}

// call applies the rate limiter and call timeout around one venue call and
// normalizes unclassified failures to ErrCodeVenueUnreachable.
func (a *Adapter) call(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeVenueUnreachable, "rate limiter wait interrupted", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.config.CallTimeout)
	defer cancel()

	value, err := fn(callCtx)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeUnknown {
			a.logger.Debug("unclassified venue error", zap.Error(err))

			return nil, errors.Wrap(errors.ErrCodeVenueUnreachable, "venue call failed", err)
		}

		return nil, err
	}

	return value, nil
}
