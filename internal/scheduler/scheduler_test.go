package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/jeden-/agent-mt5/internal/logger"
)

type DriverTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (suite *DriverTestSuite) SetupTest() {
	suite.ctx = context.Background()
}

func TestDriverSuite(t *testing.T) {
	suite.Run(t, new(DriverTestSuite))
}

func (suite *DriverTestSuite) driver(cfg Config) *Driver {
	return NewDriver(cfg, logger.NewNopLogger())
}

func (suite *DriverTestSuite) TestRunsTaskOnInterval() {
	driver := suite.driver(Config{TickInterval: 10 * time.Millisecond})

	var runs atomic.Int64

	driver.AddTask("count", 10*time.Millisecond, func(_ context.Context) {
		runs.Add(1)
	})

	driver.Start(suite.ctx)
	defer driver.Stop()

	suite.Eventually(func() bool {
		return runs.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func (suite *DriverTestSuite) TestStartIsIdempotent() {
	driver := suite.driver(Config{TickInterval: 10 * time.Millisecond})

	var runs atomic.Int64

	driver.AddTask("count", 10*time.Millisecond, func(_ context.Context) {
		runs.Add(1)
	})

	driver.Start(suite.ctx)
	driver.Start(suite.ctx)
	defer driver.Stop()

	suite.Eventually(func() bool {
		return runs.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)
}

func (suite *DriverTestSuite) TestSkipsOverlappingRuns() {
	driver := suite.driver(Config{TickInterval: 10 * time.Millisecond})

	var (
		mu         sync.Mutex
		concurrent int
		peak       int
	)

	release := make(chan struct{})

	driver.AddTask("slow", 10*time.Millisecond, func(_ context.Context) {
		mu.Lock()
		concurrent++
		if concurrent > peak {
			peak = concurrent
		}
		mu.Unlock()

		<-release

		mu.Lock()
		concurrent--
		mu.Unlock()
	})

	driver.Start(suite.ctx)

	// Give the driver several ticks while the first run is blocked.
	time.Sleep(100 * time.Millisecond)
	close(release)

	driver.Stop()

	mu.Lock()
	defer mu.Unlock()
	suite.Equal(1, peak)
}

func (suite *DriverTestSuite) TestStop_WaitsForInflightRuns() {
	driver := suite.driver(Config{TickInterval: 10 * time.Millisecond, ShutdownTimeout: 2 * time.Second})

	var finished atomic.Bool

	driver.AddTask("slow", 10*time.Millisecond, func(_ context.Context) {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	driver.Start(suite.ctx)
	time.Sleep(30 * time.Millisecond)

	suite.True(driver.Stop())
	suite.True(finished.Load())
}

func (suite *DriverTestSuite) TestStop_TimesOutOnStuckTask() {
	driver := suite.driver(Config{TickInterval: 10 * time.Millisecond, ShutdownTimeout: 50 * time.Millisecond})

	block := make(chan struct{})
	defer close(block)

	started := make(chan struct{}, 1)

	driver.AddTask("stuck", 10*time.Millisecond, func(_ context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
	})

	driver.Start(suite.ctx)
	<-started

	suite.False(driver.Stop())
}

func (suite *DriverTestSuite) TestStop_WithoutStartIsSafe() {
	driver := suite.driver(Config{})
	suite.True(driver.Stop())
}

func (suite *DriverTestSuite) TestRecoversFromPanickingTask() {
	driver := suite.driver(Config{TickInterval: 10 * time.Millisecond})

	var healthyRuns atomic.Int64

	driver.AddTask("panics", 10*time.Millisecond, func(_ context.Context) {
		panic("boom")
	})
	driver.AddTask("healthy", 10*time.Millisecond, func(_ context.Context) {
		healthyRuns.Add(1)
	})

	driver.Start(suite.ctx)
	defer driver.Stop()

	// The panicking task never takes down the driver or its neighbors.
	suite.Eventually(func() bool {
		return healthyRuns.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func (suite *DriverTestSuite) TestConfigWithDefaults() {
	cfg := Config{}.withDefaults()

	suite.Equal(DefaultTickInterval, cfg.TickInterval)
	suite.Equal(DefaultCycleInterval, cfg.CycleInterval)
	suite.Equal(DefaultShutdownTimeout, cfg.ShutdownTimeout)
	suite.Equal(DefaultMaxConcurrent, cfg.MaxConcurrent)

	custom := Config{TickInterval: time.Second, CycleInterval: time.Minute, ShutdownTimeout: time.Second, MaxConcurrent: 2}.withDefaults()
	suite.Equal(time.Second, custom.TickInterval)
	suite.Equal(2, custom.MaxConcurrent)
}
