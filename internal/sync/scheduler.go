package sync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carteiralab/carteira/internal/common"
)

// Scheduler runs full refresh cycles on a fixed interval and accepts manual
// triggers. A mutex-guarded running flag guarantees that the periodic loop
// and manual triggers never overlap; the flag is cleared on every exit path.
type Scheduler struct {
	orch     *Orchestrator
	interval time.Duration
	attempts int
	enabled  bool
	logger   *common.Logger

	mu      sync.Mutex
	running bool
	lastRun time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a refresh scheduler from configuration.
func NewScheduler(orch *Orchestrator, cfg *common.SyncConfig, logger *common.Logger) *Scheduler {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 5
	}
	return &Scheduler{
		orch:     orch,
		interval: cfg.GetInterval(),
		attempts: attempts,
		enabled:  cfg.Enabled,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the periodic loop. The first cycle waits a full interval so
// startup latency is not spent refreshing.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.enabled {
		s.logger.Info().Msg("market sync disabled")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(s.interval)
		defer timer.Stop()
		for {
			select {
			case <-timer.C:
				if s.acquire() {
					s.runCycle(ctx)
				}
				timer.Reset(s.interval)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the periodic loop and waits for an in-flight cycle started
// by it to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// Running reports whether a cycle is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// acquire takes the running flag. It fails while another cycle holds it.
func (s *Scheduler) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// release clears the running flag and stamps the cycle end.
func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.lastRun = time.Now()
	s.mu.Unlock()
}

// runCycle executes one full refresh under the running flag. The caller
// must have acquired the flag; it is released on every exit path.
func (s *Scheduler) runCycle(ctx context.Context) {
	defer s.release()

	logger := s.logger.WithCorrelationId(uuid.NewString())
	started := time.Now()
	failed, err := s.orch.RefreshAll(ctx, s.attempts)
	if err != nil {
		logger.Error().Err(err).Msg("market sync cycle failed")
		return
	}
	if len(failed) > 0 {
		logger.Warn().Int("failed", len(failed)).Strs("tickers", failed).Msg("market sync finished with temporary failures, retrying next cycle")
	} else {
		logger.Info().Str("duration", time.Since(started).Round(time.Millisecond).String()).Msg("market sync cycle finished")
	}
}

// TriggerIfDue starts a manual cycle when the scheduler is enabled, idle
// and either force is set or a full interval elapsed since the last cycle.
// With blocking the caller waits for the cycle; otherwise it runs detached.
// Returns whether a cycle was started.
func (s *Scheduler) TriggerIfDue(ctx context.Context, force, blocking bool) bool {
	if !s.enabled {
		return false
	}

	s.mu.Lock()
	if s.running || (!force && time.Since(s.lastRun) < s.interval) {
		s.mu.Unlock()
		return false
	}
	s.running = true
	s.mu.Unlock()

	if blocking {
		s.runCycle(ctx)
		return true
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runCycle(ctx)
	}()
	return true
}
