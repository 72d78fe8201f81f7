package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron"
)

type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler triggers a Runner on a fixed interval and once at start.
// Ticks that arrive while a run is still in flight are skipped.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopped bool
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:   runner,
		interval: interval,
		cron:     cron.New(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() error {
	if err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.Trigger); err != nil {
		return fmt.Errorf("schedule delivery job: %w", err)
	}
	s.cron.Start()
	slog.Info("delivery scheduler started", "interval", s.interval.String())

	go s.Trigger()
	return nil
}

// Trigger runs the job now unless a run is already in progress.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.running {
		s.mu.Unlock()
		slog.Warn("previous delivery run still in progress, skipping tick")
		return
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.wg.Done()
	}()

	if err := s.runner.Run(s.ctx); err != nil {
		if errors.Is(err, ErrCredentialMissing) {
			return
		}
		slog.Error("delivery run aborted", "error", err)
	}
}

// Stop prevents new ticks and waits for the in-flight run to finish.
// The run's context is cancelled only when ctx expires first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cron.Stop()

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}
