package watch

import (
	"context"
	"time"
)

// Service ties the file watcher and the rescan scheduler to a single pass
// function. Passes never overlap: triggers arriving while one runs collapse
// into at most one follow-up pass.
type Service struct {
	watcher   *Watcher
	scheduler *Scheduler
	rescan    time.Duration
	pass      func(context.Context)
	trigger   chan struct{}
	done      chan struct{}
}

// NewService wires the watch loop. watcher and scheduler may each be nil when
// that trigger source is disabled; pass must not be.
func NewService(watcher *Watcher, scheduler *Scheduler, rescan time.Duration, pass func(context.Context)) *Service {
	return &Service{
		watcher:   watcher,
		scheduler: scheduler,
		rescan:    rescan,
		pass:      pass,
		trigger:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Start begins watching and runs an initial pass to catch changes made while
// the service was down.
func (s *Service) Start(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Start(ctx, s.Trigger); err != nil {
			return err
		}
	}
	if s.scheduler != nil && s.rescan > 0 {
		if _, err := s.scheduler.ScheduleRescan(s.rescan, s.Trigger); err != nil {
			return err
		}
		s.scheduler.Start()
	}

	go s.passLoop(ctx)
	s.Trigger()
	return nil
}

// Trigger requests a rebuild pass. Requests arriving while one is already
// pending collapse into it.
func (s *Service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Service) passLoop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			s.pass(ctx)
		}
	}
}

// Stop shuts down the trigger sources and waits for an in-flight pass to
// finish, up to ctx's deadline. Call after the Start context is canceled.
func (s *Service) Stop(ctx context.Context) error {
	var firstErr error
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			firstErr = err
		}
	}
	if s.scheduler != nil {
		if err := s.scheduler.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	select {
	case <-s.done:
	case <-ctx.Done():
	}
	return firstErr
}
