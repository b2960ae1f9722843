// Package digest delivers the scheduled morning summary of tasks due today
// to every opted-in user.
package digest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rotinabot/rotina/internal/assistant"
	"github.com/rotinabot/rotina/internal/logging"
	"github.com/rotinabot/rotina/internal/store"
	"github.com/rotinabot/rotina/internal/whatsapp"
)

// Config holds the digest schedule.
type Config struct {
	Enabled  bool
	Schedule string
	Timezone string
}

// DeliveryResult reports one user's digest delivery.
type DeliveryResult struct {
	ChannelID string
	TaskCount int
	Sent      bool
	Error     error
}

// Scheduler runs the morning digest on a cron schedule.
type Scheduler struct {
	store     *store.Store
	messenger whatsapp.Messenger
	config    *Config
	cron      *cron.Cron
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
	entryID cron.EntryID
}

// NewScheduler creates a digest scheduler. An invalid timezone falls back
// to UTC.
func NewScheduler(st *store.Store, messenger whatsapp.Messenger, config *Config) *Scheduler {
	logger := logging.WithComponent("digest")

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		logger.Warn("Invalid timezone, using UTC",
			slog.String("timezone", config.Timezone),
			slog.Any("error", err))
		loc = time.UTC
	}

	return &Scheduler{
		store:     st,
		messenger: messenger,
		config:    config,
		cron:      cron.New(cron.WithLocation(loc)),
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins the scheduler. A disabled config is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Digest scheduler disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runDigest(ctx)
	})
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()
	s.running = true

	s.logger.Info("Digest scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.String("timezone", s.config.Timezone),
		slog.Time("next_run", s.cron.Entry(s.entryID).Next))

	return nil
}

// Stop stops the scheduler and waits for a running dispatch to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("Digest scheduler stopped")
}

// NextRun returns the next scheduled dispatch time.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// RunNow dispatches the digest immediately, regardless of the schedule.
func (s *Scheduler) RunNow(ctx context.Context) ([]DeliveryResult, error) {
	return s.dispatch(ctx)
}

func (s *Scheduler) runDigest(ctx context.Context) {
	results, err := s.dispatch(ctx)
	if err != nil {
		s.logger.Error("Digest dispatch failed", slog.Any("error", err))
		return
	}

	for _, result := range results {
		if result.Error != nil {
			s.logger.Error("Digest delivery failed",
				slog.String("user", result.ChannelID),
				slog.Any("error", result.Error))
		} else if result.Sent {
			s.logger.Info("Digest delivered",
				slog.String("user", result.ChannelID),
				slog.Int("tasks", result.TaskCount))
		}
	}
}

// dispatch sends the digest to every opted-in user with tasks due today.
// Users with nothing due are skipped, not messaged.
func (s *Scheduler) dispatch(ctx context.Context) ([]DeliveryResult, error) {
	users, err := s.store.ListOptedInUsers()
	if err != nil {
		return nil, err
	}

	today := s.now()
	var results []DeliveryResult
	for _, user := range users {
		result := DeliveryResult{ChannelID: user.ChannelID}

		tasks, err := s.store.ListTasksDueOn(user.ChannelID, today)
		if err != nil {
			result.Error = err
			results = append(results, result)
			continue
		}
		result.TaskCount = len(tasks)
		if len(tasks) == 0 {
			results = append(results, result)
			continue
		}

		text := "Bom dia!" + assistant.FormatDigest(tasks)
		if err := s.messenger.SendText(ctx, user.ChannelID, text); err != nil {
			result.Error = err
		} else {
			result.Sent = true
		}
		results = append(results, result)
	}

	return results, nil
}
