// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic site rebuild in daemon mode.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler triggers registered jobs on cron schedules. A job that is still
// running when its next trigger fires is skipped, not stacked; a full
// rebuild can take longer than the interval between triggers.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	running atomic.Bool
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Schedule registers a job under a standard five-field cron spec.
func (s *Scheduler) Schedule(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(name, job)
	})
	return err
}

// Start begins triggering registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runJob(name string, job Job) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, skipping", "job", name)
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	s.logger.Info("scheduled job starting", "job", name)
	if err := job(context.Background()); err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err)
		return
	}
	s.logger.Info("scheduled job finished", "job", name, "duration", time.Since(start).String())
}
