// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs background jobs such as publishing scheduled pages.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-backoffice/internal/service"
	"github.com/olegiv/ocms-backoffice/internal/store"
)

// DefaultPublishSchedule runs the publish job every minute.
const DefaultPublishSchedule = "* * * * *"

// systemUsername is recorded on audit entries written without a caller.
const systemUsername = "system (scheduler)"

// jobTimeout bounds a single run of the publish job.
const jobTimeout = 30 * time.Second

// PagePublisher publishes every scheduled page whose time has come.
type PagePublisher interface {
	PublishDue(ctx context.Context) ([]store.Page, error)
}

// Scheduler handles scheduled tasks like publishing pages.
type Scheduler struct {
	pages    PagePublisher
	recorder *service.AuditRecorder
	cron     *cron.Cron
	logger   *slog.Logger
	schedule string
}

// New creates a new scheduler instance. An empty schedule uses
// DefaultPublishSchedule.
func New(pages PagePublisher, recorder *service.AuditRecorder, logger *slog.Logger, schedule string) *Scheduler {
	if schedule == "" {
		schedule = DefaultPublishSchedule
	}
	return &Scheduler{
		pages:    pages,
		recorder: recorder,
		cron:     cron.New(),
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the publish job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := s.PublishDuePages(ctx); err != nil {
			s.logger.Error("failed to process scheduled pages", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("adding publish job %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "schedule", s.schedule)
	return nil
}

// Stop waits for a running job to finish and stops the cron loop.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// PublishDuePages runs the publish job once and records one audit entry per
// published page. Pages published before an error are still audited.
func (s *Scheduler) PublishDuePages(ctx context.Context) (int, error) {
	published, err := s.pages.PublishDue(ctx)
	for _, pg := range published {
		s.logger.Info("published scheduled page",
			"page_id", pg.ID,
			"page_title", pg.Title,
			"scheduled_at", pg.PublishAt.Time,
		)
		e := service.EntryFor(nil, nil, service.AuditUpdate,
			fmt.Sprintf("Page published automatically by scheduler: %s (#%d)", pg.Title, pg.ID))
		e.Username = systemUsername
		s.recorder.Record(ctx, e)
	}
	if err != nil {
		return len(published), err
	}
	if len(published) > 0 {
		s.logger.Info("processed scheduled pages", "count", len(published))
	}
	return len(published), nil
}
