// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
)

// Message is an outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers email. Delivery itself lives outside this module.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	l := m.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("email queued", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTML))
	return nil
}
