package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
)

// Notifier is the fire-and-forget email dispatch contract. Delivery
// failures are logged by callers and never fail the triggering flow.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}

// DevNotifier logs the links instead of sending mail, for local runs and
// tests.
type DevNotifier struct {
	logger  *slog.Logger
	baseURL string
}

func NewDevNotifier(logger *slog.Logger, baseURL string) *DevNotifier {
	return &DevNotifier{logger: logger, baseURL: baseURL}
}

func (n *DevNotifier) SendVerificationEmail(ctx context.Context, email, token string) error {
	n.logger.InfoContext(ctx, "verification email issued",
		"email", email,
		"link", fmt.Sprintf("%s/verify-email?token=%s", n.baseURL, url.QueryEscape(token)),
	)
	return nil
}

func (n *DevNotifier) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	n.logger.InfoContext(ctx, "password reset email issued",
		"email", email,
		"link", fmt.Sprintf("%s/reset-password?token=%s", n.baseURL, url.QueryEscape(token)),
	)
	return nil
}
