// Package service implements the account, post and graph operations on top of the repositories.
package service

import (
	"context"
	"errors"

	"warbler/internal/models"
	"warbler/internal/notifications"
)

// FlagSource reports whether a policy flag is on for an account.
// *featureflags.Manager satisfies it.
type FlagSource interface {
	Enabled(name string, userID uint) bool
}

// EventPublisher delivers activity to the affected account.
// *notifications.Notifier satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, recipientID uint, event notifications.Event) error
}

// asAppError passes typed failures through and wraps anything else as internal.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
