package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Task defines a unit of periodic maintenance work.
type Task interface {
	// Name identifies the task in logs.
	Name() string

	// Run performs one pass of the task. Returning a PermanentError stops
	// the task from being scheduled again.
	Run(ctx context.Context) error
}

// PermanentError wraps an error to indicate the task should not run again.
type PermanentError struct {
	Err error
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with PermanentError.
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError creates a new PermanentError that wraps the given error.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent checks if an error is a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}

// =============================================================================
// Invitation purge
// =============================================================================

// InvitationPurger removes pending invitations that expired long ago.
type InvitationPurger interface {
	PurgeExpiredInvitations(ctx context.Context, retention time.Duration) (int64, error)
}

// InvitationPurgeTask deletes pending invitations once they have been
// expired for longer than Retention.
type InvitationPurgeTask struct {
	purger    InvitationPurger
	retention time.Duration
	logger    *slog.Logger
}

// NewInvitationPurgeTask creates the purge task.
func NewInvitationPurgeTask(purger InvitationPurger, retention time.Duration, logger *slog.Logger) *InvitationPurgeTask {
	return &InvitationPurgeTask{
		purger:    purger,
		retention: retention,
		logger:    logger,
	}
}

// Name implements Task.
func (t *InvitationPurgeTask) Name() string {
	return "purge_expired_invitations"
}

// Run implements Task.
func (t *InvitationPurgeTask) Run(ctx context.Context) error {
	n, err := t.purger.PurgeExpiredInvitations(ctx, t.retention)
	if err != nil {
		return err
	}
	t.logger.Debug("invitation purge finished", "deleted", n, "retention", t.retention)
	return nil
}
