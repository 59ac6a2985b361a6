// Package worker runs the asynq task handlers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/sumire/lostfound/internal/domain"
	"github.com/sumire/lostfound/internal/queue"
)

// Redeliverer recreates a claim's owner notification.
type Redeliverer interface {
	Redeliver(ctx context.Context, claimID uuid.UUID) (*domain.Notification, error)
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	notifications Redeliverer
}

// NewProcessor constructs a worker processor.
func NewProcessor(notifications Redeliverer) *Processor {
	return &Processor{notifications: notifications}
}

// Handler registers the task handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.RedeliverNotificationTask, p.handleRedeliver)
	return mux
}

func (p *Processor) handleRedeliver(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseRedeliverPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	n, err := p.notifications.Redeliver(ctx, payload.ClaimID)
	if err != nil {
		// a claim that no longer resolves will never succeed
		if errors.Is(err, domain.ErrNotFound) {
			slog.Error("drop notification redelivery", "claim_id", payload.ClaimID, "error", err)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		slog.Warn("notification redelivery failed", "claim_id", payload.ClaimID, "error", err)
		return err
	}

	slog.Info("notification delivered", "claim_id", payload.ClaimID, "notification_id", n.ID, "user_id", n.UserID)
	return nil
}
