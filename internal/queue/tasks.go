// Package queue defines the background tasks and the asynq client used to
// enqueue them.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/sumire/lostfound/internal/config"
)

const (
	// RedeliverNotificationTask retries the owner notification for a claim
	// whose synchronous delivery failed.
	RedeliverNotificationTask = "notification:redeliver"

	redeliverMaxRetry = 10
)

// RedeliverPayload identifies the claim whose notification must be recreated.
type RedeliverPayload struct {
	ClaimID uuid.UUID `json:"claim_id"`
}

// NewRedeliverTask builds a redelivery task for claimID.
func NewRedeliverTask(claimID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(RedeliverPayload{ClaimID: claimID})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(RedeliverNotificationTask, data), nil
}

// ParseRedeliverPayload decodes a redelivery task payload.
func ParseRedeliverPayload(task *asynq.Task) (RedeliverPayload, error) {
	var p RedeliverPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return RedeliverPayload{}, fmt.Errorf("decode payload: %w", err)
	}
	if p.ClaimID == uuid.Nil {
		return RedeliverPayload{}, fmt.Errorf("decode payload: missing claim_id")
	}
	return p, nil
}

// Client enqueues tasks on Redis through asynq.
type Client struct {
	client *asynq.Client
}

// NewClient wraps an asynq client.
func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

// EnqueueRedelivery schedules a notification redelivery for claimID. A task
// already pending for the same claim is left in place.
func (c *Client) EnqueueRedelivery(ctx context.Context, claimID uuid.UUID) error {
	task, err := NewRedeliverTask(claimID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(redeliverMaxRetry),
		asynq.TaskID("redeliver:"+claimID.String()),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue redelivery for claim %s: %w", claimID, err)
	}
	return nil
}

// RedisOpt builds the asynq Redis connection options from cfg.
func RedisOpt(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
