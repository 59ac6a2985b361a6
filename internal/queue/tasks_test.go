package queue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeliverTaskPayload(t *testing.T) {
	id := uuid.New()
	task, err := NewRedeliverTask(id)
	require.NoError(t, err)
	assert.Equal(t, RedeliverNotificationTask, task.Type())

	p, err := ParseRedeliverPayload(task)
	require.NoError(t, err)
	assert.Equal(t, id, p.ClaimID)
}

func TestParseRedeliverPayloadRejectsMissingClaim(t *testing.T) {
	_, err := ParseRedeliverPayload(asynq.NewTask(RedeliverNotificationTask, []byte(`{}`)))
	assert.Error(t, err)

	_, err = ParseRedeliverPayload(asynq.NewTask(RedeliverNotificationTask, []byte(`not json`)))
	assert.Error(t, err)
}
