package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorderEmailTaskRoundTrip(t *testing.T) {
	payload := ReorderEmailPayload{
		ProductID:     10,
		ProductName:   "Neon Drift 2",
		StockQuantity: 3,
		SupplierName:  "GameTech Distributors",
		SupplierEmail: "orders@gametech.example",
	}
	task, err := NewReorderEmailTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeReorderEmail, task.Type())

	var decoded ReorderEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, payload, decoded)
}

func TestReorderMailerSends(t *testing.T) {
	var gotTo, gotSubject string
	mailer := NewReorderMailer(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		"inventory@pixelhaven.local",
		func(ctx context.Context, to, subject, body string) error {
			gotTo = to
			gotSubject = subject
			return nil
		},
	)

	task, err := NewReorderEmailTask(ReorderEmailPayload{
		ProductID:     10,
		ProductName:   "Neon Drift 2",
		StockQuantity: 3,
		SupplierEmail: "orders@gametech.example",
	})
	require.NoError(t, err)

	require.NoError(t, mailer.ProcessTask(context.Background(), task))
	assert.Equal(t, "orders@gametech.example", gotTo)
	assert.Contains(t, gotSubject, "Neon Drift 2")
}

func TestReorderMailerSkipsRetryOnBadPayload(t *testing.T) {
	mailer := NewReorderMailer(slog.New(slog.NewTextHandler(io.Discard, nil)), "", nil)

	bad := asynq.NewTask(TaskTypeReorderEmail, []byte("{not json"))
	err := mailer.ProcessTask(context.Background(), bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
