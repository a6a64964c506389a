// Package notify is the boundary to the notification pipeline. The pipeline
// itself (fan-out, templating, delivery) lives outside this service; this
// package only enqueues events for it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePermissionChanged is the task type for permission grant changes.
	TaskTypePermissionChanged = "notify:permission_changed"
)

// PermissionChangedEvent describes one grant toggle performed through the
// staff console.
type PermissionChangedEvent struct {
	EventID        string    `json:"event_id"`
	ActorID        int64     `json:"actor_id"`
	RoleID         int64     `json:"role_id"`
	ElementKey     string    `json:"element_key"`
	PermissionType string    `json:"permission_type"`
	Granted        bool      `json:"granted"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Sink receives permission-change events.
type Sink interface {
	PermissionChanged(ctx context.Context, event PermissionChangedEvent) error
}

// AsynqSink enqueues events as Asynq tasks for the notification worker.
type AsynqSink struct {
	client *asynq.Client
}

// NewAsynqSink constructs a sink backed by the given Redis address.
func NewAsynqSink(redisAddr string) *AsynqSink {
	return &AsynqSink{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

// Close releases the underlying client.
func (s *AsynqSink) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// PermissionChanged enqueues a permission-changed task.
func (s *AsynqSink) PermissionChanged(ctx context.Context, event PermissionChangedEvent) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sink not configured")
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	task, err := NewPermissionChangedTask(event)
	if err != nil {
		return err
	}
	if _, err := s.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("notify: enqueue permission changed: %w", err)
	}
	return nil
}

// NopSink drops events. Used when Redis is unavailable and in tests.
type NopSink struct{}

// PermissionChanged implements Sink.
func (NopSink) PermissionChanged(context.Context, PermissionChangedEvent) error { return nil }

// NewPermissionChangedTask constructs an Asynq task.
func NewPermissionChangedTask(event PermissionChangedEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePermissionChanged, data), nil
}

// HandlePermissionChangedTask processes TaskTypePermissionChanged tasks.
// The downstream notification pipeline picks the row up from here.
func HandlePermissionChangedTask(ctx context.Context, t *asynq.Task) error {
	var event PermissionChangedEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return asynq.SkipRetry
	}
	slog.Default().Info("permission changed",
		slog.String("event_id", event.EventID),
		slog.Int64("actor_id", event.ActorID),
		slog.Int64("role_id", event.RoleID),
		slog.String("element_key", event.ElementKey),
		slog.String("permission_type", event.PermissionType),
		slog.Bool("granted", event.Granted),
	)
	return nil
}
