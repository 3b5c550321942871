// Package events streams activity-log entries to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yukikurage/tax-task-tracker/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, entry models.ActivityLog) error
	Close() error
}

// ActivityEvent is the wire form of an activity-log entry.
type ActivityEvent struct {
	ID           uint64    `json:"id"`
	UserID       string    `json:"userId"`
	UserEmail    string    `json:"userEmail"`
	Action       string    `json:"action"`
	TaskID       string    `json:"taskId"`
	TaskTitle    string    `json:"taskTitle"`
	TargetUserID string    `json:"targetUserId,omitempty"`
	TargetEmail  string    `json:"targetEmail,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewActivityEvent(entry models.ActivityLog) ActivityEvent {
	return ActivityEvent{
		ID:           entry.ID,
		UserID:       entry.UserID,
		UserEmail:    entry.UserEmail,
		Action:       string(entry.Action),
		TaskID:       entry.TaskID,
		TaskTitle:    entry.TaskTitle,
		TargetUserID: entry.TargetUserID,
		TargetEmail:  entry.TargetEmail,
		Timestamp:    entry.Timestamp,
	}
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer kafkaWriter
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if trimmed := strings.TrimSpace(b); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("kafka topic required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}, nil
}

// Publish keys messages by user id so one user's activity stays ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, entry models.ActivityLog) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("kafka publisher not initialized")
	}
	payload, err := json.Marshal(NewActivityEvent(entry))
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.UserID),
		Value: payload,
		Time:  entry.Timestamp,
	})
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.ActivityLog) error { return nil }
func (NopPublisher) Close() error                                      { return nil }
