// Package realtime carries change notifications between service
// instances over Redis pub/sub. Channels are named "<table>:<userId>";
// subscribers reload the whole collection on any message rather than
// patching incrementally.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Table names used in channel construction
const (
	TableTasks  = "tasks"
	TableEvents = "events"
)

// Change operations carried in notification payloads
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// ChangeNotice is the payload published on a change channel
type ChangeNotice struct {
	Op    string `json:"op"`
	Table string `json:"table"`
}

// ChannelName builds the pub/sub channel for a table and user
func ChannelName(table string, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", table, userID)
}

// Publisher publishes change notices for store mutations
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a new change publisher
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends a change notice on the table's per-user channel
func (p *Publisher) Publish(ctx context.Context, table string, userID uuid.UUID, op string) error {
	payload, err := json.Marshal(ChangeNotice{Op: op, Table: table})
	if err != nil {
		return fmt.Errorf("failed to marshal change notice: %w", err)
	}

	if err := p.client.Publish(ctx, ChannelName(table, userID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change notice: %w", err)
	}

	return nil
}
