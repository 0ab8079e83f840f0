package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is one committed auction event on its way to the broker.
type Record struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

// Stats are the relay counters reported by /ws/stats.
type Stats struct {
	Published uint64    `json:"published"`
	Failed    uint64    `json:"failed"`
	Dropped   uint64    `json:"dropped"`
	Pending   int       `json:"pending"`
	LastSent  time.Time `json:"lastSent"`
}
