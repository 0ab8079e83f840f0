package models

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a bidding franchise in the auction
type Team struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner,omitempty"`
	LogoURL   string    `json:"logoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
