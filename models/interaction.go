package models

import (
	"time"
)

// Interaction is one logged visit or contact with a healthcare provider.
type Interaction struct {
	ID        int64     `json:"id"`
	HCPName   string    `json:"hcp_name"`
	Notes     string    `json:"notes"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// InteractionInput is the structured payload for logging or editing an interaction.
type InteractionInput struct {
	HCPName string `json:"hcp_name" binding:"required"`
	Notes   string `json:"notes"`
}

// ChatInput carries free text typed by the sales representative.
type ChatInput struct {
	Text string `json:"text" binding:"required"`
}
