package dto

import "time"

// UpdateConfigRequest changes the value of a dynamic configuration key.
type UpdateConfigRequest struct {
	Value string `json:"value" binding:"required"`
}

// ConfigValueResponse is the API shape of a dynamic configuration entry.
type ConfigValueResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}
