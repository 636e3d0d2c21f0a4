package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Campaign struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	Description        string          `json:"description"`
	Theme              json.RawMessage `json:"theme" swaggertype:"object"`
	IsActive           bool            `json:"is_active"`
	AccessUsername     string          `json:"access_username,omitempty"`
	AccessPasswordHash string          `json:"-"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Gated reports whether visitors must pass the shared username/password gate.
func (c Campaign) Gated() bool {
	return c.AccessUsername != "" && c.AccessPasswordHash != ""
}

type City struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type VenueType string

const (
	VenueBar        VenueType = "bar"
	VenueRestaurant VenueType = "restaurant"
	VenuePOS        VenueType = "pos"
)

type Venue struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Type       VenueType  `json:"type"`
	CityID     uuid.UUID  `json:"city_id"`
	CampaignID *uuid.UUID `json:"campaign_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
