package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

type GiftRequest struct {
	Name       string         `json:"name"`
	CampaignID *uuid.UUID     `json:"campaign_id"`
	MaxWinners domain.Ceiling `json:"max_winners" swaggertype:"integer"`
	Emoji      string         `json:"emoji"`
	Color      string         `json:"color"`
}

func (req *GiftRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Emoji, validation.Length(0, 16)),
		validation.Field(&req.Color, validation.Length(0, 32)),
	)
}

type GiftCityLimitRequest struct {
	CityID     uuid.UUID `json:"city_id"`
	MaxWinners int       `json:"max_winners"`
}

func (req *GiftCityLimitRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.CityID, requiredUUID),
		validation.Field(&req.MaxWinners, validation.Min(0)),
	)
}

type GiftVenueLimitRequest struct {
	VenueID    uuid.UUID `json:"venue_id"`
	MaxWinners int       `json:"max_winners"`
}

func (req *GiftVenueLimitRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.VenueID, requiredUUID),
		validation.Field(&req.MaxWinners, validation.Min(0)),
	)
}
