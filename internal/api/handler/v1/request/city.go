package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

type CityRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks a city payload. The password is mandatory only on creation.
func (req *CityRequest) Validate(creating bool) error {
	passwordRules := []validation.Rule{strongPassword}
	if creating {
		passwordRules = append(passwordRules, validation.Required)
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&req.Password, passwordRules...),
	)
}

type VenueRequest struct {
	Name       string           `json:"name"`
	Type       domain.VenueType `json:"type"`
	CityID     uuid.UUID        `json:"city_id"`
	CampaignID *uuid.UUID       `json:"campaign_id"`
}

func (req *VenueRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Type, validation.Required, validation.In(domain.VenueBar, domain.VenueRestaurant, domain.VenuePOS)),
		validation.Field(&req.CityID, requiredUUID),
	)
}
