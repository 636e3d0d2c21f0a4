package response

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

type LoginResponse struct {
	Token string       `json:"token"`
	Admin domain.Admin `json:"admin"`
}

// PublicCampaign is what visitors see of a campaign: no gate credentials.
type PublicCampaign struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Theme       json.RawMessage `json:"theme" swaggertype:"object"`
	IsActive    bool            `json:"is_active"`
	Gated       bool            `json:"gated"`
	Unlocked    bool            `json:"unlocked"`
}

func NewPublicCampaign(c domain.Campaign, unlocked bool) (PublicCampaign, error) {
	var out PublicCampaign
	if err := copier.Copy(&out, &c); err != nil {
		return PublicCampaign{}, err
	}
	out.Gated = c.Gated()
	out.Unlocked = unlocked || !out.Gated

	return out, nil
}

// WheelGift is one slice of the wheel.
type WheelGift struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	Emoji            string         `json:"emoji"`
	ImageURL         string         `json:"image_url"`
	Color            string         `json:"color"`
	CurrentWinners   int            `json:"current_winners"`
	EffectiveCeiling domain.Ceiling `json:"max_winners" swaggertype:"integer"`
	Available        bool           `json:"available"`
	Reason           string         `json:"reason,omitempty"`
}

func NewWheel(availability []domain.GiftAvailability) ([]WheelGift, error) {
	wheel := make([]WheelGift, 0, len(availability))
	for _, a := range availability {
		var g WheelGift
		if err := copier.Copy(&g, &a.Gift); err != nil {
			return nil, err
		}
		g.EffectiveCeiling = a.EffectiveCeiling
		g.Available = a.Available
		g.Reason = string(a.Reason)

		wheel = append(wheel, g)
	}

	return wheel, nil
}

type SpinResponse struct {
	Participant domain.Participant `json:"participant"`
	Campaign    *PublicCampaign    `json:"campaign,omitempty"`
	Gifts       []WheelGift        `json:"gifts"`
}

type ResetResponse struct {
	Gifts []domain.Gift `json:"gifts"`
}
