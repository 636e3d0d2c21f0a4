package domain

import (
	"time"

	"github.com/google/uuid"
)

type Gift struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	CampaignID     *uuid.UUID `json:"campaign_id"`
	MaxWinners     Ceiling    `json:"max_winners" swaggertype:"integer"`
	CurrentWinners int        `json:"current_winners"`
	Emoji          string     `json:"emoji"`
	ImageURL       string     `json:"image_url"`
	ImagePublicID  string     `json:"-"`
	Color          string     `json:"color"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Reason names the first check that made a gift unavailable.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonGlobal        Reason = "global"
	ReasonCity          Reason = "city"
	ReasonCampaignCity  Reason = "campaign_city"
	ReasonVenueMissing  Reason = "venue_missing"
	ReasonVenue         Reason = "venue"
	ReasonOtherCampaign Reason = "other_campaign"
)

type GiftAvailability struct {
	Gift             Gift    `json:"gift"`
	EffectiveCeiling Ceiling `json:"effective_ceiling" swaggertype:"integer"`
	Available        bool    `json:"available"`
	Reason           Reason  `json:"reason,omitempty"`
}

// ScopePolicy decides availability in a city or venue scope that has no limit
// row for a gift.
type ScopePolicy string

const (
	OpenByDefault   ScopePolicy = "open_by_default"
	ClosedByDefault ScopePolicy = "closed_by_default"
)

func ParseScopePolicy(s string, fallback ScopePolicy) ScopePolicy {
	switch ScopePolicy(s) {
	case OpenByDefault, ClosedByDefault:
		return ScopePolicy(s)
	default:
		return fallback
	}
}
