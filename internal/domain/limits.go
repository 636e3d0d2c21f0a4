package domain

import (
	"time"

	"github.com/google/uuid"
)

type GiftCityLimit struct {
	ID         uuid.UUID `json:"id"`
	GiftID     uuid.UUID `json:"gift_id"`
	CityID     uuid.UUID `json:"city_id"`
	MaxWinners int       `json:"max_winners"`
	CreatedAt  time.Time `json:"created_at"`
}

// GiftVenueLimit rows of a gift also define its global ceiling: the sum of
// their MaxWinners.
type GiftVenueLimit struct {
	ID         uuid.UUID `json:"id"`
	GiftID     uuid.UUID `json:"gift_id"`
	VenueID    uuid.UUID `json:"venue_id"`
	MaxWinners int       `json:"max_winners"`
	CreatedAt  time.Time `json:"created_at"`
}

// CampaignCityLimit caps the wins of a campaign in one city, all gifts
// together.
type CampaignCityLimit struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	CityID     uuid.UUID `json:"city_id"`
	MaxWinners int       `json:"max_winners"`
	CreatedAt  time.Time `json:"created_at"`
}

// EffectiveCeiling is the global ceiling of gift given its venue limits.
func EffectiveCeiling(gift Gift, venueLimits []GiftVenueLimit) Ceiling {
	if len(venueLimits) == 0 {
		return gift.MaxWinners
	}

	sum := 0
	for _, l := range venueLimits {
		sum += l.MaxWinners
	}

	return Limited(sum)
}
