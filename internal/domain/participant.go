package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Participant is one spin ticket. A replay creates a new row.
type Participant struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Code          string     `json:"code"`
	City          string     `json:"city"`
	CityID        *uuid.UUID `json:"city_id"`
	VenueID       *uuid.UUID `json:"venue_id"`
	CampaignID    *uuid.UUID `json:"campaign_id"`
	AgreedToTerms bool       `json:"agreed_to_terms"`
	Won           bool       `json:"won"`
	PrizeID       *uuid.UUID `json:"prize_id"`
	WonAt         *time.Time `json:"won_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type IssueOutcome string

const (
	Issued           IssueOutcome = "issued"
	IssuedWithSuffix IssueOutcome = "issued_with_suffix"
	Reused           IssueOutcome = "reused"
)

type TicketIssue struct {
	Participant Participant  `json:"participant"`
	Outcome     IssueOutcome `json:"outcome"`
}

type SpinResult struct {
	Participant Participant `json:"participant"`
	Gift        Gift        `json:"gift"`
}

// SpinView is what a spin page needs to render the wheel of a ticket.
type SpinView struct {
	Participant  Participant        `json:"participant"`
	Campaign     *Campaign          `json:"campaign"`
	Availability []GiftAvailability `json:"availability"`
}

// WinScope narrows a count of won participants. Nil fields are ignored.
type WinScope struct {
	GiftID     *uuid.UUID
	CityID     *uuid.UUID
	VenueID    *uuid.UUID
	CampaignID *uuid.UUID
}

type ParticipantQuery struct {
	CampaignID *uuid.UUID
	Won        *bool
	Limit      int
	Offset     int
}
