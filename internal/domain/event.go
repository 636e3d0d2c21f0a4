package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventGiftChanged EventType = "gift.changed"
	EventSpinWon     EventType = "spin.won"
)

// Event is published after the change it describes has been committed.
type Event struct {
	Type           EventType  `json:"type"`
	CampaignID     *uuid.UUID `json:"campaign_id,omitempty"`
	GiftID         *uuid.UUID `json:"gift_id,omitempty"`
	ParticipantID  *uuid.UUID `json:"participant_id,omitempty"`
	CurrentWinners int        `json:"current_winners"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

func GiftChanged(gift Gift) Event {
	id := gift.ID

	return Event{
		Type:           EventGiftChanged,
		CampaignID:     gift.CampaignID,
		GiftID:         &id,
		CurrentWinners: gift.CurrentWinners,
		OccurredAt:     time.Now().UTC(),
	}
}

func SpinWon(p Participant, gift Gift) Event {
	giftID, participantID := gift.ID, p.ID

	return Event{
		Type:           EventSpinWon,
		CampaignID:     p.CampaignID,
		GiftID:         &giftID,
		ParticipantID:  &participantID,
		CurrentWinners: gift.CurrentWinners,
		OccurredAt:     time.Now().UTC(),
	}
}
