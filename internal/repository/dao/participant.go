package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrParticipantCodeExists = errors.New("participant code already exists")
)

type Participant struct {
	Base

	Name          string     `gorm:"not null"`
	Code          string     `gorm:"uniqueIndex;not null"`
	City          string     `gorm:"not null;default:''"`
	CityID        *uuid.UUID `gorm:"type:uuid;index"`
	VenueID       *uuid.UUID `gorm:"type:uuid;index"`
	CampaignID    *uuid.UUID `gorm:"type:uuid;index"`
	AgreedToTerms bool       `gorm:"not null;default:false"`
	Won           bool       `gorm:"not null;default:false;index"`
	PrizeID       *uuid.UUID `gorm:"type:uuid;index"`
	WonAt         *time.Time
}

// WinFilter narrows a count of won participants. Nil fields are ignored.
type WinFilter struct {
	GiftID     *uuid.UUID
	CityID     *uuid.UUID
	VenueID    *uuid.UUID
	CampaignID *uuid.UUID
}

type ParticipantFilter struct {
	CampaignID *uuid.UUID
	Won        *bool
	Limit      int
	Offset     int
}

type GiftWinCount struct {
	PrizeID uuid.UUID
	Count   int
}

type ParticipantDAO struct {
	db *gorm.DB
}

func NewParticipantDAO(db *gorm.DB) *ParticipantDAO {
	return &ParticipantDAO{
		db: db,
	}
}

func (d *ParticipantDAO) Insert(ctx context.Context, participant Participant) (Participant, error) {
	result := d.db.WithContext(ctx).Create(&participant)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Participant{}, ErrParticipantCodeExists
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

func (d *ParticipantDAO) FindByID(ctx context.Context, id uuid.UUID) (Participant, error) {
	var participant Participant

	result := d.db.WithContext(ctx).First(&participant, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participant{}, ErrParticipantNotFound
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

// MarkWon records the win only if the participant has not won yet. It
// returns the number of rows changed.
func (d *ParticipantDAO) MarkWon(ctx context.Context, id, prizeID uuid.UUID, wonAt time.Time) (int64, error) {
	result := d.db.WithContext(ctx).Model(&Participant{}).
		Where("id = ? AND won = ?", id, false).
		Updates(map[string]any{
			"won":      true,
			"prize_id": prizeID,
			"won_at":   wonAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (d *ParticipantDAO) CountWins(ctx context.Context, filter WinFilter) (int64, error) {
	var count int64

	query := d.db.WithContext(ctx).Model(&Participant{}).Where("won = ?", true)
	if filter.GiftID != nil {
		query = query.Where("prize_id = ?", *filter.GiftID)
	}
	if filter.CityID != nil {
		query = query.Where("city_id = ?", *filter.CityID)
	}
	if filter.VenueID != nil {
		query = query.Where("venue_id = ?", *filter.VenueID)
	}
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// CountWinsByGift groups every won participant by prize.
func (d *ParticipantDAO) CountWinsByGift(ctx context.Context) ([]GiftWinCount, error) {
	var counts []GiftWinCount

	result := d.db.WithContext(ctx).Model(&Participant{}).
		Select("prize_id, COUNT(*) AS count").
		Where("won = ? AND prize_id IS NOT NULL", true).
		Group("prize_id").
		Scan(&counts)
	if result.Error != nil {
		return nil, result.Error
	}

	return counts, nil
}

func (d *ParticipantDAO) List(ctx context.Context, filter ParticipantFilter) ([]Participant, error) {
	var participants []Participant

	query := d.db.WithContext(ctx).Order("created_at DESC")
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Won != nil {
		query = query.Where("won = ?", *filter.Won)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	result := query.Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}
