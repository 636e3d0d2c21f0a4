package dao

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrGiftNotFound   = errors.New("gift not found")
	ErrGiftHasWinners = errors.New("gift has winners")
)

type Gift struct {
	Base

	Name           string     `gorm:"not null"`
	CampaignID     *uuid.UUID `gorm:"type:uuid;index"`
	MaxWinners     *int
	CurrentWinners int `gorm:"not null;default:0"`
	Emoji          string
	ImageURL       string
	ImagePublicID  string
	Color          string
}

type GiftCityLimit struct {
	Base

	GiftID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_gift_city"`
	CityID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_gift_city"`
	MaxWinners int       `gorm:"not null"`
}

type GiftVenueLimit struct {
	Base

	GiftID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_gift_venue"`
	VenueID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_gift_venue"`
	MaxWinners int       `gorm:"not null"`
}

type GiftDAO struct {
	db *gorm.DB
}

func NewGiftDAO(db *gorm.DB) *GiftDAO {
	return &GiftDAO{
		db: db,
	}
}

func (d *GiftDAO) Insert(ctx context.Context, gift Gift) (Gift, error) {
	gift.CurrentWinners = 0

	result := d.db.WithContext(ctx).Create(&gift)
	if result.Error != nil {
		return Gift{}, result.Error
	}

	return gift, nil
}

// Update writes the editable columns of gift. current_winners is never
// touched here.
func (d *GiftDAO) Update(ctx context.Context, gift Gift) (Gift, error) {
	result := d.db.WithContext(ctx).Model(&gift).
		Select("name", "campaign_id", "max_winners", "emoji", "image_url", "image_public_id", "color", "updated_at").
		Updates(&gift)
	if result.Error != nil {
		return Gift{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Gift{}, ErrGiftNotFound
	}

	return d.FindByID(ctx, gift.ID)
}

func (d *GiftDAO) Delete(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var winners int64
		if err := tx.Model(&Participant{}).Where("prize_id = ? AND won = ?", id, true).Count(&winners).Error; err != nil {
			return err
		}
		if winners > 0 {
			return ErrGiftHasWinners
		}

		if err := tx.Delete(&GiftCityLimit{}, "gift_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&GiftVenueLimit{}, "gift_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&Gift{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGiftNotFound
		}

		return nil
	})
}

func (d *GiftDAO) FindByID(ctx context.Context, id uuid.UUID) (Gift, error) {
	var gift Gift

	result := d.db.WithContext(ctx).First(&gift, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Gift{}, ErrGiftNotFound
		}

		return Gift{}, result.Error
	}

	return gift, nil
}

// FindByCampaign returns the gifts of a campaign in wheel order. A nil
// campaignID selects the gifts that belong to no campaign.
func (d *GiftDAO) FindByCampaign(ctx context.Context, campaignID *uuid.UUID) ([]Gift, error) {
	var gifts []Gift

	query := d.db.WithContext(ctx)
	if campaignID == nil {
		query = query.Where("campaign_id IS NULL")
	} else {
		query = query.Where("campaign_id = ?", *campaignID)
	}

	result := query.Order("created_at, id").Find(&gifts)
	if result.Error != nil {
		return nil, result.Error
	}

	return gifts, nil
}

func (d *GiftDAO) List(ctx context.Context) ([]Gift, error) {
	var gifts []Gift

	result := d.db.WithContext(ctx).Order("created_at, id").Find(&gifts)
	if result.Error != nil {
		return nil, result.Error
	}

	return gifts, nil
}

// CompareAndSwapWinners sets current_winners to next only if it still holds
// expected. It returns the number of rows changed, 0 when another writer got
// there first.
func (d *GiftDAO) CompareAndSwapWinners(ctx context.Context, id uuid.UUID, expected, next int) (int64, error) {
	result := d.db.WithContext(ctx).Model(&Gift{}).
		Where("id = ? AND current_winners = ?", id, expected).
		Update("current_winners", next)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (d *GiftDAO) ListCityLimits(ctx context.Context, giftID uuid.UUID) ([]GiftCityLimit, error) {
	var limits []GiftCityLimit

	result := d.db.WithContext(ctx).Where("gift_id = ?", giftID).Order("created_at, id").Find(&limits)
	if result.Error != nil {
		return nil, result.Error
	}

	return limits, nil
}

func (d *GiftDAO) FindCityLimit(ctx context.Context, giftID, cityID uuid.UUID) (GiftCityLimit, error) {
	var limit GiftCityLimit

	result := d.db.WithContext(ctx).First(&limit, "gift_id = ? AND city_id = ?", giftID, cityID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return GiftCityLimit{}, ErrLimitNotFound
		}

		return GiftCityLimit{}, result.Error
	}

	return limit, nil
}

func (d *GiftDAO) UpsertCityLimit(ctx context.Context, limit GiftCityLimit) (GiftCityLimit, error) {
	result := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gift_id"}, {Name: "city_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"max_winners", "updated_at"}),
	}).Create(&limit)
	if result.Error != nil {
		return GiftCityLimit{}, result.Error
	}

	return d.FindCityLimit(ctx, limit.GiftID, limit.CityID)
}

func (d *GiftDAO) DeleteCityLimit(ctx context.Context, giftID, cityID uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&GiftCityLimit{}, "gift_id = ? AND city_id = ?", giftID, cityID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLimitNotFound
	}

	return nil
}

func (d *GiftDAO) ListVenueLimits(ctx context.Context, giftIDs ...uuid.UUID) ([]GiftVenueLimit, error) {
	var limits []GiftVenueLimit
	if len(giftIDs) == 0 {
		return limits, nil
	}

	result := d.db.WithContext(ctx).Where("gift_id IN ?", giftIDs).Order("created_at, id").Find(&limits)
	if result.Error != nil {
		return nil, result.Error
	}

	return limits, nil
}

func (d *GiftDAO) FindVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) (GiftVenueLimit, error) {
	var limit GiftVenueLimit

	result := d.db.WithContext(ctx).First(&limit, "gift_id = ? AND venue_id = ?", giftID, venueID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return GiftVenueLimit{}, ErrLimitNotFound
		}

		return GiftVenueLimit{}, result.Error
	}

	return limit, nil
}

func (d *GiftDAO) UpsertVenueLimit(ctx context.Context, limit GiftVenueLimit) (GiftVenueLimit, error) {
	result := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gift_id"}, {Name: "venue_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"max_winners", "updated_at"}),
	}).Create(&limit)
	if result.Error != nil {
		return GiftVenueLimit{}, result.Error
	}

	return d.FindVenueLimit(ctx, limit.GiftID, limit.VenueID)
}

func (d *GiftDAO) DeleteVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&GiftVenueLimit{}, "gift_id = ? AND venue_id = ?", giftID, venueID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLimitNotFound
	}

	return nil
}

// ResetByID clears the winners of one gift.
func (d *GiftDAO) ResetByID(ctx context.Context, id uuid.UUID) ([]Gift, error) {
	return d.reset(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", id)
	})
}

func (d *GiftDAO) ResetByCampaign(ctx context.Context, campaignID uuid.UUID) ([]Gift, error) {
	return d.reset(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("campaign_id = ?", campaignID)
	})
}

func (d *GiftDAO) ResetAll(ctx context.Context) ([]Gift, error) {
	return d.reset(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx
	})
}

// reset runs in one transaction: winners of the scoped gifts lose their win
// and the gift counters go back to 0.
func (d *GiftDAO) reset(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]Gift, error) {
	var gifts []Gift

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(scope).Order("created_at, id").Find(&gifts).Error; err != nil {
			return err
		}
		if len(gifts) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(gifts))
		for _, g := range gifts {
			ids = append(ids, g.ID)
		}

		err := tx.Model(&Participant{}).Where("prize_id IN ?", ids).Updates(map[string]any{
			"won":      false,
			"prize_id": nil,
			"won_at":   nil,
		}).Error
		if err != nil {
			return err
		}

		if err = tx.Model(&Gift{}).Where("id IN ?", ids).Update("current_winners", 0).Error; err != nil {
			return err
		}

		for i := range gifts {
			gifts[i].CurrentWinners = 0
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return gifts, nil
}
