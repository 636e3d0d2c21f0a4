package dao

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrCampaignSlugExists = errors.New("campaign slug already exists")
	ErrLimitNotFound      = errors.New("limit not found")
)

type Campaign struct {
	Base

	Name               string `gorm:"not null"`
	Slug               string `gorm:"uniqueIndex;not null"`
	Description        string
	Theme              string `gorm:"type:text;not null;default:'{}'"`
	IsActive           bool   `gorm:"not null"`
	AccessUsername     string
	AccessPasswordHash string
}

type CampaignCityLimit struct {
	Base

	CampaignID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_campaign_city"`
	CityID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_campaign_city"`
	MaxWinners int       `gorm:"not null"`
}

type CampaignDAO struct {
	db *gorm.DB
}

func NewCampaignDAO(db *gorm.DB) *CampaignDAO {
	return &CampaignDAO{
		db: db,
	}
}

func (d *CampaignDAO) Insert(ctx context.Context, campaign Campaign) (Campaign, error) {
	result := d.db.WithContext(ctx).Create(&campaign)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Campaign{}, ErrCampaignSlugExists
		}

		return Campaign{}, result.Error
	}

	return campaign, nil
}

func (d *CampaignDAO) Update(ctx context.Context, campaign Campaign) (Campaign, error) {
	result := d.db.WithContext(ctx).Model(&campaign).
		Select("name", "slug", "description", "theme", "is_active", "access_username", "access_password_hash", "updated_at").
		Updates(&campaign)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return Campaign{}, ErrCampaignSlugExists
		}

		return Campaign{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Campaign{}, ErrCampaignNotFound
	}

	return d.FindByID(ctx, campaign.ID)
}

func (d *CampaignDAO) Delete(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&Campaign{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}

	return nil
}

func (d *CampaignDAO) FindByID(ctx context.Context, id uuid.UUID) (Campaign, error) {
	var campaign Campaign

	result := d.db.WithContext(ctx).First(&campaign, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Campaign{}, ErrCampaignNotFound
		}

		return Campaign{}, result.Error
	}

	return campaign, nil
}

func (d *CampaignDAO) FindBySlug(ctx context.Context, slug string) (Campaign, error) {
	var campaign Campaign

	result := d.db.WithContext(ctx).First(&campaign, "slug = ?", slug)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Campaign{}, ErrCampaignNotFound
		}

		return Campaign{}, result.Error
	}

	return campaign, nil
}

func (d *CampaignDAO) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Campaign{}).Where("slug = ?", slug).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (d *CampaignDAO) List(ctx context.Context) ([]Campaign, error) {
	var campaigns []Campaign

	result := d.db.WithContext(ctx).Order("created_at DESC").Find(&campaigns)
	if result.Error != nil {
		return nil, result.Error
	}

	return campaigns, nil
}

func (d *CampaignDAO) ListCityLimits(ctx context.Context, campaignID uuid.UUID) ([]CampaignCityLimit, error) {
	var limits []CampaignCityLimit

	result := d.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("created_at, id").Find(&limits)
	if result.Error != nil {
		return nil, result.Error
	}

	return limits, nil
}

func (d *CampaignDAO) FindCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) (CampaignCityLimit, error) {
	var limit CampaignCityLimit

	result := d.db.WithContext(ctx).First(&limit, "campaign_id = ? AND city_id = ?", campaignID, cityID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return CampaignCityLimit{}, ErrLimitNotFound
		}

		return CampaignCityLimit{}, result.Error
	}

	return limit, nil
}

func (d *CampaignDAO) UpsertCityLimit(ctx context.Context, limit CampaignCityLimit) (CampaignCityLimit, error) {
	result := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "city_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"max_winners", "updated_at"}),
	}).Create(&limit)
	if result.Error != nil {
		return CampaignCityLimit{}, result.Error
	}

	return d.FindCityLimit(ctx, limit.CampaignID, limit.CityID)
}

func (d *CampaignDAO) DeleteCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&CampaignCityLimit{}, "campaign_id = ? AND city_id = ?", campaignID, cityID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLimitNotFound
	}

	return nil
}
