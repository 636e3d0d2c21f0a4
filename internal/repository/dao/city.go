package dao

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCityNotFound       = errors.New("city not found")
	ErrCityUsernameExists = errors.New("city username already exists")
	ErrVenueNotFound      = errors.New("venue not found")
)

type City struct {
	Base

	Name         string `gorm:"not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

type Venue struct {
	Base

	Name       string     `gorm:"not null"`
	Type       string     `gorm:"not null"` // "bar", "restaurant" or "pos"
	CityID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CampaignID *uuid.UUID `gorm:"type:uuid;index"`
}

type VenueFilter struct {
	CityID     *uuid.UUID
	CampaignID *uuid.UUID
}

type CityDAO struct {
	db *gorm.DB
}

func NewCityDAO(db *gorm.DB) *CityDAO {
	return &CityDAO{
		db: db,
	}
}

func (d *CityDAO) Insert(ctx context.Context, city City) (City, error) {
	result := d.db.WithContext(ctx).Create(&city)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return City{}, ErrCityUsernameExists
		}

		return City{}, result.Error
	}

	return city, nil
}

func (d *CityDAO) Update(ctx context.Context, city City) (City, error) {
	result := d.db.WithContext(ctx).Model(&city).Select("name", "username", "password_hash", "updated_at").Updates(&city)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return City{}, ErrCityUsernameExists
		}

		return City{}, result.Error
	}
	if result.RowsAffected == 0 {
		return City{}, ErrCityNotFound
	}

	return d.FindByID(ctx, city.ID)
}

func (d *CityDAO) Delete(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&City{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCityNotFound
	}

	return nil
}

func (d *CityDAO) FindByID(ctx context.Context, id uuid.UUID) (City, error) {
	var city City

	result := d.db.WithContext(ctx).First(&city, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return City{}, ErrCityNotFound
		}

		return City{}, result.Error
	}

	return city, nil
}

func (d *CityDAO) FindByUsername(ctx context.Context, username string) (City, error) {
	var city City

	result := d.db.WithContext(ctx).First(&city, "LOWER(username) = LOWER(?)", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return City{}, ErrCityNotFound
		}

		return City{}, result.Error
	}

	return city, nil
}

func (d *CityDAO) List(ctx context.Context) ([]City, error) {
	var cities []City

	result := d.db.WithContext(ctx).Order("name").Find(&cities)
	if result.Error != nil {
		return nil, result.Error
	}

	return cities, nil
}

func (d *CityDAO) InsertVenue(ctx context.Context, venue Venue) (Venue, error) {
	result := d.db.WithContext(ctx).Create(&venue)
	if result.Error != nil {
		return Venue{}, result.Error
	}

	return venue, nil
}

func (d *CityDAO) UpdateVenue(ctx context.Context, venue Venue) (Venue, error) {
	result := d.db.WithContext(ctx).Model(&venue).Select("name", "type", "city_id", "campaign_id", "updated_at").Updates(&venue)
	if result.Error != nil {
		return Venue{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Venue{}, ErrVenueNotFound
	}

	return d.FindVenueByID(ctx, venue.ID)
}

func (d *CityDAO) DeleteVenue(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&Venue{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVenueNotFound
	}

	return nil
}

func (d *CityDAO) FindVenueByID(ctx context.Context, id uuid.UUID) (Venue, error) {
	var venue Venue

	result := d.db.WithContext(ctx).First(&venue, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Venue{}, ErrVenueNotFound
		}

		return Venue{}, result.Error
	}

	return venue, nil
}

func (d *CityDAO) ListVenues(ctx context.Context, filter VenueFilter) ([]Venue, error) {
	var venues []Venue

	query := d.db.WithContext(ctx).Order("name")
	if filter.CityID != nil {
		query = query.Where("city_id = ?", *filter.CityID)
	}
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}

	result := query.Find(&venues)
	if result.Error != nil {
		return nil, result.Error
	}

	return venues, nil
}
