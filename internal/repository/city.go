package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository/dao"
)

var (
	ErrCityNotFound       = dao.ErrCityNotFound
	ErrCityUsernameExists = dao.ErrCityUsernameExists
	ErrVenueNotFound      = dao.ErrVenueNotFound
)

type CityDAO interface {
	Insert(ctx context.Context, city dao.City) (dao.City, error)
	Update(ctx context.Context, city dao.City) (dao.City, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (dao.City, error)
	FindByUsername(ctx context.Context, username string) (dao.City, error)
	List(ctx context.Context) ([]dao.City, error)
	InsertVenue(ctx context.Context, venue dao.Venue) (dao.Venue, error)
	UpdateVenue(ctx context.Context, venue dao.Venue) (dao.Venue, error)
	DeleteVenue(ctx context.Context, id uuid.UUID) error
	FindVenueByID(ctx context.Context, id uuid.UUID) (dao.Venue, error)
	ListVenues(ctx context.Context, filter dao.VenueFilter) ([]dao.Venue, error)
}

type CityRepository struct {
	dao CityDAO
}

func NewCityRepository(dao CityDAO) *CityRepository {
	return &CityRepository{
		dao: dao,
	}
}

func (r *CityRepository) Create(ctx context.Context, city domain.City) (domain.City, error) {
	created, err := r.dao.Insert(ctx, dao.City{
		Name:         city.Name,
		Username:     city.Username,
		PasswordHash: city.PasswordHash,
	})
	if err != nil {
		return domain.City{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *CityRepository) Update(ctx context.Context, city domain.City) (domain.City, error) {
	updated, err := r.dao.Update(ctx, dao.City{
		Base:         dao.Base{ID: city.ID},
		Name:         city.Name,
		Username:     city.Username,
		PasswordHash: city.PasswordHash,
	})
	if err != nil {
		return domain.City{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *CityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *CityRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.City, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.City{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *CityRepository) FindByUsername(ctx context.Context, username string) (domain.City, error) {
	found, err := r.dao.FindByUsername(ctx, username)
	if err != nil {
		return domain.City{}, fmt.Errorf("r.dao.FindByUsername -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *CityRepository) List(ctx context.Context) ([]domain.City, error) {
	found, err := r.dao.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	cities := make([]domain.City, len(found))
	for i, c := range found {
		cities[i] = r.daoToDomain(c)
	}

	return cities, nil
}

func (r *CityRepository) CreateVenue(ctx context.Context, venue domain.Venue) (domain.Venue, error) {
	created, err := r.dao.InsertVenue(ctx, r.venueDomainToDAO(venue))
	if err != nil {
		return domain.Venue{}, fmt.Errorf("r.dao.InsertVenue -> %w", err)
	}

	return r.venueDaoToDomain(created), nil
}

func (r *CityRepository) UpdateVenue(ctx context.Context, venue domain.Venue) (domain.Venue, error) {
	updated, err := r.dao.UpdateVenue(ctx, r.venueDomainToDAO(venue))
	if err != nil {
		return domain.Venue{}, fmt.Errorf("r.dao.UpdateVenue -> %w", err)
	}

	return r.venueDaoToDomain(updated), nil
}

func (r *CityRepository) DeleteVenue(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.DeleteVenue(ctx, id); err != nil {
		return fmt.Errorf("r.dao.DeleteVenue -> %w", err)
	}

	return nil
}

func (r *CityRepository) FindVenueByID(ctx context.Context, id uuid.UUID) (domain.Venue, error) {
	found, err := r.dao.FindVenueByID(ctx, id)
	if err != nil {
		return domain.Venue{}, fmt.Errorf("r.dao.FindVenueByID -> %w", err)
	}

	return r.venueDaoToDomain(found), nil
}

func (r *CityRepository) ListVenues(ctx context.Context, cityID, campaignID *uuid.UUID) ([]domain.Venue, error) {
	found, err := r.dao.ListVenues(ctx, dao.VenueFilter{CityID: cityID, CampaignID: campaignID})
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListVenues -> %w", err)
	}

	venues := make([]domain.Venue, len(found))
	for i, v := range found {
		venues[i] = r.venueDaoToDomain(v)
	}

	return venues, nil
}

func (r *CityRepository) daoToDomain(c dao.City) domain.City {
	return domain.City{
		ID:           c.ID,
		Name:         c.Name,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r *CityRepository) venueDomainToDAO(v domain.Venue) dao.Venue {
	return dao.Venue{
		Base:       dao.Base{ID: v.ID},
		Name:       v.Name,
		Type:       string(v.Type),
		CityID:     v.CityID,
		CampaignID: v.CampaignID,
	}
}

func (r *CityRepository) venueDaoToDomain(v dao.Venue) domain.Venue {
	return domain.Venue{
		ID:         v.ID,
		Name:       v.Name,
		Type:       domain.VenueType(v.Type),
		CityID:     v.CityID,
		CampaignID: v.CampaignID,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}
