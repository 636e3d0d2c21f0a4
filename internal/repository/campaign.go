package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository/dao"
)

var (
	ErrCampaignNotFound   = dao.ErrCampaignNotFound
	ErrCampaignSlugExists = dao.ErrCampaignSlugExists
	ErrLimitNotFound      = dao.ErrLimitNotFound
)

type CampaignDAO interface {
	Insert(ctx context.Context, campaign dao.Campaign) (dao.Campaign, error)
	Update(ctx context.Context, campaign dao.Campaign) (dao.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (dao.Campaign, error)
	FindBySlug(ctx context.Context, slug string) (dao.Campaign, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context) ([]dao.Campaign, error)
	ListCityLimits(ctx context.Context, campaignID uuid.UUID) ([]dao.CampaignCityLimit, error)
	FindCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) (dao.CampaignCityLimit, error)
	UpsertCityLimit(ctx context.Context, limit dao.CampaignCityLimit) (dao.CampaignCityLimit, error)
	DeleteCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) error
}

type CampaignRepository struct {
	dao CampaignDAO
}

func NewCampaignRepository(dao CampaignDAO) *CampaignRepository {
	return &CampaignRepository{
		dao: dao,
	}
}

func (r *CampaignRepository) Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	created, err := r.dao.Insert(ctx, r.domainToDAO(campaign))
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *CampaignRepository) Update(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	updated, err := r.dao.Update(ctx, r.domainToDAO(campaign))
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *CampaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *CampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Campaign, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *CampaignRepository) FindBySlug(ctx context.Context, slug string) (domain.Campaign, error) {
	found, err := r.dao.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("r.dao.FindBySlug -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *CampaignRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	exists, err := r.dao.SlugExists(ctx, slug)
	if err != nil {
		return false, fmt.Errorf("r.dao.SlugExists -> %w", err)
	}

	return exists, nil
}

func (r *CampaignRepository) List(ctx context.Context) ([]domain.Campaign, error) {
	found, err := r.dao.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	campaigns := make([]domain.Campaign, len(found))
	for i, c := range found {
		campaigns[i] = r.daoToDomain(c)
	}

	return campaigns, nil
}

func (r *CampaignRepository) ListCityLimits(ctx context.Context, campaignID uuid.UUID) ([]domain.CampaignCityLimit, error) {
	found, err := r.dao.ListCityLimits(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListCityLimits -> %w", err)
	}

	limits := make([]domain.CampaignCityLimit, len(found))
	for i, l := range found {
		limits[i] = r.cityLimitDaoToDomain(l)
	}

	return limits, nil
}

func (r *CampaignRepository) FindCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) (domain.CampaignCityLimit, error) {
	found, err := r.dao.FindCityLimit(ctx, campaignID, cityID)
	if err != nil {
		return domain.CampaignCityLimit{}, fmt.Errorf("r.dao.FindCityLimit -> %w", err)
	}

	return r.cityLimitDaoToDomain(found), nil
}

func (r *CampaignRepository) UpsertCityLimit(ctx context.Context, limit domain.CampaignCityLimit) (domain.CampaignCityLimit, error) {
	saved, err := r.dao.UpsertCityLimit(ctx, dao.CampaignCityLimit{
		CampaignID: limit.CampaignID,
		CityID:     limit.CityID,
		MaxWinners: limit.MaxWinners,
	})
	if err != nil {
		return domain.CampaignCityLimit{}, fmt.Errorf("r.dao.UpsertCityLimit -> %w", err)
	}

	return r.cityLimitDaoToDomain(saved), nil
}

func (r *CampaignRepository) DeleteCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) error {
	if err := r.dao.DeleteCityLimit(ctx, campaignID, cityID); err != nil {
		return fmt.Errorf("r.dao.DeleteCityLimit -> %w", err)
	}

	return nil
}

func (r *CampaignRepository) domainToDAO(c domain.Campaign) dao.Campaign {
	theme := "{}"
	if len(c.Theme) > 0 && json.Valid(c.Theme) {
		theme = string(c.Theme)
	}

	return dao.Campaign{
		Base:               dao.Base{ID: c.ID},
		Name:               c.Name,
		Slug:               c.Slug,
		Description:        c.Description,
		Theme:              theme,
		IsActive:           c.IsActive,
		AccessUsername:     c.AccessUsername,
		AccessPasswordHash: c.AccessPasswordHash,
	}
}

func (r *CampaignRepository) daoToDomain(c dao.Campaign) domain.Campaign {
	return domain.Campaign{
		ID:                 c.ID,
		Name:               c.Name,
		Slug:               c.Slug,
		Description:        c.Description,
		Theme:              json.RawMessage(c.Theme),
		IsActive:           c.IsActive,
		AccessUsername:     c.AccessUsername,
		AccessPasswordHash: c.AccessPasswordHash,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func (r *CampaignRepository) cityLimitDaoToDomain(l dao.CampaignCityLimit) domain.CampaignCityLimit {
	return domain.CampaignCityLimit{
		ID:         l.ID,
		CampaignID: l.CampaignID,
		CityID:     l.CityID,
		MaxWinners: l.MaxWinners,
		CreatedAt:  l.CreatedAt,
	}
}
