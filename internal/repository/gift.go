package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository/dao"
)

var (
	ErrGiftNotFound   = dao.ErrGiftNotFound
	ErrGiftHasWinners = dao.ErrGiftHasWinners
)

type GiftDAO interface {
	Insert(ctx context.Context, gift dao.Gift) (dao.Gift, error)
	Update(ctx context.Context, gift dao.Gift) (dao.Gift, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (dao.Gift, error)
	FindByCampaign(ctx context.Context, campaignID *uuid.UUID) ([]dao.Gift, error)
	List(ctx context.Context) ([]dao.Gift, error)
	CompareAndSwapWinners(ctx context.Context, id uuid.UUID, expected, next int) (int64, error)
	ListCityLimits(ctx context.Context, giftID uuid.UUID) ([]dao.GiftCityLimit, error)
	FindCityLimit(ctx context.Context, giftID, cityID uuid.UUID) (dao.GiftCityLimit, error)
	UpsertCityLimit(ctx context.Context, limit dao.GiftCityLimit) (dao.GiftCityLimit, error)
	DeleteCityLimit(ctx context.Context, giftID, cityID uuid.UUID) error
	ListVenueLimits(ctx context.Context, giftIDs ...uuid.UUID) ([]dao.GiftVenueLimit, error)
	FindVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) (dao.GiftVenueLimit, error)
	UpsertVenueLimit(ctx context.Context, limit dao.GiftVenueLimit) (dao.GiftVenueLimit, error)
	DeleteVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) error
	ResetByID(ctx context.Context, id uuid.UUID) ([]dao.Gift, error)
	ResetByCampaign(ctx context.Context, campaignID uuid.UUID) ([]dao.Gift, error)
	ResetAll(ctx context.Context) ([]dao.Gift, error)
}

type GiftRepository struct {
	dao GiftDAO
	// A stored max_winners of 0 reads as unlimited.
	zeroCeilingUnlimited bool
}

func NewGiftRepository(dao GiftDAO, zeroCeilingUnlimited bool) *GiftRepository {
	return &GiftRepository{
		dao:                  dao,
		zeroCeilingUnlimited: zeroCeilingUnlimited,
	}
}

func (r *GiftRepository) Create(ctx context.Context, gift domain.Gift) (domain.Gift, error) {
	created, err := r.dao.Insert(ctx, r.domainToDAO(gift))
	if err != nil {
		return domain.Gift{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *GiftRepository) Update(ctx context.Context, gift domain.Gift) (domain.Gift, error) {
	updated, err := r.dao.Update(ctx, r.domainToDAO(gift))
	if err != nil {
		return domain.Gift{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *GiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *GiftRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Gift, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Gift{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *GiftRepository) FindByCampaign(ctx context.Context, campaignID *uuid.UUID) ([]domain.Gift, error) {
	found, err := r.dao.FindByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByCampaign -> %w", err)
	}

	return r.daoToDomainList(found), nil
}

func (r *GiftRepository) List(ctx context.Context) ([]domain.Gift, error) {
	found, err := r.dao.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	return r.daoToDomainList(found), nil
}

// CompareAndSwapWinners reports whether current_winners moved from expected
// to next.
func (r *GiftRepository) CompareAndSwapWinners(ctx context.Context, id uuid.UUID, expected, next int) (bool, error) {
	affected, err := r.dao.CompareAndSwapWinners(ctx, id, expected, next)
	if err != nil {
		return false, fmt.Errorf("r.dao.CompareAndSwapWinners -> %w", err)
	}

	return affected == 1, nil
}

func (r *GiftRepository) ListCityLimits(ctx context.Context, giftID uuid.UUID) ([]domain.GiftCityLimit, error) {
	found, err := r.dao.ListCityLimits(ctx, giftID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListCityLimits -> %w", err)
	}

	limits := make([]domain.GiftCityLimit, len(found))
	for i, l := range found {
		limits[i] = r.cityLimitDaoToDomain(l)
	}

	return limits, nil
}

func (r *GiftRepository) FindCityLimit(ctx context.Context, giftID, cityID uuid.UUID) (domain.GiftCityLimit, error) {
	found, err := r.dao.FindCityLimit(ctx, giftID, cityID)
	if err != nil {
		return domain.GiftCityLimit{}, fmt.Errorf("r.dao.FindCityLimit -> %w", err)
	}

	return r.cityLimitDaoToDomain(found), nil
}

func (r *GiftRepository) UpsertCityLimit(ctx context.Context, limit domain.GiftCityLimit) (domain.GiftCityLimit, error) {
	saved, err := r.dao.UpsertCityLimit(ctx, dao.GiftCityLimit{
		GiftID:     limit.GiftID,
		CityID:     limit.CityID,
		MaxWinners: limit.MaxWinners,
	})
	if err != nil {
		return domain.GiftCityLimit{}, fmt.Errorf("r.dao.UpsertCityLimit -> %w", err)
	}

	return r.cityLimitDaoToDomain(saved), nil
}

func (r *GiftRepository) DeleteCityLimit(ctx context.Context, giftID, cityID uuid.UUID) error {
	if err := r.dao.DeleteCityLimit(ctx, giftID, cityID); err != nil {
		return fmt.Errorf("r.dao.DeleteCityLimit -> %w", err)
	}

	return nil
}

func (r *GiftRepository) ListVenueLimits(ctx context.Context, giftIDs ...uuid.UUID) ([]domain.GiftVenueLimit, error) {
	found, err := r.dao.ListVenueLimits(ctx, giftIDs...)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListVenueLimits -> %w", err)
	}

	limits := make([]domain.GiftVenueLimit, len(found))
	for i, l := range found {
		limits[i] = r.venueLimitDaoToDomain(l)
	}

	return limits, nil
}

func (r *GiftRepository) FindVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) (domain.GiftVenueLimit, error) {
	found, err := r.dao.FindVenueLimit(ctx, giftID, venueID)
	if err != nil {
		return domain.GiftVenueLimit{}, fmt.Errorf("r.dao.FindVenueLimit -> %w", err)
	}

	return r.venueLimitDaoToDomain(found), nil
}

func (r *GiftRepository) UpsertVenueLimit(ctx context.Context, limit domain.GiftVenueLimit) (domain.GiftVenueLimit, error) {
	saved, err := r.dao.UpsertVenueLimit(ctx, dao.GiftVenueLimit{
		GiftID:     limit.GiftID,
		VenueID:    limit.VenueID,
		MaxWinners: limit.MaxWinners,
	})
	if err != nil {
		return domain.GiftVenueLimit{}, fmt.Errorf("r.dao.UpsertVenueLimit -> %w", err)
	}

	return r.venueLimitDaoToDomain(saved), nil
}

func (r *GiftRepository) DeleteVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) error {
	if err := r.dao.DeleteVenueLimit(ctx, giftID, venueID); err != nil {
		return fmt.Errorf("r.dao.DeleteVenueLimit -> %w", err)
	}

	return nil
}

func (r *GiftRepository) ResetByID(ctx context.Context, id uuid.UUID) ([]domain.Gift, error) {
	reset, err := r.dao.ResetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ResetByID -> %w", err)
	}

	return r.daoToDomainList(reset), nil
}

func (r *GiftRepository) ResetByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Gift, error) {
	reset, err := r.dao.ResetByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ResetByCampaign -> %w", err)
	}

	return r.daoToDomainList(reset), nil
}

func (r *GiftRepository) ResetAll(ctx context.Context) ([]domain.Gift, error) {
	reset, err := r.dao.ResetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ResetAll -> %w", err)
	}

	return r.daoToDomainList(reset), nil
}

func (r *GiftRepository) domainToDAO(g domain.Gift) dao.Gift {
	return dao.Gift{
		Base:           dao.Base{ID: g.ID},
		Name:           g.Name,
		CampaignID:     g.CampaignID,
		MaxWinners:     g.MaxWinners.Nullable(),
		CurrentWinners: g.CurrentWinners,
		Emoji:          g.Emoji,
		ImageURL:       g.ImageURL,
		ImagePublicID:  g.ImagePublicID,
		Color:          g.Color,
	}
}

func (r *GiftRepository) daoToDomain(g dao.Gift) domain.Gift {
	return domain.Gift{
		ID:             g.ID,
		Name:           g.Name,
		CampaignID:     g.CampaignID,
		MaxWinners:     domain.CeilingFromNullable(g.MaxWinners, r.zeroCeilingUnlimited),
		CurrentWinners: g.CurrentWinners,
		Emoji:          g.Emoji,
		ImageURL:       g.ImageURL,
		ImagePublicID:  g.ImagePublicID,
		Color:          g.Color,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

func (r *GiftRepository) daoToDomainList(found []dao.Gift) []domain.Gift {
	gifts := make([]domain.Gift, len(found))
	for i, g := range found {
		gifts[i] = r.daoToDomain(g)
	}

	return gifts
}

func (r *GiftRepository) cityLimitDaoToDomain(l dao.GiftCityLimit) domain.GiftCityLimit {
	return domain.GiftCityLimit{
		ID:         l.ID,
		GiftID:     l.GiftID,
		CityID:     l.CityID,
		MaxWinners: l.MaxWinners,
		CreatedAt:  l.CreatedAt,
	}
}

func (r *GiftRepository) venueLimitDaoToDomain(l dao.GiftVenueLimit) domain.GiftVenueLimit {
	return domain.GiftVenueLimit{
		ID:         l.ID,
		GiftID:     l.GiftID,
		VenueID:    l.VenueID,
		MaxWinners: l.MaxWinners,
		CreatedAt:  l.CreatedAt,
	}
}
