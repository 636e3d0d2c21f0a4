package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository/dao"
)

var (
	ErrParticipantNotFound   = dao.ErrParticipantNotFound
	ErrParticipantCodeExists = dao.ErrParticipantCodeExists
)

type ParticipantDAO interface {
	Insert(ctx context.Context, participant dao.Participant) (dao.Participant, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Participant, error)
	MarkWon(ctx context.Context, id, prizeID uuid.UUID, wonAt time.Time) (int64, error)
	CountWins(ctx context.Context, filter dao.WinFilter) (int64, error)
	CountWinsByGift(ctx context.Context) ([]dao.GiftWinCount, error)
	List(ctx context.Context, filter dao.ParticipantFilter) ([]dao.Participant, error)
}

type ParticipantRepository struct {
	dao ParticipantDAO
}

func NewParticipantRepository(dao ParticipantDAO) *ParticipantRepository {
	return &ParticipantRepository{
		dao: dao,
	}
}

func (r *ParticipantRepository) Create(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	created, err := r.dao.Insert(ctx, dao.Participant{
		Name:          p.Name,
		Code:          p.Code,
		City:          p.City,
		CityID:        p.CityID,
		VenueID:       p.VenueID,
		CampaignID:    p.CampaignID,
		AgreedToTerms: p.AgreedToTerms,
	})
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ParticipantRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Participant, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

// MarkWon reports whether this call recorded the win. false means the
// participant had already won.
func (r *ParticipantRepository) MarkWon(ctx context.Context, id, prizeID uuid.UUID, wonAt time.Time) (bool, error) {
	affected, err := r.dao.MarkWon(ctx, id, prizeID, wonAt)
	if err != nil {
		return false, fmt.Errorf("r.dao.MarkWon -> %w", err)
	}

	return affected == 1, nil
}

func (r *ParticipantRepository) CountWins(ctx context.Context, scope domain.WinScope) (int, error) {
	count, err := r.dao.CountWins(ctx, dao.WinFilter{
		GiftID:     scope.GiftID,
		CityID:     scope.CityID,
		VenueID:    scope.VenueID,
		CampaignID: scope.CampaignID,
	})
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountWins -> %w", err)
	}

	return int(count), nil
}

func (r *ParticipantRepository) CountWinsByGift(ctx context.Context) (map[uuid.UUID]int, error) {
	found, err := r.dao.CountWinsByGift(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.CountWinsByGift -> %w", err)
	}

	counts := make(map[uuid.UUID]int, len(found))
	for _, c := range found {
		counts[c.PrizeID] = c.Count
	}

	return counts, nil
}

func (r *ParticipantRepository) List(ctx context.Context, query domain.ParticipantQuery) ([]domain.Participant, error) {
	found, err := r.dao.List(ctx, dao.ParticipantFilter{
		CampaignID: query.CampaignID,
		Won:        query.Won,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	participants := make([]domain.Participant, len(found))
	for i, p := range found {
		participants[i] = r.daoToDomain(p)
	}

	return participants, nil
}

func (r *ParticipantRepository) daoToDomain(p dao.Participant) domain.Participant {
	return domain.Participant{
		ID:            p.ID,
		Name:          p.Name,
		Code:          p.Code,
		City:          p.City,
		CityID:        p.CityID,
		VenueID:       p.VenueID,
		CampaignID:    p.CampaignID,
		AgreedToTerms: p.AgreedToTerms,
		Won:           p.Won,
		PrizeID:       p.PrizeID,
		WonAt:         p.WonAt,
		CreatedAt:     p.CreatedAt,
	}
}
