package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

type GiftRepository interface {
	Create(ctx context.Context, gift domain.Gift) (domain.Gift, error)
	Update(ctx context.Context, gift domain.Gift) (domain.Gift, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.Gift, error)
	FindByCampaign(ctx context.Context, campaignID *uuid.UUID) ([]domain.Gift, error)
	List(ctx context.Context) ([]domain.Gift, error)
	ListCityLimits(ctx context.Context, giftID uuid.UUID) ([]domain.GiftCityLimit, error)
	UpsertCityLimit(ctx context.Context, limit domain.GiftCityLimit) (domain.GiftCityLimit, error)
	DeleteCityLimit(ctx context.Context, giftID, cityID uuid.UUID) error
	ListVenueLimits(ctx context.Context, giftIDs ...uuid.UUID) ([]domain.GiftVenueLimit, error)
	UpsertVenueLimit(ctx context.Context, limit domain.GiftVenueLimit) (domain.GiftVenueLimit, error)
	DeleteVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) error
	ResetByID(ctx context.Context, id uuid.UUID) ([]domain.Gift, error)
	ResetByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Gift, error)
	ResetAll(ctx context.Context) ([]domain.Gift, error)
}

type ImageStore interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (url string, storedID string, err error)
	Destroy(ctx context.Context, publicID string) error
}

type GiftInput struct {
	Name       string
	CampaignID *uuid.UUID
	MaxWinners domain.Ceiling
	Emoji      string
	Color      string
}

type GiftService struct {
	repo      GiftRepository
	images    ImageStore
	publisher Publisher
}

// NewGiftService builds the gift administration service. images may be nil,
// uploads then fail with ErrStorageDisabled.
func NewGiftService(repo GiftRepository, images ImageStore, publisher Publisher) *GiftService {
	return &GiftService{
		repo:      repo,
		images:    images,
		publisher: publisher,
	}
}

func (s *GiftService) CreateGift(ctx context.Context, input GiftInput) (domain.Gift, error) {
	created, err := s.repo.Create(ctx, domain.Gift{
		Name:       input.Name,
		CampaignID: input.CampaignID,
		MaxWinners: input.MaxWinners,
		Emoji:      input.Emoji,
		Color:      input.Color,
	})
	if err != nil {
		return domain.Gift{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.publish(ctx, domain.GiftChanged(created))

	return created, nil
}

func (s *GiftService) UpdateGift(ctx context.Context, id uuid.UUID, input GiftInput) (domain.Gift, error) {
	gift, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Gift{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	gift.Name = input.Name
	gift.CampaignID = input.CampaignID
	gift.MaxWinners = input.MaxWinners
	gift.Emoji = input.Emoji
	gift.Color = input.Color

	venueLimits, err := s.repo.ListVenueLimits(ctx, id)
	if err != nil {
		return domain.Gift{}, fmt.Errorf("s.repo.ListVenueLimits -> %w", err)
	}
	if err = keepsWinners(gift, venueLimits); err != nil {
		return domain.Gift{}, err
	}

	updated, err := s.repo.Update(ctx, gift)
	if err != nil {
		return domain.Gift{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	s.publish(ctx, domain.GiftChanged(updated))

	return updated, nil
}

func (s *GiftService) DeleteGift(ctx context.Context, id uuid.UUID) error {
	gift, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err = s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	if gift.ImagePublicID != "" && s.images != nil {
		if err = s.images.Destroy(ctx, gift.ImagePublicID); err != nil {
			zap.L().Warn("gift image cleanup failed", zap.Error(err), zap.String("gift_id", id.String()))
		}
	}

	s.publish(ctx, domain.GiftChanged(gift))

	return nil
}

func (s *GiftService) GetGift(ctx context.Context, id uuid.UUID) (domain.Gift, error) {
	gift, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Gift{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return gift, nil
}

// ListGifts returns every gift, or the gifts of one campaign.
func (s *GiftService) ListGifts(ctx context.Context, campaignID *uuid.UUID) ([]domain.Gift, error) {
	if campaignID == nil {
		gifts, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("s.repo.List -> %w", err)
		}

		return gifts, nil
	}

	gifts, err := s.repo.FindByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByCampaign -> %w", err)
	}

	return gifts, nil
}

// UploadImage stores file as the picture of a gift and drops the picture it
// replaces.
func (s *GiftService) UploadImage(ctx context.Context, id uuid.UUID, file io.Reader) (domain.Gift, error) {
	if s.images == nil {
		return domain.Gift{}, ErrStorageDisabled
	}

	gift, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Gift{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	previous := gift.ImagePublicID

	url, storedID, err := s.images.Upload(ctx, file, fmt.Sprintf("gift-%s-%s", id, uuid.NewString()[:8]))
	if err != nil {
		return domain.Gift{}, fmt.Errorf("s.images.Upload -> %w", err)
	}

	gift.ImageURL = url
	gift.ImagePublicID = storedID

	updated, err := s.repo.Update(ctx, gift)
	if err != nil {
		if destroyErr := s.images.Destroy(ctx, storedID); destroyErr != nil {
			zap.L().Warn("orphan gift image", zap.Error(destroyErr), zap.String("public_id", storedID))
		}

		return domain.Gift{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	if previous != "" && previous != storedID {
		if err = s.images.Destroy(ctx, previous); err != nil {
			zap.L().Warn("previous gift image cleanup failed", zap.Error(err), zap.String("public_id", previous))
		}
	}

	s.publish(ctx, domain.GiftChanged(updated))

	return updated, nil
}

func (s *GiftService) ListCityLimits(ctx context.Context, giftID uuid.UUID) ([]domain.GiftCityLimit, error) {
	limits, err := s.repo.ListCityLimits(ctx, giftID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListCityLimits -> %w", err)
	}

	return limits, nil
}

func (s *GiftService) SetCityLimit(ctx context.Context, limit domain.GiftCityLimit) (domain.GiftCityLimit, error) {
	if _, err := s.repo.FindByID(ctx, limit.GiftID); err != nil {
		return domain.GiftCityLimit{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	saved, err := s.repo.UpsertCityLimit(ctx, limit)
	if err != nil {
		return domain.GiftCityLimit{}, fmt.Errorf("s.repo.UpsertCityLimit -> %w", err)
	}

	return saved, nil
}

func (s *GiftService) RemoveCityLimit(ctx context.Context, giftID, cityID uuid.UUID) error {
	if err := s.repo.DeleteCityLimit(ctx, giftID, cityID); err != nil {
		return fmt.Errorf("s.repo.DeleteCityLimit -> %w", err)
	}

	return nil
}

func (s *GiftService) ListVenueLimits(ctx context.Context, giftID uuid.UUID) ([]domain.GiftVenueLimit, error) {
	limits, err := s.repo.ListVenueLimits(ctx, giftID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListVenueLimits -> %w", err)
	}

	return limits, nil
}

// SetVenueLimit also changes the global ceiling of the gift, which is the sum
// of its venue limits.
func (s *GiftService) SetVenueLimit(ctx context.Context, limit domain.GiftVenueLimit) (domain.GiftVenueLimit, error) {
	gift, err := s.repo.FindByID(ctx, limit.GiftID)
	if err != nil {
		return domain.GiftVenueLimit{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	current, err := s.repo.ListVenueLimits(ctx, limit.GiftID)
	if err != nil {
		return domain.GiftVenueLimit{}, fmt.Errorf("s.repo.ListVenueLimits -> %w", err)
	}
	next := append(withoutVenue(current, limit.VenueID), limit)
	if err = keepsWinners(gift, next); err != nil {
		return domain.GiftVenueLimit{}, err
	}

	saved, err := s.repo.UpsertVenueLimit(ctx, limit)
	if err != nil {
		return domain.GiftVenueLimit{}, fmt.Errorf("s.repo.UpsertVenueLimit -> %w", err)
	}

	s.publish(ctx, domain.GiftChanged(gift))

	return saved, nil
}

func (s *GiftService) RemoveVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) error {
	gift, err := s.repo.FindByID(ctx, giftID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	current, err := s.repo.ListVenueLimits(ctx, giftID)
	if err != nil {
		return fmt.Errorf("s.repo.ListVenueLimits -> %w", err)
	}
	if err = keepsWinners(gift, withoutVenue(current, venueID)); err != nil {
		return err
	}

	if err = s.repo.DeleteVenueLimit(ctx, giftID, venueID); err != nil {
		return fmt.Errorf("s.repo.DeleteVenueLimit -> %w", err)
	}

	return nil
}

// ResetGift clears the winners of one gift: its participants lose their win
// and its counter goes back to 0.
func (s *GiftService) ResetGift(ctx context.Context, id uuid.UUID) ([]domain.Gift, error) {
	gifts, err := s.repo.ResetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ResetByID -> %w", err)
	}
	if len(gifts) == 0 {
		return nil, ErrGiftNotFound
	}

	s.publishReset(ctx, gifts)

	return gifts, nil
}

func (s *GiftService) ResetCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Gift, error) {
	gifts, err := s.repo.ResetByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ResetByCampaign -> %w", err)
	}

	s.publishReset(ctx, gifts)

	return gifts, nil
}

func (s *GiftService) ResetAll(ctx context.Context) ([]domain.Gift, error) {
	gifts, err := s.repo.ResetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ResetAll -> %w", err)
	}

	s.publishReset(ctx, gifts)

	return gifts, nil
}

func (s *GiftService) publishReset(ctx context.Context, gifts []domain.Gift) {
	zap.L().Info("gift winners reset", zap.Int("gifts", len(gifts)))

	for _, g := range gifts {
		s.publish(ctx, domain.GiftChanged(g))
	}
}

// keepsWinners refuses a configuration whose ceiling would fall under the
// winners a gift already has. Lowering stock below that needs a reset first.
func keepsWinners(gift domain.Gift, venueLimits []domain.GiftVenueLimit) error {
	ceiling := domain.EffectiveCeiling(gift, venueLimits)
	if !ceiling.IsUnlimited() && ceiling.Max() < gift.CurrentWinners {
		return fmt.Errorf("%w: %s < %d", ErrCeilingBelowWinners, ceiling, gift.CurrentWinners)
	}

	return nil
}

func withoutVenue(limits []domain.GiftVenueLimit, venueID uuid.UUID) []domain.GiftVenueLimit {
	out := make([]domain.GiftVenueLimit, 0, len(limits))
	for _, l := range limits {
		if l.VenueID != venueID {
			out = append(out, l)
		}
	}

	return out
}

func (s *GiftService) publish(ctx context.Context, event domain.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		zap.L().Warn("event publish failed", zap.Error(err), zap.String("type", string(event.Type)))
	}
}
