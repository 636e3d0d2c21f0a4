package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository"
)

type GiftLimitReader interface {
	FindByCampaign(ctx context.Context, campaignID *uuid.UUID) ([]domain.Gift, error)
	ListVenueLimits(ctx context.Context, giftIDs ...uuid.UUID) ([]domain.GiftVenueLimit, error)
	FindCityLimit(ctx context.Context, giftID, cityID uuid.UUID) (domain.GiftCityLimit, error)
}

type CampaignLimitReader interface {
	FindCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) (domain.CampaignCityLimit, error)
}

type WinCounter interface {
	CountWins(ctx context.Context, scope domain.WinScope) (int, error)
}

type ScopePolicies struct {
	City  domain.ScopePolicy
	Venue domain.ScopePolicy
}

func DefaultScopePolicies() ScopePolicies {
	return ScopePolicies{
		City:  domain.OpenByDefault,
		Venue: domain.ClosedByDefault,
	}
}

// AvailabilityService decides which gifts of a campaign can still be won in a
// city and venue. It never writes.
type AvailabilityService struct {
	gifts     GiftLimitReader
	campaigns CampaignLimitReader
	wins      WinCounter
	policies  ScopePolicies
}

func NewAvailabilityService(gifts GiftLimitReader, campaigns CampaignLimitReader, wins WinCounter, policies ScopePolicies) *AvailabilityService {
	return &AvailabilityService{
		gifts:     gifts,
		campaigns: campaigns,
		wins:      wins,
		policies:  policies,
	}
}

// Resolve lists the gifts of campaignID in wheel order with their
// availability. cityID and venueID are optional scopes.
func (s *AvailabilityService) Resolve(ctx context.Context, campaignID, cityID, venueID *uuid.UUID) ([]domain.GiftAvailability, error) {
	gifts, err := s.gifts.FindByCampaign(ctx, campaignID)
	if err != nil {
		return nil, storeError("s.gifts.FindByCampaign", err)
	}
	if len(gifts) == 0 {
		return []domain.GiftAvailability{}, nil
	}

	ids := make([]uuid.UUID, len(gifts))
	for i, g := range gifts {
		ids[i] = g.ID
	}

	venueLimits, err := s.gifts.ListVenueLimits(ctx, ids...)
	if err != nil {
		return nil, storeError("s.gifts.ListVenueLimits", err)
	}
	limitsByGift := make(map[uuid.UUID][]domain.GiftVenueLimit, len(gifts))
	for _, l := range venueLimits {
		limitsByGift[l.GiftID] = append(limitsByGift[l.GiftID], l)
	}

	campaignCityOpen := true
	if campaignID != nil && cityID != nil {
		campaignCityOpen, err = s.campaignCityOpen(ctx, *campaignID, *cityID)
		if err != nil {
			return nil, err
		}
	}

	availability := make([]domain.GiftAvailability, 0, len(gifts))
	for _, gift := range gifts {
		ceiling := domain.EffectiveCeiling(gift, limitsByGift[gift.ID])

		reason, err := s.check(ctx, gift, ceiling, limitsByGift[gift.ID], cityID, venueID, campaignCityOpen)
		if err != nil {
			return nil, err
		}

		availability = append(availability, domain.GiftAvailability{
			Gift:             gift,
			EffectiveCeiling: ceiling,
			Available:        reason == domain.ReasonNone,
			Reason:           reason,
		})
	}

	return availability, nil
}

// check returns the first failing check for gift, or ReasonNone.
func (s *AvailabilityService) check(
	ctx context.Context,
	gift domain.Gift,
	ceiling domain.Ceiling,
	venueLimits []domain.GiftVenueLimit,
	cityID, venueID *uuid.UUID,
	campaignCityOpen bool,
) (domain.Reason, error) {
	if !ceiling.Allows(gift.CurrentWinners) {
		// Venue rows make up the global ceiling: an exhausted venue is the
		// more precise reason.
		if venueID != nil && len(venueLimits) > 0 {
			reason, err := s.venueReason(ctx, gift.ID, venueLimits, *venueID)
			if err != nil || reason != domain.ReasonNone {
				return reason, err
			}
		}

		return domain.ReasonGlobal, nil
	}

	if cityID != nil {
		open, err := s.cityOpen(ctx, gift.ID, *cityID)
		if err != nil {
			return domain.ReasonNone, err
		}
		if !open {
			return domain.ReasonCity, nil
		}
		if !campaignCityOpen {
			return domain.ReasonCampaignCity, nil
		}
	}

	if venueID != nil {
		return s.venueReason(ctx, gift.ID, venueLimits, *venueID)
	}

	return domain.ReasonNone, nil
}

func (s *AvailabilityService) venueReason(ctx context.Context, giftID uuid.UUID, venueLimits []domain.GiftVenueLimit, venueID uuid.UUID) (domain.Reason, error) {
	var limit *domain.GiftVenueLimit
	for i := range venueLimits {
		if venueLimits[i].VenueID == venueID {
			limit = &venueLimits[i]
			break
		}
	}

	if limit == nil {
		if s.policies.Venue == domain.ClosedByDefault {
			return domain.ReasonVenueMissing, nil
		}

		return domain.ReasonNone, nil
	}

	won, err := s.wins.CountWins(ctx, domain.WinScope{GiftID: &giftID, VenueID: &venueID})
	if err != nil {
		return domain.ReasonNone, storeError("s.wins.CountWins", err)
	}
	if won >= limit.MaxWinners {
		return domain.ReasonVenue, nil
	}

	return domain.ReasonNone, nil
}

func (s *AvailabilityService) cityOpen(ctx context.Context, giftID, cityID uuid.UUID) (bool, error) {
	limit, err := s.gifts.FindCityLimit(ctx, giftID, cityID)
	if err != nil {
		if errors.Is(err, repository.ErrLimitNotFound) {
			return s.policies.City != domain.ClosedByDefault, nil
		}

		return false, storeError("s.gifts.FindCityLimit", err)
	}

	won, err := s.wins.CountWins(ctx, domain.WinScope{GiftID: &giftID, CityID: &cityID})
	if err != nil {
		return false, storeError("s.wins.CountWins", err)
	}

	return won < limit.MaxWinners, nil
}

func (s *AvailabilityService) campaignCityOpen(ctx context.Context, campaignID, cityID uuid.UUID) (bool, error) {
	limit, err := s.campaigns.FindCityLimit(ctx, campaignID, cityID)
	if err != nil {
		if errors.Is(err, repository.ErrLimitNotFound) {
			return true, nil
		}

		return false, storeError("s.campaigns.FindCityLimit", err)
	}

	won, err := s.wins.CountWins(ctx, domain.WinScope{CampaignID: &campaignID, CityID: &cityID})
	if err != nil {
		return false, storeError("s.wins.CountWins", err)
	}

	return won < limit.MaxWinners, nil
}
