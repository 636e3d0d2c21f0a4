package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository"
)

type SpinParticipantStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Participant, error)
	MarkWon(ctx context.Context, id, prizeID uuid.UUID, wonAt time.Time) (bool, error)
	CountWins(ctx context.Context, scope domain.WinScope) (int, error)
}

type VenueStockReader interface {
	FindVenueLimit(ctx context.Context, giftID, venueID uuid.UUID) (domain.GiftVenueLimit, error)
}

// Publisher receives events once the change they describe is committed.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

type AllocationService struct {
	participants SpinParticipantStore
	venueStock   VenueStockReader
	resolver     *AvailabilityService
	counter      *InventoryCounter
	publisher    Publisher
	venuePolicy  domain.ScopePolicy
	now          func() time.Time
}

func NewAllocationService(
	participants SpinParticipantStore,
	venueStock VenueStockReader,
	resolver *AvailabilityService,
	counter *InventoryCounter,
	publisher Publisher,
) *AllocationService {
	return &AllocationService{
		participants: participants,
		venueStock:   venueStock,
		resolver:     resolver,
		counter:      counter,
		publisher:    publisher,
		venuePolicy:  resolver.policies.Venue,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// FinalizeSpin awards giftID to the participant. The campaign, city and venue
// used for every check come from the participant row, never from the caller.
func (s *AllocationService) FinalizeSpin(ctx context.Context, participantID, giftID uuid.UUID) (domain.SpinResult, error) {
	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		return domain.SpinResult{}, storeError("s.participants.FindByID", err)
	}
	if participant.Won {
		return domain.SpinResult{}, ErrAlreadySpun
	}

	availability, err := s.resolver.Resolve(ctx, participant.CampaignID, participant.CityID, participant.VenueID)
	if err != nil {
		return domain.SpinResult{}, err
	}

	selected, ok := findAvailability(availability, giftID)
	if !ok {
		return domain.SpinResult{}, ErrNoLongerAvailable
	}
	if !selected.Available {
		return domain.SpinResult{}, unavailableError(selected.Reason)
	}

	reservation, err := s.counter.TryReserve(ctx, giftID, selected.EffectiveCeiling)
	if err != nil {
		return domain.SpinResult{}, err
	}

	if participant.VenueID != nil {
		if err = s.checkVenueStock(ctx, giftID, *participant.VenueID); err != nil {
			s.rollBack(ctx, reservation)
			return domain.SpinResult{}, err
		}
	}

	wonAt := s.now()
	marked, err := s.participants.MarkWon(ctx, participant.ID, giftID, wonAt)
	if err != nil {
		s.rollBack(ctx, reservation)
		return domain.SpinResult{}, storeError("s.participants.MarkWon", err)
	}
	if !marked {
		s.rollBack(ctx, reservation)
		return domain.SpinResult{}, ErrAlreadySpun
	}

	if err = reservation.Confirm(); err != nil {
		zap.L().Error("reservation confirm", zap.Error(err), zap.String("gift_id", giftID.String()))
	}

	gift := selected.Gift
	gift.CurrentWinners = reservation.Value

	participant.Won = true
	participant.PrizeID = &giftID
	participant.WonAt = &wonAt

	s.publish(ctx, domain.GiftChanged(gift), domain.SpinWon(participant, gift))

	zap.L().Info("spin finalized",
		zap.String("participant_id", participant.ID.String()),
		zap.String("gift_id", giftID.String()),
		zap.Int("current_winners", gift.CurrentWinners),
	)

	return domain.SpinResult{
		Participant: participant,
		Gift:        gift,
	}, nil
}

func (s *AllocationService) checkVenueStock(ctx context.Context, giftID, venueID uuid.UUID) error {
	limit, err := s.venueStock.FindVenueLimit(ctx, giftID, venueID)
	if err != nil {
		if errors.Is(err, repository.ErrLimitNotFound) {
			if s.venuePolicy == domain.OpenByDefault {
				return nil
			}

			return ErrVenueStockNotConfigured
		}

		return storeError("s.venueStock.FindVenueLimit", err)
	}

	won, err := s.participants.CountWins(ctx, domain.WinScope{GiftID: &giftID, VenueID: &venueID})
	if err != nil {
		return storeError("s.participants.CountWins", err)
	}
	if won >= limit.MaxWinners {
		return ErrVenueStockExhausted
	}

	return nil
}

func (s *AllocationService) rollBack(ctx context.Context, reservation *domain.Reservation) {
	if err := s.counter.RollBack(context.WithoutCancel(ctx), reservation); err != nil {
		zap.L().Error("reservation rollback failed",
			zap.Error(err),
			zap.String("gift_id", reservation.GiftID.String()),
		)
	}
}

func (s *AllocationService) publish(ctx context.Context, events ...domain.Event) {
	ctx = context.WithoutCancel(ctx)
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			zap.L().Warn("event publish failed", zap.Error(err), zap.String("type", string(event.Type)))
		}
	}
}

// unavailableError keeps ErrNoLongerAvailable matchable and adds the kind of
// the failed check when there is one.
func unavailableError(reason domain.Reason) error {
	switch reason {
	case domain.ReasonGlobal:
		return fmt.Errorf("%w: %w", ErrNoLongerAvailable, ErrGlobalLimitReached)
	case domain.ReasonVenueMissing:
		return fmt.Errorf("%w: %w", ErrNoLongerAvailable, ErrVenueStockNotConfigured)
	case domain.ReasonVenue:
		return fmt.Errorf("%w: %w", ErrNoLongerAvailable, ErrVenueStockExhausted)
	default:
		return fmt.Errorf("%w: %s", ErrNoLongerAvailable, reason)
	}
}

func findAvailability(availability []domain.GiftAvailability, giftID uuid.UUID) (domain.GiftAvailability, bool) {
	for _, a := range availability {
		if a.Gift.ID == giftID {
			return a, true
		}
	}

	return domain.GiftAvailability{}, false
}
