package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

const (
	defaultCASAttempts    = 3
	rollbackAttemptFactor = 4
)

type GiftCounterStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Gift, error)
	CompareAndSwapWinners(ctx context.Context, id uuid.UUID, expected, next int) (bool, error)
}

// InventoryCounter moves the global winner counter of a gift with
// compare-and-swap writes only.
type InventoryCounter struct {
	store       GiftCounterStore
	maxAttempts int
}

func NewInventoryCounter(store GiftCounterStore, maxAttempts int) *InventoryCounter {
	if maxAttempts < 1 {
		maxAttempts = defaultCASAttempts
	}

	return &InventoryCounter{
		store:       store,
		maxAttempts: maxAttempts,
	}
}

// TryReserve takes one unit of giftID under ceiling.
func (c *InventoryCounter) TryReserve(ctx context.Context, giftID uuid.UUID, ceiling domain.Ceiling) (*domain.Reservation, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		gift, err := c.store.FindByID(ctx, giftID)
		if err != nil {
			return nil, storeError("c.store.FindByID", err)
		}

		if !ceiling.Allows(gift.CurrentWinners) {
			return nil, ErrGlobalLimitReached
		}

		next := gift.CurrentWinners + 1
		swapped, err := c.store.CompareAndSwapWinners(ctx, giftID, gift.CurrentWinners, next)
		if err != nil {
			return nil, storeError("c.store.CompareAndSwapWinners", err)
		}
		if swapped {
			return domain.NewReservation(giftID, next), nil
		}

		zap.L().Debug("gift counter changed during reservation",
			zap.String("gift_id", giftID.String()),
			zap.Int("attempt", attempt),
		)
	}

	return nil, ErrGlobalLimitReached
}

// RollBack gives the unit held by r back to the counter. A counter that is
// already at 0, after an operator reset for instance, is left alone.
func (c *InventoryCounter) RollBack(ctx context.Context, r *domain.Reservation) error {
	if !r.Pending() {
		return fmt.Errorf("%w: rollback of a %s reservation", domain.ErrInvalidTransition, r.State)
	}

	for attempt := 1; attempt <= c.maxAttempts*rollbackAttemptFactor; attempt++ {
		gift, err := c.store.FindByID(ctx, r.GiftID)
		if err != nil {
			return storeError("c.store.FindByID", err)
		}

		if gift.CurrentWinners <= 0 {
			zap.L().Warn("gift counter already at zero on rollback", zap.String("gift_id", r.GiftID.String()))

			return r.MarkRolledBack()
		}

		swapped, err := c.store.CompareAndSwapWinners(ctx, r.GiftID, gift.CurrentWinners, gift.CurrentWinners-1)
		if err != nil {
			return storeError("c.store.CompareAndSwapWinners", err)
		}
		if swapped {
			return r.MarkRolledBack()
		}
	}

	return fmt.Errorf("%w: rollback of gift %s did not settle", ErrStoreUnavailable, r.GiftID)
}
