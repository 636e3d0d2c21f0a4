// Package jobs holds the background work scheduled next to the API.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

const reconcileTimeout = time.Minute

type GiftLister interface {
	List(ctx context.Context) ([]domain.Gift, error)
}

type WinTally interface {
	CountWinsByGift(ctx context.Context) (map[uuid.UUID]int, error)
}

// Drift is a gift whose counter disagrees with its won tickets.
type Drift struct {
	GiftID         uuid.UUID
	Name           string
	CurrentWinners int
	WonTickets     int
}

// Reconciler compares winner counters with won tickets. It only reports:
// a counter can run ahead of the tickets while a spin is in flight.
type Reconciler struct {
	gifts GiftLister
	wins  WinTally
}

func NewReconciler(gifts GiftLister, wins WinTally) *Reconciler {
	return &Reconciler{
		gifts: gifts,
		wins:  wins,
	}
}

func (r *Reconciler) Run(ctx context.Context) ([]Drift, error) {
	gifts, err := r.gifts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.gifts.List -> %w", err)
	}

	won, err := r.wins.CountWinsByGift(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.wins.CountWinsByGift -> %w", err)
	}

	var drifts []Drift
	for _, g := range gifts {
		if g.CurrentWinners == won[g.ID] {
			continue
		}

		drifts = append(drifts, Drift{
			GiftID:         g.ID,
			Name:           g.Name,
			CurrentWinners: g.CurrentWinners,
			WonTickets:     won[g.ID],
		})
	}

	return drifts, nil
}

func (r *Reconciler) report() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	drifts, err := r.Run(ctx)
	if err != nil {
		zap.L().Error("counter reconciliation failed", zap.Error(err))
		return
	}

	for _, d := range drifts {
		zap.L().Warn("gift counter drift",
			zap.String("gift_id", d.GiftID.String()),
			zap.String("gift", d.Name),
			zap.Int("current_winners", d.CurrentWinners),
			zap.Int("won_tickets", d.WonTickets),
		)
	}
}

// Schedule registers the reconciliation on spec and starts the scheduler.
// Stop the returned scheduler on shutdown.
func Schedule(spec string, r *Reconciler) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	if _, err := scheduler.AddFunc(spec, r.report); err != nil {
		return nil, fmt.Errorf("scheduler.AddFunc -> %w", err)
	}

	scheduler.Start()
	zap.L().Info("counter reconciliation scheduled", zap.String("spec", spec))

	return scheduler, nil
}
