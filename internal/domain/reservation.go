package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrInvalidTransition = errors.New("invalid reservation transition")

type ReservationState string

const (
	Reserved   ReservationState = "reserved"
	Confirmed  ReservationState = "confirmed"
	RolledBack ReservationState = "rolled_back"
)

// Reservation is one unit taken from a gift's global counter. It ends either
// Confirmed, once the participant row records the win, or RolledBack, once
// the unit has been given back to the counter.
type Reservation struct {
	GiftID uuid.UUID
	// Value of current_winners after the reservation.
	Value int
	State ReservationState
}

func NewReservation(giftID uuid.UUID, value int) *Reservation {
	return &Reservation{
		GiftID: giftID,
		Value:  value,
		State:  Reserved,
	}
}

func (r *Reservation) Confirm() error {
	if r.State != Reserved {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, Confirmed)
	}
	r.State = Confirmed

	return nil
}

func (r *Reservation) MarkRolledBack() error {
	if r.State != Reserved {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, RolledBack)
	}
	r.State = RolledBack

	return nil
}

func (r *Reservation) Pending() bool {
	return r.State == Reserved
}
