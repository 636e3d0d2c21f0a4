package service

import (
	"errors"
	"fmt"

	"github.com/rouemaroc/spinwheel/internal/repository"
)

// Outcomes of the allocation engine. Every store failure it meets is turned
// into one of these.
var (
	ErrAlreadySpun             = errors.New("participant has already spun")
	ErrNoLongerAvailable       = errors.New("gift is no longer available")
	ErrGlobalLimitReached      = errors.New("gift global limit reached")
	ErrVenueStockNotConfigured = errors.New("gift has no stock configured for this venue")
	ErrVenueStockExhausted     = errors.New("gift stock exhausted for this venue")
	ErrStoreUnavailable        = errors.New("store unavailable")
	ErrNotFound                = errors.New("not found")
)

var (
	ErrInvalidParticipation  = errors.New("invalid participation")
	ErrTermsNotAccepted      = errors.New("terms and conditions must be accepted")
	ErrCampaignInactive      = errors.New("campaign is not active")
	ErrVenueCityMismatch     = errors.New("venue does not belong to this city")
	ErrVenueCampaignMismatch = errors.New("venue does not belong to this campaign")
	ErrWrongPassword         = errors.New("wrong password")
	ErrAccessDenied          = errors.New("access denied")
	ErrStorageDisabled       = errors.New("image storage is not configured")
	ErrCeilingBelowWinners   = errors.New("ceiling is below the current number of winners")
)

var (
	ErrCampaignNotFound      = repository.ErrCampaignNotFound
	ErrCampaignSlugExists    = repository.ErrCampaignSlugExists
	ErrCityNotFound          = repository.ErrCityNotFound
	ErrCityUsernameExists    = repository.ErrCityUsernameExists
	ErrVenueNotFound         = repository.ErrVenueNotFound
	ErrGiftNotFound          = repository.ErrGiftNotFound
	ErrGiftHasWinners        = repository.ErrGiftHasWinners
	ErrLimitNotFound         = repository.ErrLimitNotFound
	ErrParticipantNotFound   = repository.ErrParticipantNotFound
	ErrAdminNotFound         = repository.ErrAdminNotFound
	ErrAdminUsernameExists   = repository.ErrAdminUsernameExists
	ErrParticipantCodeExists = repository.ErrParticipantCodeExists
)

// Retryable reports whether the same call may succeed when repeated.
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// storeError turns a repository failure into an error kind. The underlying
// error is formatted, not wrapped, so callers can only match the kind.
func storeError(op string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}

	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrParticipantNotFound) ||
		errors.Is(err, repository.ErrGiftNotFound) ||
		errors.Is(err, repository.ErrCampaignNotFound) ||
		errors.Is(err, repository.ErrCityNotFound) ||
		errors.Is(err, repository.ErrVenueNotFound) ||
		errors.Is(err, repository.ErrAdminNotFound)
}
