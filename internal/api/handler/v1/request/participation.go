package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

var (
	errTermsRequired = errors.New("the terms and conditions must be accepted")
	errMissingID     = errors.New("cannot be blank")
)

type RegisterRequest struct {
	Name          string     `json:"name"`
	Code          string     `json:"code"`
	CityID        *uuid.UUID `json:"city_id"`
	VenueID       *uuid.UUID `json:"venue_id"`
	AgreedToTerms bool       `json:"agreed_to_terms"`
}

func (req *RegisterRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Code, validation.Required, validation.Length(1, 64)),
	)
	if err != nil {
		return err
	}

	if !req.AgreedToTerms {
		return errTermsRequired
	}

	return nil
}

type FinalizeRequest struct {
	GiftID uuid.UUID `json:"gift_id"`
}

func (req *FinalizeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.GiftID, requiredUUID),
	)
}

// requiredUUID rejects the zero id. Built-in rules see a uuid.UUID through its
// driver.Valuer as a string and never match uuid.Nil.
var requiredUUID = validation.By(func(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return errMissingID
	}

	return nil
})
