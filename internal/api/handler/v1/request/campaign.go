package request

import (
	"encoding/json"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

var errThemeNotObject = errors.New("theme must be a JSON object")

type CampaignRequest struct {
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	Theme          json.RawMessage `json:"theme" swaggertype:"object"`
	IsActive       *bool           `json:"is_active"`
	AccessUsername string          `json:"access_username"`
	AccessPassword string          `json:"access_password"`
}

func (req *CampaignRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Slug, validation.Length(0, 200)),
		validation.Field(&req.Theme, validation.By(jsonObject)),
		validation.Field(&req.AccessUsername, validation.Length(0, 100)),
		validation.Field(&req.AccessPassword, strongPassword),
	)
}

// Active defaults to true when the field is omitted.
func (req *CampaignRequest) Active() bool {
	return req.IsActive == nil || *req.IsActive
}

type AccessRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req *AccessRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Username, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
}

type CampaignCityLimitRequest struct {
	CityID     uuid.UUID `json:"city_id"`
	MaxWinners int       `json:"max_winners"`
}

func (req *CampaignCityLimitRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.CityID, requiredUUID),
		validation.Field(&req.MaxWinners, validation.Min(0)),
	)
}

func jsonObject(value interface{}) error {
	raw, _ := value.(json.RawMessage)
	if len(raw) == 0 {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return errThemeNotObject
	}

	return nil
}
