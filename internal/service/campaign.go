package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

const maxSlugAttempts = 100

type CampaignRepository interface {
	Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error)
	Update(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.Campaign, error)
	FindBySlug(ctx context.Context, slug string) (domain.Campaign, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context) ([]domain.Campaign, error)
	ListCityLimits(ctx context.Context, campaignID uuid.UUID) ([]domain.CampaignCityLimit, error)
	UpsertCityLimit(ctx context.Context, limit domain.CampaignCityLimit) (domain.CampaignCityLimit, error)
	DeleteCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) error
}

type CampaignInput struct {
	Name           string
	Slug           string
	Description    string
	Theme          json.RawMessage
	IsActive       bool
	AccessUsername string
	// Empty keeps the current password on update.
	AccessPassword string
}

type CampaignService struct {
	repo      CampaignRepository
	publicURL string
}

func NewCampaignService(repo CampaignRepository, publicURL string) *CampaignService {
	return &CampaignService{
		repo:      repo,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *CampaignService) CreateCampaign(ctx context.Context, input CampaignInput) (domain.Campaign, error) {
	base := input.Slug
	if base == "" {
		base = input.Name
	}

	campaignSlug, err := s.uniqueSlug(ctx, base)
	if err != nil {
		return domain.Campaign{}, err
	}

	campaign := domain.Campaign{
		Name:           input.Name,
		Slug:           campaignSlug,
		Description:    input.Description,
		Theme:          input.Theme,
		IsActive:       input.IsActive,
		AccessUsername: input.AccessUsername,
	}
	if input.AccessUsername != "" && input.AccessPassword != "" {
		campaign.AccessPasswordHash, err = hashPassword(input.AccessPassword)
		if err != nil {
			return domain.Campaign{}, err
		}
	}

	created, err := s.repo.Create(ctx, campaign)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, id uuid.UUID, input CampaignInput) (domain.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if input.Slug != "" && slug.Make(input.Slug) != campaign.Slug {
		campaign.Slug, err = s.uniqueSlug(ctx, input.Slug)
		if err != nil {
			return domain.Campaign{}, err
		}
	}

	campaign.Name = input.Name
	campaign.Description = input.Description
	if len(input.Theme) > 0 {
		campaign.Theme = input.Theme
	}
	campaign.IsActive = input.IsActive
	campaign.AccessUsername = input.AccessUsername

	switch {
	case input.AccessUsername == "":
		campaign.AccessPasswordHash = ""
	case input.AccessPassword != "":
		campaign.AccessPasswordHash, err = hashPassword(input.AccessPassword)
		if err != nil {
			return domain.Campaign{}, err
		}
	}

	updated, err := s.repo.Update(ctx, campaign)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id uuid.UUID) (domain.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return campaign, nil
}

func (s *CampaignService) GetCampaignBySlug(ctx context.Context, campaignSlug string) (domain.Campaign, error) {
	campaign, err := s.repo.FindBySlug(ctx, campaignSlug)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("s.repo.FindBySlug -> %w", err)
	}

	return campaign, nil
}

func (s *CampaignService) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	campaigns, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return campaigns, nil
}

// VerifyAccess checks the shared credentials of a gated campaign. Campaigns
// without a gate accept anyone.
func (s *CampaignService) VerifyAccess(ctx context.Context, campaignSlug, username, password string) (domain.Campaign, error) {
	campaign, err := s.repo.FindBySlug(ctx, campaignSlug)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("s.repo.FindBySlug -> %w", err)
	}

	if !campaign.Gated() {
		return campaign, nil
	}

	if !strings.EqualFold(strings.TrimSpace(username), campaign.AccessUsername) {
		return domain.Campaign{}, ErrAccessDenied
	}
	if err = bcrypt.CompareHashAndPassword([]byte(campaign.AccessPasswordHash), []byte(password)); err != nil {
		return domain.Campaign{}, ErrAccessDenied
	}

	return campaign, nil
}

// QRCode renders a PNG pointing at the public page of a campaign.
func (s *CampaignService) QRCode(ctx context.Context, id uuid.UUID, size int) ([]byte, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	qr, err := qrcode.New(fmt.Sprintf("%s/c/%s", s.publicURL, campaign.Slug), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qrcode.New -> %w", err)
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, qr.Image(size)); err != nil {
		return nil, fmt.Errorf("png.Encode -> %w", err)
	}

	return buf.Bytes(), nil
}

func (s *CampaignService) ListCityLimits(ctx context.Context, campaignID uuid.UUID) ([]domain.CampaignCityLimit, error) {
	limits, err := s.repo.ListCityLimits(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListCityLimits -> %w", err)
	}

	return limits, nil
}

func (s *CampaignService) SetCityLimit(ctx context.Context, limit domain.CampaignCityLimit) (domain.CampaignCityLimit, error) {
	if _, err := s.repo.FindByID(ctx, limit.CampaignID); err != nil {
		return domain.CampaignCityLimit{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	saved, err := s.repo.UpsertCityLimit(ctx, limit)
	if err != nil {
		return domain.CampaignCityLimit{}, fmt.Errorf("s.repo.UpsertCityLimit -> %w", err)
	}

	return saved, nil
}

func (s *CampaignService) RemoveCityLimit(ctx context.Context, campaignID, cityID uuid.UUID) error {
	if err := s.repo.DeleteCityLimit(ctx, campaignID, cityID); err != nil {
		return fmt.Errorf("s.repo.DeleteCityLimit -> %w", err)
	}

	return nil
}

// uniqueSlug slugifies name and appends -1, -2, ... until the slug is free.
func (s *CampaignService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "campaign"
	}

	candidate := base
	for i := 1; i <= maxSlugAttempts; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("s.repo.SlugExists -> %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	return "", errors.Join(ErrCampaignSlugExists, fmt.Errorf("no free slug for %q", base))
}
