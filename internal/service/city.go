package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository"
)

type CityRepository interface {
	Create(ctx context.Context, city domain.City) (domain.City, error)
	Update(ctx context.Context, city domain.City) (domain.City, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.City, error)
	FindByUsername(ctx context.Context, username string) (domain.City, error)
	List(ctx context.Context) ([]domain.City, error)
	CreateVenue(ctx context.Context, venue domain.Venue) (domain.Venue, error)
	UpdateVenue(ctx context.Context, venue domain.Venue) (domain.Venue, error)
	DeleteVenue(ctx context.Context, id uuid.UUID) error
	FindVenueByID(ctx context.Context, id uuid.UUID) (domain.Venue, error)
	ListVenues(ctx context.Context, cityID, campaignID *uuid.UUID) ([]domain.Venue, error)
}

type CityInput struct {
	Name     string
	Username string
	// Empty keeps the current password on update.
	Password string
}

type VenueInput struct {
	Name       string
	Type       domain.VenueType
	CityID     uuid.UUID
	CampaignID *uuid.UUID
}

type CityService struct {
	repo CityRepository
}

func NewCityService(repo CityRepository) *CityService {
	return &CityService{
		repo: repo,
	}
}

func (s *CityService) CreateCity(ctx context.Context, input CityInput) (domain.City, error) {
	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return domain.City{}, err
	}

	created, err := s.repo.Create(ctx, domain.City{
		Name:         strings.TrimSpace(input.Name),
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hashedPassword,
	})
	if err != nil {
		return domain.City{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *CityService) UpdateCity(ctx context.Context, id uuid.UUID, input CityInput) (domain.City, error) {
	city, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.City{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	city.Name = strings.TrimSpace(input.Name)
	city.Username = strings.TrimSpace(input.Username)
	if input.Password != "" {
		city.PasswordHash, err = hashPassword(input.Password)
		if err != nil {
			return domain.City{}, err
		}
	}

	updated, err := s.repo.Update(ctx, city)
	if err != nil {
		return domain.City{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *CityService) DeleteCity(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *CityService) GetCity(ctx context.Context, id uuid.UUID) (domain.City, error) {
	city, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.City{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return city, nil
}

func (s *CityService) ListCities(ctx context.Context) ([]domain.City, error) {
	cities, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return cities, nil
}

// Login opens a city session for the staff of that city.
func (s *CityService) Login(ctx context.Context, username, password string) (domain.City, error) {
	city, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			return domain.City{}, ErrCityNotFound
		}

		return domain.City{}, fmt.Errorf("s.repo.FindByUsername -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(city.PasswordHash), []byte(password)); err != nil {
		return domain.City{}, ErrWrongPassword
	}

	return city, nil
}

func (s *CityService) CreateVenue(ctx context.Context, input VenueInput) (domain.Venue, error) {
	if _, err := s.repo.FindByID(ctx, input.CityID); err != nil {
		return domain.Venue{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	created, err := s.repo.CreateVenue(ctx, domain.Venue{
		Name:       strings.TrimSpace(input.Name),
		Type:       input.Type,
		CityID:     input.CityID,
		CampaignID: input.CampaignID,
	})
	if err != nil {
		return domain.Venue{}, fmt.Errorf("s.repo.CreateVenue -> %w", err)
	}

	return created, nil
}

func (s *CityService) UpdateVenue(ctx context.Context, id uuid.UUID, input VenueInput) (domain.Venue, error) {
	venue, err := s.repo.FindVenueByID(ctx, id)
	if err != nil {
		return domain.Venue{}, fmt.Errorf("s.repo.FindVenueByID -> %w", err)
	}

	if input.CityID != venue.CityID {
		if _, err = s.repo.FindByID(ctx, input.CityID); err != nil {
			return domain.Venue{}, fmt.Errorf("s.repo.FindByID -> %w", err)
		}
	}

	venue.Name = strings.TrimSpace(input.Name)
	venue.Type = input.Type
	venue.CityID = input.CityID
	venue.CampaignID = input.CampaignID

	updated, err := s.repo.UpdateVenue(ctx, venue)
	if err != nil {
		return domain.Venue{}, fmt.Errorf("s.repo.UpdateVenue -> %w", err)
	}

	return updated, nil
}

func (s *CityService) DeleteVenue(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteVenue(ctx, id); err != nil {
		return fmt.Errorf("s.repo.DeleteVenue -> %w", err)
	}

	return nil
}

func (s *CityService) GetVenue(ctx context.Context, id uuid.UUID) (domain.Venue, error) {
	venue, err := s.repo.FindVenueByID(ctx, id)
	if err != nil {
		return domain.Venue{}, fmt.Errorf("s.repo.FindVenueByID -> %w", err)
	}

	return venue, nil
}

// ListVenues filters on city and campaign when they are given.
func (s *CityService) ListVenues(ctx context.Context, cityID, campaignID *uuid.UUID) ([]domain.Venue, error) {
	venues, err := s.repo.ListVenues(ctx, cityID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListVenues -> %w", err)
	}

	return venues, nil
}
