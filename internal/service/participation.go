package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository"
)

type ParticipantRepository interface {
	Create(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Participant, error)
	List(ctx context.Context, query domain.ParticipantQuery) ([]domain.Participant, error)
}

type ParticipationCampaignReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Campaign, error)
}

type ParticipationCityReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.City, error)
	FindVenueByID(ctx context.Context, id uuid.UUID) (domain.Venue, error)
}

type RegisterInput struct {
	CampaignID    uuid.UUID
	Name          string
	Code          string
	CityID        *uuid.UUID
	VenueID       *uuid.UUID
	AgreedToTerms bool
}

type ParticipationService struct {
	participants ParticipantRepository
	campaigns    ParticipationCampaignReader
	cities       ParticipationCityReader
	resolver     *AvailabilityService
	now          func() time.Time
}

func NewParticipationService(
	participants ParticipantRepository,
	campaigns ParticipationCampaignReader,
	cities ParticipationCityReader,
	resolver *AvailabilityService,
) *ParticipationService {
	return &ParticipationService{
		participants: participants,
		campaigns:    campaigns,
		cities:       cities,
		resolver:     resolver,
		now:          time.Now,
	}
}

// Register issues a pending ticket for a campaign.
func (s *ParticipationService) Register(ctx context.Context, input RegisterInput) (domain.TicketIssue, error) {
	name := strings.TrimSpace(input.Name)
	code := domain.NormalizeCode(input.Code)
	if name == "" || code == "" {
		return domain.TicketIssue{}, fmt.Errorf("%w: name and code are required", ErrInvalidParticipation)
	}
	if !input.AgreedToTerms {
		return domain.TicketIssue{}, ErrTermsNotAccepted
	}

	campaign, err := s.campaigns.FindByID(ctx, input.CampaignID)
	if err != nil {
		return domain.TicketIssue{}, storeError("s.campaigns.FindByID", err)
	}
	if !campaign.IsActive {
		return domain.TicketIssue{}, ErrCampaignInactive
	}

	cityID := input.CityID
	if input.VenueID != nil {
		venue, err := s.cities.FindVenueByID(ctx, *input.VenueID)
		if err != nil {
			return domain.TicketIssue{}, storeError("s.cities.FindVenueByID", err)
		}
		if cityID != nil && venue.CityID != *cityID {
			return domain.TicketIssue{}, ErrVenueCityMismatch
		}
		if venue.CampaignID != nil && *venue.CampaignID != campaign.ID {
			return domain.TicketIssue{}, ErrVenueCampaignMismatch
		}
		cityID = &venue.CityID
	}

	var cityName string
	if cityID != nil {
		city, err := s.cities.FindByID(ctx, *cityID)
		if err != nil {
			return domain.TicketIssue{}, storeError("s.cities.FindByID", err)
		}
		cityName = city.Name
	}

	campaignID := campaign.ID

	return s.issueTicket(ctx, domain.Participant{
		Name:          name,
		Code:          code,
		City:          cityName,
		CityID:        cityID,
		VenueID:       input.VenueID,
		CampaignID:    &campaignID,
		AgreedToTerms: true,
	})
}

// Replay gives a participant who already won a fresh ticket with the same
// identity. A ticket that has not spun yet is handed back unchanged.
func (s *ParticipationService) Replay(ctx context.Context, participantID uuid.UUID) (domain.TicketIssue, error) {
	source, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		return domain.TicketIssue{}, storeError("s.participants.FindByID", err)
	}

	if !source.Won {
		return domain.TicketIssue{
			Participant: source,
			Outcome:     domain.Reused,
		}, nil
	}

	return s.issueTicket(ctx, domain.Participant{
		Name:          source.Name,
		Code:          baseCode(source.Code),
		City:          source.City,
		CityID:        source.CityID,
		VenueID:       source.VenueID,
		CampaignID:    source.CampaignID,
		AgreedToTerms: source.AgreedToTerms,
	})
}

// GetSpin returns a ticket with what its wheel can still land on.
func (s *ParticipationService) GetSpin(ctx context.Context, participantID uuid.UUID) (domain.SpinView, error) {
	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		return domain.SpinView{}, storeError("s.participants.FindByID", err)
	}

	view := domain.SpinView{Participant: participant}

	if participant.CampaignID != nil {
		campaign, err := s.campaigns.FindByID(ctx, *participant.CampaignID)
		if err != nil {
			return domain.SpinView{}, storeError("s.campaigns.FindByID", err)
		}
		view.Campaign = &campaign
	}

	view.Availability, err = s.resolver.Resolve(ctx, participant.CampaignID, participant.CityID, participant.VenueID)
	if err != nil {
		return domain.SpinView{}, err
	}

	return view, nil
}

func (s *ParticipationService) ListParticipants(ctx context.Context, query domain.ParticipantQuery) ([]domain.Participant, error) {
	participants, err := s.participants.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("s.participants.List -> %w", err)
	}

	return participants, nil
}

// issueTicket inserts p. When its code is taken, a suffixed code is tried
// once more.
func (s *ParticipationService) issueTicket(ctx context.Context, p domain.Participant) (domain.TicketIssue, error) {
	created, err := s.participants.Create(ctx, p)
	if err == nil {
		return domain.TicketIssue{Participant: created, Outcome: domain.Issued}, nil
	}
	if !errors.Is(err, repository.ErrParticipantCodeExists) {
		return domain.TicketIssue{}, storeError("s.participants.Create", err)
	}

	base := p.Code
	p.Code = base + "-" + s.codeSuffix()
	zap.L().Debug("participant code taken, retrying with suffix", zap.String("code", base), zap.String("retry", p.Code))

	created, err = s.participants.Create(ctx, p)
	if err != nil {
		return domain.TicketIssue{}, storeError("s.participants.Create", err)
	}

	return domain.TicketIssue{Participant: created, Outcome: domain.IssuedWithSuffix}, nil
}

// suffixedCode matches the tail codeSuffix appends: a base36 millisecond stamp
// followed by four hex digits.
var suffixedCode = regexp.MustCompile(`-[0-9A-Z]{12}$`)

// baseCode strips a suffix added by an earlier retry, so replaying a replay
// suffixes the original code once.
func baseCode(code string) string {
	return suffixedCode.ReplaceAllString(code, "")
}

func (s *ParticipationService) codeSuffix() string {
	stamp := strconv.FormatInt(s.now().UnixMilli(), 36)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]

	return strings.ToUpper(stamp + random)
}
