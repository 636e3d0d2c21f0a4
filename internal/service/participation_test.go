package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

func newParticipation(store *memStore) *ParticipationService {
	resolver := NewAvailabilityService(store.giftRepo(), store.campaignRepo(), store.participantRepo(), DefaultScopePolicies())

	return NewParticipationService(store.participantRepo(), store.campaignRepo(), store.cityRepo(), resolver)
}

func TestParticipationService_Register(t *testing.T) {
	store := newMemStore()
	campaign := store.addCampaign(true)
	inactive := store.addCampaign(false)
	city := store.addCity("casablanca")
	otherCity := store.addCity("rabat")
	venue := store.addVenue(city.ID, &campaign.ID)
	foreignVenue := store.addVenue(city.ID, &inactive.ID)
	svc := newParticipation(store)

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{
			name:    "missing name",
			input:   RegisterInput{CampaignID: campaign.ID, Code: "A1", AgreedToTerms: true},
			wantErr: ErrInvalidParticipation,
		},
		{
			name:    "blank code",
			input:   RegisterInput{CampaignID: campaign.ID, Name: "Sara", Code: "   ", AgreedToTerms: true},
			wantErr: ErrInvalidParticipation,
		},
		{
			name:    "terms refused",
			input:   RegisterInput{CampaignID: campaign.ID, Name: "Sara", Code: "A1"},
			wantErr: ErrTermsNotAccepted,
		},
		{
			name:    "inactive campaign",
			input:   RegisterInput{CampaignID: inactive.ID, Name: "Sara", Code: "A1", AgreedToTerms: true},
			wantErr: ErrCampaignInactive,
		},
		{
			name:    "unknown campaign",
			input:   RegisterInput{CampaignID: uuid.New(), Name: "Sara", Code: "A1", AgreedToTerms: true},
			wantErr: ErrNotFound,
		},
		{
			name: "venue of another city",
			input: RegisterInput{
				CampaignID: campaign.ID, Name: "Sara", Code: "A1", AgreedToTerms: true,
				CityID: &otherCity.ID, VenueID: &venue.ID,
			},
			wantErr: ErrVenueCityMismatch,
		},
		{
			name: "venue of another campaign",
			input: RegisterInput{
				CampaignID: campaign.ID, Name: "Sara", Code: "A1", AgreedToTerms: true,
				VenueID: &foreignVenue.ID,
			},
			wantErr: ErrVenueCampaignMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("city derived from venue", func(t *testing.T) {
		issue, err := svc.Register(context.Background(), RegisterInput{
			CampaignID:    campaign.ID,
			Name:          "  Sara ",
			Code:          " ab12 ",
			VenueID:       &venue.ID,
			AgreedToTerms: true,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.Issued, issue.Outcome)
		assert.Equal(t, "Sara", issue.Participant.Name)
		assert.Equal(t, "AB12", issue.Participant.Code)
		assert.Equal(t, city.ID, *issue.Participant.CityID)
		assert.Equal(t, city.Name, issue.Participant.City)
		assert.Equal(t, campaign.ID, *issue.Participant.CampaignID)
		assert.False(t, issue.Participant.Won)
	})
}

func TestParticipationService_RegisterDuplicateCode(t *testing.T) {
	store := newMemStore()
	campaign := store.addCampaign(true)
	svc := newParticipation(store)
	input := RegisterInput{CampaignID: campaign.ID, Name: "Yassine", Code: "Z9", AgreedToTerms: true}

	first, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	second, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, domain.IssuedWithSuffix, second.Outcome)
	assert.True(t, strings.HasPrefix(second.Participant.Code, first.Participant.Code+"-"))
	assert.NotEqual(t, first.Participant.ID, second.Participant.ID)
}

func TestParticipationService_Replay(t *testing.T) {
	store := newMemStore()
	campaign := store.addCampaign(true)
	city := store.addCity("tetouan")
	gift := store.addGift(&campaign.ID, "Mug", domain.Unlimited())
	svc := newParticipation(store)
	e := newEngine(store, ScopePolicies{City: domain.OpenByDefault, Venue: domain.OpenByDefault}, 3)
	ctx := context.Background()

	issue, err := svc.Register(ctx, RegisterInput{
		CampaignID: campaign.ID, Name: "Nora", Code: "N1", CityID: &city.ID, AgreedToTerms: true,
	})
	require.NoError(t, err)

	t.Run("pending ticket is reused", func(t *testing.T) {
		replay, err := svc.Replay(ctx, issue.Participant.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.Reused, replay.Outcome)
		assert.Equal(t, issue.Participant.ID, replay.Participant.ID)
	})

	_, err = e.alloc.FinalizeSpin(ctx, issue.Participant.ID, gift.ID)
	require.NoError(t, err)

	t.Run("won ticket gets a new row", func(t *testing.T) {
		replay, err := svc.Replay(ctx, issue.Participant.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.IssuedWithSuffix, replay.Outcome)
		assert.NotEqual(t, issue.Participant.ID, replay.Participant.ID)
		assert.Equal(t, "Nora", replay.Participant.Name)
		assert.Equal(t, city.ID, *replay.Participant.CityID)
		assert.False(t, replay.Participant.Won)
		assert.Nil(t, replay.Participant.PrizeID)
	})

	t.Run("replaying a replay suffixes the original code once", func(t *testing.T) {
		first, err := svc.Replay(ctx, issue.Participant.ID)
		require.NoError(t, err)
		_, err = e.alloc.FinalizeSpin(ctx, first.Participant.ID, gift.ID)
		require.NoError(t, err)

		second, err := svc.Replay(ctx, first.Participant.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.IssuedWithSuffix, second.Outcome)
		assert.True(t, strings.HasPrefix(second.Participant.Code, "N1-"))
		assert.Len(t, strings.Split(second.Participant.Code, "-"), 2)
		assert.NotEqual(t, first.Participant.Code, second.Participant.Code)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		_, err := svc.Replay(ctx, uuid.New())
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBaseCode(t *testing.T) {
	assert.Equal(t, "N1", baseCode("N1"))
	assert.Equal(t, "AB-12", baseCode("AB-12"))
	assert.Equal(t, "AB-12", baseCode("AB-12-MG0X1K2A9F3C"))
	assert.Equal(t, "N1-mg0x1k2a9f3c", baseCode("N1-mg0x1k2a9f3c"))
}

func TestParticipationService_GetSpin(t *testing.T) {
	store := newMemStore()
	campaign := store.addCampaign(true)
	store.addGift(&campaign.ID, "Mug", domain.Unlimited())
	store.addGift(&campaign.ID, "Stylo", domain.Limited(0))
	p := pendingAt(store, campaign.ID, nil, nil)
	svc := newParticipation(store)

	view, err := svc.GetSpin(context.Background(), p.ID)
	require.NoError(t, err)

	require.NotNil(t, view.Campaign)
	assert.Equal(t, campaign.ID, view.Campaign.ID)
	require.Len(t, view.Availability, 2)
	assert.True(t, view.Availability[0].Available)
	assert.False(t, view.Availability[1].Available)
}
