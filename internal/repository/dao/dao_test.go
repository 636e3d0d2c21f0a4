package dao

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "spinwheel.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, InitTables(db))

	return db
}

func intPtr(v int) *int { return &v }

func TestGiftDAO_CompareAndSwapWinners(t *testing.T) {
	db := openTestDB(t)
	gifts := NewGiftDAO(db)
	ctx := context.Background()

	gift, err := gifts.Insert(ctx, Gift{Name: "Mug", MaxWinners: intPtr(3)})
	require.NoError(t, err)

	affected, err := gifts.CompareAndSwapWinners(ctx, gift.ID, 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	// Stale expectation.
	affected, err = gifts.CompareAndSwapWinners(ctx, gift.ID, 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)

	found, err := gifts.FindByID(ctx, gift.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.CurrentWinners)
}

func TestGiftDAO_ConcurrentSwaps(t *testing.T) {
	db := openTestDB(t)
	gifts := NewGiftDAO(db)
	ctx := context.Background()

	gift, err := gifts.Insert(ctx, Gift{Name: "Mug"})
	require.NoError(t, err)

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		swapped int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			affected, err := gifts.CompareAndSwapWinners(ctx, gift.ID, 0, 1)
			if err == nil && affected == 1 {
				mu.Lock()
				swapped++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, swapped)
}

func TestGiftDAO_UpdateKeepsCounter(t *testing.T) {
	db := openTestDB(t)
	gifts := NewGiftDAO(db)
	ctx := context.Background()

	gift, err := gifts.Insert(ctx, Gift{Name: "Mug", MaxWinners: intPtr(3)})
	require.NoError(t, err)
	_, err = gifts.CompareAndSwapWinners(ctx, gift.ID, 0, 2)
	require.NoError(t, err)

	gift.Name = "Grand mug"
	gift.MaxWinners = nil
	gift.CurrentWinners = 0
	updated, err := gifts.Update(ctx, gift)
	require.NoError(t, err)

	assert.Equal(t, "Grand mug", updated.Name)
	assert.Nil(t, updated.MaxWinners)
	assert.Equal(t, 2, updated.CurrentWinners)

	_, err = gifts.Update(ctx, Gift{Base: Base{ID: uuid.New()}, Name: "ghost"})
	require.ErrorIs(t, err, ErrGiftNotFound)
}

func TestGiftDAO_FindByCampaignOrder(t *testing.T) {
	db := openTestDB(t)
	gifts := NewGiftDAO(db)
	ctx := context.Background()
	campaignID := uuid.New()

	for _, name := range []string{"first", "second", "third"} {
		_, err := gifts.Insert(ctx, Gift{Name: name, CampaignID: &campaignID})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	_, err := gifts.Insert(ctx, Gift{Name: "orphan"})
	require.NoError(t, err)

	found, err := gifts.FindByCampaign(ctx, &campaignID)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "first", found[0].Name)
	assert.Equal(t, "third", found[2].Name)

	orphans, err := gifts.FindByCampaign(ctx, nil)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "orphan", orphans[0].Name)
}

func TestGiftDAO_Limits(t *testing.T) {
	db := openTestDB(t)
	gifts := NewGiftDAO(db)
	ctx := context.Background()

	gift, err := gifts.Insert(ctx, Gift{Name: "Mug"})
	require.NoError(t, err)
	venueID, cityID := uuid.New(), uuid.New()

	_, err = gifts.FindVenueLimit(ctx, gift.ID, venueID)
	require.ErrorIs(t, err, ErrLimitNotFound)

	_, err = gifts.UpsertVenueLimit(ctx, GiftVenueLimit{GiftID: gift.ID, VenueID: venueID, MaxWinners: 2})
	require.NoError(t, err)
	limit, err := gifts.UpsertVenueLimit(ctx, GiftVenueLimit{GiftID: gift.ID, VenueID: venueID, MaxWinners: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, limit.MaxWinners)

	limits, err := gifts.ListVenueLimits(ctx, gift.ID)
	require.NoError(t, err)
	assert.Len(t, limits, 1)

	_, err = gifts.UpsertCityLimit(ctx, GiftCityLimit{GiftID: gift.ID, CityID: cityID, MaxWinners: 1})
	require.NoError(t, err)

	require.NoError(t, gifts.Delete(ctx, gift.ID))
	_, err = gifts.FindCityLimit(ctx, gift.ID, cityID)
	require.ErrorIs(t, err, ErrLimitNotFound)
	require.ErrorIs(t, gifts.DeleteVenueLimit(ctx, gift.ID, venueID), ErrLimitNotFound)
}

func TestGiftDAO_Reset(t *testing.T) {
	db := openTestDB(t)
	gifts := NewGiftDAO(db)
	participants := NewParticipantDAO(db)
	ctx := context.Background()
	campaignID := uuid.New()

	mug, err := gifts.Insert(ctx, Gift{Name: "Mug", CampaignID: &campaignID})
	require.NoError(t, err)
	hat, err := gifts.Insert(ctx, Gift{Name: "Casquette"})
	require.NoError(t, err)

	for i, g := range []Gift{mug, hat} {
		p, err := participants.Insert(ctx, Participant{Name: "p", Code: []string{"A", "B"}[i], CampaignID: g.CampaignID})
		require.NoError(t, err)
		_, err = participants.MarkWon(ctx, p.ID, g.ID, time.Now())
		require.NoError(t, err)
		_, err = gifts.CompareAndSwapWinners(ctx, g.ID, 0, 1)
		require.NoError(t, err)
	}

	reset, err := gifts.ResetByCampaign(ctx, campaignID)
	require.NoError(t, err)
	require.Len(t, reset, 1)
	assert.Equal(t, mug.ID, reset[0].ID)

	won, err := participants.CountWins(ctx, WinFilter{GiftID: &mug.ID})
	require.NoError(t, err)
	assert.Zero(t, won)
	won, err = participants.CountWins(ctx, WinFilter{GiftID: &hat.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, won)

	reset, err = gifts.ResetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, reset)

	reset, err = gifts.ResetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, reset, 2)

	found, err := gifts.FindByID(ctx, hat.ID)
	require.NoError(t, err)
	assert.Zero(t, found.CurrentWinners)
}

func TestGiftDAO_DeleteWithWinners(t *testing.T) {
	db := openTestDB(t)
	gifts := NewGiftDAO(db)
	participants := NewParticipantDAO(db)
	ctx := context.Background()

	mug, err := gifts.Insert(ctx, Gift{Name: "Mug"})
	require.NoError(t, err)
	_, err = gifts.UpsertVenueLimit(ctx, GiftVenueLimit{GiftID: mug.ID, VenueID: uuid.New(), MaxWinners: 2})
	require.NoError(t, err)

	p, err := participants.Insert(ctx, Participant{Name: "Sara", Code: "AB12"})
	require.NoError(t, err)
	_, err = participants.MarkWon(ctx, p.ID, mug.ID, time.Now())
	require.NoError(t, err)

	require.ErrorIs(t, gifts.Delete(ctx, mug.ID), ErrGiftHasWinners)
	_, err = gifts.FindByID(ctx, mug.ID)
	require.NoError(t, err)
	limits, err := gifts.ListVenueLimits(ctx, mug.ID)
	require.NoError(t, err)
	assert.Len(t, limits, 1)

	_, err = gifts.ResetByID(ctx, mug.ID)
	require.NoError(t, err)
	require.NoError(t, gifts.Delete(ctx, mug.ID))
	require.ErrorIs(t, gifts.Delete(ctx, mug.ID), ErrGiftNotFound)
}

func TestParticipantDAO(t *testing.T) {
	db := openTestDB(t)
	participants := NewParticipantDAO(db)
	ctx := context.Background()
	cityID, venueID, giftID := uuid.New(), uuid.New(), uuid.New()

	p, err := participants.Insert(ctx, Participant{Name: "Sara", Code: "AB12", CityID: &cityID, VenueID: &venueID})
	require.NoError(t, err)

	_, err = participants.Insert(ctx, Participant{Name: "Sara", Code: "AB12"})
	require.ErrorIs(t, err, ErrParticipantCodeExists)

	affected, err := participants.MarkWon(ctx, p.ID, giftID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	affected, err = participants.MarkWon(ctx, p.ID, giftID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)

	won, err := participants.CountWins(ctx, WinFilter{GiftID: &giftID, CityID: &cityID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, won)

	otherCity := uuid.New()
	won, err = participants.CountWins(ctx, WinFilter{GiftID: &giftID, CityID: &otherCity})
	require.NoError(t, err)
	assert.Zero(t, won)

	counts, err := participants.CountWinsByGift(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, giftID, counts[0].PrizeID)
	assert.Equal(t, 1, counts[0].Count)

	onlyWon := true
	list, err := participants.List(ctx, ParticipantFilter{Won: &onlyWon, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = participants.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestCampaignDAO_SlugUnique(t *testing.T) {
	db := openTestDB(t)
	campaigns := NewCampaignDAO(db)
	ctx := context.Background()

	_, err := campaigns.Insert(ctx, Campaign{Name: "Summer", Slug: "summer"})
	require.NoError(t, err)

	_, err = campaigns.Insert(ctx, Campaign{Name: "Summer again", Slug: "summer"})
	require.ErrorIs(t, err, ErrCampaignSlugExists)

	exists, err := campaigns.SlugExists(ctx, "summer")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = campaigns.SlugExists(ctx, "winter")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCampaignDAO_InsertInactive(t *testing.T) {
	db := openTestDB(t)
	campaigns := NewCampaignDAO(db)
	ctx := context.Background()

	created, err := campaigns.Insert(ctx, Campaign{Name: "Draft", Slug: "draft", IsActive: false})
	require.NoError(t, err)

	found, err := campaigns.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
	assert.Equal(t, "{}", found.Theme)
}
