//go:build integration

package db

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rouemaroc/spinwheel/internal/repository/dao"
)

// startPostgres runs a throwaway postgres container and returns a migrated
// connection to it.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	if err = pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=spinwheel",
			"POSTGRES_PASSWORD=spinwheel",
			"POSTGRES_DB=spinwheel",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	_ = resource.Expire(300)

	dsn := fmt.Sprintf("postgres://spinwheel:spinwheel@%s/spinwheel?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var conn *gorm.DB
	err = pool.Retry(func() error {
		var err error
		conn, err = OpenPostgresWithURL(dsn)
		return err
	})
	require.NoError(t, err)

	return conn
}

func TestPostgres_ConcurrentSpinsNeverExceedCeiling(t *testing.T) {
	conn := startPostgres(t)
	gifts := dao.NewGiftDAO(conn)
	ctx := context.Background()

	ceiling := 5
	gift, err := gifts.Insert(ctx, dao.Gift{Name: "Mug", MaxWinners: &ceiling})
	require.NoError(t, err)

	const spinners = 50
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < spinners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for attempt := 0; attempt < 100; attempt++ {
				current, err := gifts.FindByID(ctx, gift.ID)
				if err != nil || current.CurrentWinners >= ceiling {
					return
				}

				affected, err := gifts.CompareAndSwapWinners(ctx, gift.ID, current.CurrentWinners, current.CurrentWinners+1)
				if err != nil {
					return
				}
				if affected == 1 {
					mu.Lock()
					won++
					mu.Unlock()
					return
				}
			}
		}()
	}
	wg.Wait()

	found, err := gifts.FindByID(ctx, gift.ID)
	require.NoError(t, err)
	assert.Equal(t, ceiling, won)
	assert.Equal(t, ceiling, found.CurrentWinners)
}

func TestPostgres_UniqueViolationsTranslated(t *testing.T) {
	conn := startPostgres(t)
	campaigns := dao.NewCampaignDAO(conn)
	participants := dao.NewParticipantDAO(conn)
	ctx := context.Background()

	_, err := campaigns.Insert(ctx, dao.Campaign{Name: "Summer", Slug: "summer", IsActive: true})
	require.NoError(t, err)
	_, err = campaigns.Insert(ctx, dao.Campaign{Name: "Summer", Slug: "summer"})
	assert.ErrorIs(t, err, dao.ErrCampaignSlugExists)

	_, err = participants.Insert(ctx, dao.Participant{Name: "Sara", Code: "AB12"})
	require.NoError(t, err)
	_, err = participants.Insert(ctx, dao.Participant{Name: "Sara", Code: "AB12"})
	assert.ErrorIs(t, err, dao.ErrParticipantCodeExists)
}
