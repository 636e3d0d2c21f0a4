package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouemaroc/spinwheel/internal/config"
	"github.com/rouemaroc/spinwheel/internal/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Broadcast(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, domain.Event) error { return f.err }

func TestLocal_Publish(t *testing.T) {
	sink := &recordingSink{}
	event := domain.GiftChanged(domain.Gift{ID: uuid.New(), CurrentWinners: 4})

	require.NoError(t, NewLocal(sink).Publish(context.Background(), event))
	require.Len(t, sink.events, 1)
	assert.Equal(t, 4, sink.events[0].CurrentWinners)
}

func TestFanout_Publish(t *testing.T) {
	sink := &recordingSink{}
	boom := errors.New("broker down")

	fanout := Fanout{failingPublisher{err: boom}, NewLocal(sink), Nop{}}
	err := fanout.Publish(context.Background(), domain.GiftChanged(domain.Gift{ID: uuid.New()}))

	assert.ErrorIs(t, err, boom)
	assert.Len(t, sink.events, 1, "a failing publisher must not stop the others")
}

func TestAMQPPublisher_IgnoresGiftChanges(t *testing.T) {
	p := &AMQPPublisher{queue: "spin.won"}

	assert.NoError(t, p.Publish(context.Background(), domain.GiftChanged(domain.Gift{ID: uuid.New()})))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	assert.Nil(t, NewRedisClient(&config.RedisConfig{Addr: "127.0.0.1:1"}))
	assert.Nil(t, NewRedisClient(&config.RedisConfig{}))
}
