package v1

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

func (h *LiveHub) clientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	return len(h.clients)
}

func TestLiveHub_FiltersByCampaign(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewLiveHub(nil)
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/live/campaigns/:campaignID", hub.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	watched, other := uuid.New(), uuid.New()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/campaigns/" + watched.String()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.clientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(domain.GiftChanged(domain.Gift{ID: uuid.New(), CampaignID: &other, CurrentWinners: 9}))
	hub.Broadcast(domain.GiftChanged(domain.Gift{ID: uuid.New(), CampaignID: &watched, CurrentWinners: 2}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event domain.Event
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, domain.EventGiftChanged, event.Type)
	assert.Equal(t, watched, *event.CampaignID)
	assert.Equal(t, 2, event.CurrentWinners)
}

func TestLiveHub_RejectsForeignOrigin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewLiveHub([]string{"https://spin.example.com"})
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/live/campaigns/:campaignID", hub.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/campaigns/" + uuid.NewString()
	header := map[string][]string{"Origin": {"https://evil.example.com"}}

	_, _, err := websocket.DefaultDialer.Dial(url, header)
	assert.Error(t, err)
	assert.Zero(t, hub.clientCount())
}
