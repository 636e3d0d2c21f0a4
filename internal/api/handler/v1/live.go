package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
	liveBufferSize = 256
)

type liveClient struct {
	conn       *websocket.Conn
	send       chan []byte
	campaignID uuid.UUID
}

// LiveHub pushes gift events to the spin pages watching a campaign.
type LiveHub struct {
	upgrader     websocket.Upgrader
	clients      map[*liveClient]struct{}
	clientsMutex sync.RWMutex
	broadcast    chan domain.Event
	register     chan *liveClient
	unregister   chan *liveClient
	done         chan struct{}
}

func NewLiveHub(allowedOrigins []string) *LiveHub {
	return &LiveHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		clients:    make(map[*liveClient]struct{}),
		broadcast:  make(chan domain.Event, liveBufferSize),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done.
func (h *LiveHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.clientsMutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMutex.Unlock()
			return
		case client := <-h.register:
			h.clientsMutex.Lock()
			h.clients[client] = struct{}{}
			h.clientsMutex.Unlock()
		case client := <-h.unregister:
			h.clientsMutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMutex.Unlock()
		case event := <-h.broadcast:
			h.fanOut(event)
		}
	}
}

// Broadcast queues event for delivery. It never blocks; when the queue is
// full the event is dropped.
func (h *LiveHub) Broadcast(event domain.Event) {
	select {
	case h.broadcast <- event:
	default:
		zap.L().Warn("live feed queue full, event dropped", zap.String("type", string(event.Type)))
	}
}

func (h *LiveHub) fanOut(event domain.Event) {
	if event.CampaignID == nil {
		return
	}

	message, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("live event encoding", zap.Error(err))
		return
	}

	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	for client := range h.clients {
		if client.campaignID != *event.CampaignID {
			continue
		}

		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// HandleWebSocket godoc
// @Summary      Live gift feed of a campaign
// @Description  Streams gift.changed and spin.won events as JSON messages.
// @Tags         campaigns
// @Param        campaignID  path  string  true  "Campaign ID"
// @Success      101  {string}  string  "Switching Protocols to WebSocket"
// @Failure      400  {object}  response.Err
// @Router       /live/campaigns/{campaignID} [get]
func (h *LiveHub) HandleWebSocket(ctx *gin.Context) {
	campaignID, ok := uuidParam(ctx, "campaignID")
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &liveClient{
		conn:       conn,
		send:       make(chan []byte, liveBufferSize),
		campaignID: campaignID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the close of the connection; clients do not send
// anything meaningful.
func (c *liveClient) readPump(h *LiveHub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("live client closed", zap.Error(err))
			}
			return
		}
	}
}
