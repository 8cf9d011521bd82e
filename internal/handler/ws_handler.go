package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/service"
	ws "github.com/iqscaler/iqscaler-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// LeaderboardFeed delivers leaderboard changes. Implemented by *cache.Leaderboard.
type LeaderboardFeed interface {
	Subscribe(ctx context.Context) *redis.PubSub
}

// WSHandler streams the live leaderboard.
type WSHandler struct {
	feed          LeaderboardFeed
	resultService *service.ResultService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(feed LeaderboardFeed, resultService *service.ResultService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		feed:          feed,
		resultService: resultService,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// LeaderboardStream godoc
// WS /ws/v1/leaderboard
// Sends the current top entries, then every improvement as it happens.
func (h *WSHandler) LeaderboardStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// subscribe before the snapshot so no update falls between the two
	sub := h.feed.Subscribe(ctx)
	defer sub.Close()

	entries, err := h.resultService.Leaderboard(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Leaderboard snapshot failed")
		ws.WriteError(conn, "leaderboard unavailable")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	if err := ws.WriteTyped(conn, ws.LeaderboardMessage{Event: ws.EventSnapshot, Entries: entries}); err != nil {
		return
	}

	wsLog := h.log.With().Str("remote", c.ClientIP()).Logger()
	wsLog.Debug().Msg("Leaderboard viewer connected")

	closed := make(chan struct{})
	go ws.DrainReads(conn, closed)

	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()
	updates := sub.Channel()

	for {
		select {
		case <-closed:
			wsLog.Debug().Msg("Leaderboard viewer disconnected")
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		case msg, ok := <-updates:
			if !ok {
				return
			}
			var changed []model.LeaderboardEntry
			if err := json.Unmarshal([]byte(msg.Payload), &changed); err != nil {
				wsLog.Warn().Err(err).Msg("Dropping malformed leaderboard update")
				continue
			}
			if err := ws.WriteTyped(conn, ws.LeaderboardMessage{Event: ws.EventUpdate, Entries: changed}); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
		}
	}
}
