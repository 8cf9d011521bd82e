package websocket

import "github.com/iqscaler/iqscaler-backend/internal/model"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	// EventSnapshot carries the full top of the board, sent on connect.
	EventSnapshot Event = "snapshot"
	// EventUpdate carries entries whose best score just improved.
	EventUpdate Event = "update"
	EventError  Event = "error"
)

// LeaderboardMessage is the only message shape the stream emits.
type LeaderboardMessage struct {
	Event   Event                    `json:"event"`
	Entries []model.LeaderboardEntry `json:"entries"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
