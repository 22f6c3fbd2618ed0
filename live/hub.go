// Package live pushes signup activity to connected coach dashboards over
// WebSocket. Rooms are keyed by tournament; the committer broadcasts a
// SIGNUP_COMMITTED message after every successful atomic commit.
package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/speechteam/tournament-signup/models"
)

// Message is the wire envelope for hub broadcasts.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

const MessageTypeSignupCommitted = "SIGNUP_COMMITTED"

// Hub fans messages out to clients grouped into per-tournament rooms.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[string]map[*Client]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run processes register/unregister traffic. Call once in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.logger.Debug("ws client registered",
				slog.String("room", client.room),
				slog.Int("room_clients", len(h.rooms[client.room])),
			)
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if clients[client] {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// RoomID derives the room name for a tournament.
func RoomID(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}

// NotifySignupCommitted implements services.CommitNotifier.
func (h *Hub) NotifySignupCommitted(tournamentID int, result *models.CommitResult) {
	h.broadcastToRoom(RoomID(tournamentID), Message{
		Type:    MessageTypeSignupCommitted,
		Payload: result,
		RoomID:  RoomID(tournamentID),
	})
}

func (h *Hub) broadcastToRoom(roomID string, message Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("ws message marshal failed", slog.String("room", roomID), slog.Any("error", err))
		return
	}

	for client := range clients {
		client.trySend(data)
	}
}
