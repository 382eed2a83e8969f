package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	EventQuestionPosted   = "question_posted"
	EventQuestionResolved = "question_resolved"
	EventGameEnded        = "game_ended"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans game events out to websocket observers, keyed by game id.
type Hub struct {
	mu    sync.RWMutex
	games map[uint]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		games: make(map[uint]map[*websocket.Conn]bool),
	}
}

func (h *Hub) AddConnection(gameID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.games[gameID] == nil {
		h.games[gameID] = make(map[*websocket.Conn]bool)
	}
	h.games[gameID][conn] = true
	log.Printf("ws: client connected to game %d (total: %d)", gameID, len(h.games[gameID]))
}

func (h *Hub) RemoveConnection(gameID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.games[gameID]; ok {
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.games, gameID)
		}
		log.Printf("ws: client disconnected from game %d", gameID)
	}
}

// Broadcast sends the event to every observer of the game, dropping
// connections that fail to write.
func (h *Hub) Broadcast(gameID uint, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.games[gameID]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			delete(conns, conn)
		}
	}
}
