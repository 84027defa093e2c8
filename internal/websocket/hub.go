package websocket

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	BeatID string
}

// CommentEvent is a new comment pushed to everyone listening on a beat.
type CommentEvent struct {
	BeatID     string `json:"beat_id"`
	CommentID  string `json:"id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
}

type Hub struct {
	Rooms      map[string]map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan CommentEvent

	// seen tracks comment ids already delivered per beat so a duplicate
	// event (webhook retry, double submit) is never pushed twice.
	seen map[string]map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan CommentEvent),
		seen:       make(map[string]map[string]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if h.Rooms[client.BeatID] == nil {
				h.Rooms[client.BeatID] = make(map[*Client]bool)
			}
			h.Rooms[client.BeatID][client] = true
			log.Printf("WebSocket client joined beat %s", client.BeatID)

		case client := <-h.Unregister:
			if room, ok := h.Rooms[client.BeatID]; ok && room[client] {
				delete(room, client)
				close(client.Send)
				if len(room) == 0 {
					delete(h.Rooms, client.BeatID)
					delete(h.seen, client.BeatID)
				}
				log.Printf("WebSocket client left beat %s", client.BeatID)
			}

		case event := <-h.Broadcast:
			room := h.Rooms[event.BeatID]
			if len(room) == 0 {
				// Nobody is watching: deliver nothing and record
				// nothing, so ids for unwatched beats never pile up.
				continue
			}

			if h.seen[event.BeatID][event.CommentID] {
				log.Printf("Skipping duplicate comment %s on beat %s", event.CommentID, event.BeatID)
				continue
			}
			if h.seen[event.BeatID] == nil {
				h.seen[event.BeatID] = make(map[string]bool)
			}
			h.seen[event.BeatID][event.CommentID] = true

			jsonData, err := json.Marshal(event)
			if err != nil {
				log.Println("Failed to marshal comment event:", err)
				continue
			}

			for client := range room {
				select {
				case client.Send <- jsonData:
				default:
					close(client.Send)
					delete(room, client)
				}
			}
		}
	}
}
