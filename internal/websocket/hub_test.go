package websocket

import (
	"testing"
	"time"
)

func recvOrTimeout(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func drainFor(ch chan []byte, d time.Duration) int {
	count := 0
	deadline := time.After(d)
	for {
		select {
		case <-ch:
			count++
		case <-deadline:
			return count
		}
	}
}

func TestHub_DuplicateCommentGuard(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Hub: hub, Send: make(chan []byte, 4), BeatID: "beat-1"}
	hub.Register <- client

	event := CommentEvent{BeatID: "beat-1", CommentID: "c1", AuthorName: "Luna", Body: "fuego"}
	hub.Broadcast <- event
	recvOrTimeout(t, client.Send)

	// Same comment id again: nothing must arrive.
	hub.Broadcast <- event
	if got := drainFor(client.Send, 100*time.Millisecond); got != 0 {
		t.Errorf("duplicate comment was delivered %d times", got)
	}

	// A fresh id still flows.
	hub.Broadcast <- CommentEvent{BeatID: "beat-1", CommentID: "c2", Body: "otro"}
	recvOrTimeout(t, client.Send)
}

func TestHub_RoomsAreIsolated(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := &Client{Hub: hub, Send: make(chan []byte, 4), BeatID: "beat-a"}
	b := &Client{Hub: hub, Send: make(chan []byte, 4), BeatID: "beat-b"}
	hub.Register <- a
	hub.Register <- b

	hub.Broadcast <- CommentEvent{BeatID: "beat-a", CommentID: "c1", Body: "solo para a"}

	recvOrTimeout(t, a.Send)
	if got := drainFor(b.Send, 100*time.Millisecond); got != 0 {
		t.Errorf("room b received %d stray messages", got)
	}
}

func TestHub_UnwatchedBeatRecordsNothing(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Comments on a beat with no listeners are dropped without being
	// remembered.
	hub.Broadcast <- CommentEvent{BeatID: "beat-quiet", CommentID: "c1", Body: "nadie escucha"}

	// Once someone joins, the same id is fresh again and gets delivered.
	client := &Client{Hub: hub, Send: make(chan []byte, 4), BeatID: "beat-quiet"}
	hub.Register <- client
	hub.Broadcast <- CommentEvent{BeatID: "beat-quiet", CommentID: "c1", Body: "nadie escucha"}
	recvOrTimeout(t, client.Send)

	// The delivery above orders us after the hub processed both events.
	if len(hub.seen["beat-quiet"]) != 1 {
		t.Errorf("expected 1 tracked id, got %d", len(hub.seen["beat-quiet"]))
	}
}
