package ws

import (
	"time"
)

// ActivityEvent is pushed to connected clients when the catalog or sales
// change, so open players can refresh without polling.
type ActivityEvent struct {
	Type      string `json:"type"` // song_uploaded | purchase_completed
	SongID    string `json:"song_id"`
	Title     string `json:"title,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// EventHub fans out activity events to all connected listeners.
type EventHub struct {
	*Hub
}

func NewEventHub() *EventHub {
	return &EventHub{Hub: NewHub()}
}

func (h *EventHub) SongUploaded(songID, title string) {
	h.BroadcastAll(ActivityEvent{
		Type:      "song_uploaded",
		SongID:    songID,
		Title:     title,
		Timestamp: time.Now().Unix(),
	})
}

func (h *EventHub) PurchaseCompleted(songID, title string) {
	h.BroadcastAll(ActivityEvent{
		Type:      "purchase_completed",
		SongID:    songID,
		Title:     title,
		Timestamp: time.Now().Unix(),
	})
}
