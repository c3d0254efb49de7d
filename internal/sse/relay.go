package sse

import (
	"context"
	"sync"

	"shaadibiyah/internal/models"
)

// Relay manages per-user SSE connections and room-viewing state for the chat
// and booking push channels. The registry is volatile: it is rebuilt on
// reconnect and must never be used for permission or delivery decisions.
// A disconnected receiver misses the live push but keeps the durable
// Notification record.
type Relay struct {
	// Per-user client channels - key: userID, value: slice of client channels
	userClients     map[string][]chan models.PushEvent
	userClientMutex sync.RWMutex

	// Which rooms each user is currently viewing - key: userID, value: set of rooms
	viewing      map[string]map[string]struct{}
	viewingMutex sync.RWMutex
}

// NewRelay creates an empty relay. It lives for the duration of the server
// process and is torn down with it.
func NewRelay() *Relay {
	return &Relay{
		userClients: make(map[string][]chan models.PushEvent),
		viewing:     make(map[string]map[string]struct{}),
	}
}

// Subscribe adds a client channel for the user. The channel is deregistered
// when ctx is done (client disconnect). It is never closed: an emit racing
// the disconnect may still hold a reference, and a send on a closed channel
// would panic. The subscriber's loop exits through its own ctx.
func (r *Relay) Subscribe(ctx context.Context, userID string) chan models.PushEvent {
	clientChan := make(chan models.PushEvent, 10)

	r.userClientMutex.Lock()
	r.userClients[userID] = append(r.userClients[userID], clientChan)
	r.userClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		r.removeClient(userID, clientChan)
	}()

	return clientChan
}

// EmitToUser delivers an event to every connection the user currently holds.
// Sends are non-blocking; a slow client's full buffer drops the event.
func (r *Relay) EmitToUser(userID string, event models.PushEvent) {
	r.userClientMutex.RLock()
	clients := r.userClients[userID]
	r.userClientMutex.RUnlock()

	for _, clientChan := range clients {
		select {
		case clientChan <- event:
		default:
			// Channel buffer full, skip this client
		}
	}
}

// EmitToRoom delivers a room-scoped event to every user currently viewing the
// room, excluding the sender.
func (r *Relay) EmitToRoom(room, senderID string, event models.PushEvent) {
	event.Room = room

	r.viewingMutex.RLock()
	var targets []string
	for userID, rooms := range r.viewing {
		if userID == senderID {
			continue
		}
		if _, ok := rooms[room]; ok {
			targets = append(targets, userID)
		}
	}
	r.viewingMutex.RUnlock()

	for _, userID := range targets {
		r.EmitToUser(userID, event)
	}
}

// JoinRoom marks the user as currently viewing the room.
func (r *Relay) JoinRoom(userID, room string) {
	r.viewingMutex.Lock()
	defer r.viewingMutex.Unlock()

	if r.viewing[userID] == nil {
		r.viewing[userID] = make(map[string]struct{})
	}
	r.viewing[userID][room] = struct{}{}
}

// LeaveRoom clears the user's viewing state for the room.
func (r *Relay) LeaveRoom(userID, room string) {
	r.viewingMutex.Lock()
	defer r.viewingMutex.Unlock()

	delete(r.viewing[userID], room)
	if len(r.viewing[userID]) == 0 {
		delete(r.viewing, userID)
	}
}

// IsConnected reports whether the user has at least one live connection.
func (r *Relay) IsConnected(userID string) bool {
	r.userClientMutex.RLock()
	defer r.userClientMutex.RUnlock()
	return len(r.userClients[userID]) > 0
}

// IsViewing reports whether the user is currently viewing the room.
func (r *Relay) IsViewing(userID, room string) bool {
	r.viewingMutex.RLock()
	defer r.viewingMutex.RUnlock()
	_, ok := r.viewing[userID][room]
	return ok
}

// ClientCount returns the number of live connections for a user.
func (r *Relay) ClientCount(userID string) int {
	r.userClientMutex.RLock()
	defer r.userClientMutex.RUnlock()
	return len(r.userClients[userID])
}

func (r *Relay) removeClient(userID string, clientChan chan models.PushEvent) {
	r.userClientMutex.Lock()
	defer r.userClientMutex.Unlock()

	clients := r.userClients[userID]
	for i, ch := range clients {
		if ch == clientChan {
			r.userClients[userID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}

	if len(r.userClients[userID]) == 0 {
		delete(r.userClients, userID)
		// A fully disconnected user is no longer viewing anything.
		r.viewingMutex.Lock()
		delete(r.viewing, userID)
		r.viewingMutex.Unlock()
	}
}
