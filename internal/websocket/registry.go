package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// Registry считает живые соединения по пользователям и комнатам.
// Один пользователь может держать несколько вкладок.
type Registry struct {
	mu    sync.RWMutex
	users map[uuid.UUID]int
	rooms map[uuid.UUID]map[uuid.UUID]int
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[uuid.UUID]int),
		rooms: make(map[uuid.UUID]map[uuid.UUID]int),
	}
}

func (r *Registry) Add(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[client.UserID]++

	if _, ok := r.rooms[client.RoomID]; !ok {
		r.rooms[client.RoomID] = make(map[uuid.UUID]int)
	}
	r.rooms[client.RoomID][client.UserID]++
}

func (r *Registry) Remove(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.users[client.UserID] <= 1 {
		delete(r.users, client.UserID)
	} else {
		r.users[client.UserID]--
	}

	if room, ok := r.rooms[client.RoomID]; ok {
		if room[client.UserID] <= 1 {
			delete(room, client.UserID)
		} else {
			room[client.UserID]--
		}
		if len(room) == 0 {
			delete(r.rooms, client.RoomID)
		}
	}
}

// IsOnline — есть ли у пользователя хоть одно живое соединение
func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[userID] > 0
}

// RoomUsers возвращает пользователей с открытой сессией в комнате
func (r *Registry) RoomUsers(roomID uuid.UUID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}

	users := make([]uuid.UUID, 0, len(room))
	for userID := range room {
		users = append(users, userID)
	}
	return users
}
