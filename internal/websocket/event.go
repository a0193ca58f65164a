package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType определяет типы кадров
type EventType string

const (
	// Системные типы
	TypePong  EventType = "pong"
	TypeError EventType = "error"

	// Типы диалога
	TypeMessage EventType = "message"
	TypeState   EventType = "state"
)

type Event struct {
	Type      EventType       `json:"type"`
	RoomID    uuid.UUID       `json:"room_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
