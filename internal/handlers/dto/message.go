package dto

import (
	"time"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/google/uuid"
)

// SendPayload структура для входящих сообщений
type SendPayload struct {
	Content string `json:"content"`
}

// MessageResponse структура для исходящих сообщений
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Sender    *UserInfo `json:"sender,omitempty"`
}

type UserInfo struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

func FromMessage(m *models.Message) MessageResponse {
	response := MessageResponse{
		ID:        m.ID,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	if m.Sender.ID != uuid.Nil {
		response.Sender = &UserInfo{
			ID:        m.Sender.ID,
			Username:  m.Sender.Username,
			AvatarURL: m.Sender.AvatarURL,
		}
	}
	return response
}
