package models

import (
	"github.com/google/uuid"
	"time"
)

// Message неизменяемо после создания, created_at присваивает сервер при записи
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID    uuid.UUID `gorm:"not null;index"`
	SenderID  uuid.UUID `gorm:"not null"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time

	// Связи
	Sender User `gorm:"foreignKey:SenderID"`
	Room   Room `gorm:"foreignKey:RoomID"`
}
