package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Room — диалог ровно между двумя пользователями
type Room struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PairKey   string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Связи
	Participants []Participant `gorm:"foreignKey:RoomID"`
	Messages     []Message     `gorm:"foreignKey:RoomID"`
}

// Participant связывает пользователя с комнатой, всегда ровно две записи на комнату
type Participant struct {
	RoomID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

// PairKey строит канонический ключ неупорядоченной пары userID.
// Одна и та же пара всегда даёт один и тот же ключ, уникальный индекс
// по нему превращает find-or-create в условную вставку.
func PairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if strings.Compare(x, y) > 0 {
		x, y = y, x
	}
	return x + ":" + y
}
