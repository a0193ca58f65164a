package database

import (
	"context"
	"errors"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaveMessage пишет сообщение и сдвигает updated_at комнаты вперед
func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Room{}).
			Where("id = ? AND updated_at < ?", message.RoomID, message.CreatedAt).
			Update("updated_at", message.CreatedAt).Error
	})
}

func (d *Database) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := d.db.WithContext(ctx).Preload("Sender").First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// beforeCursor превращает результат загрузки курсорной записи в решение:
// отсутствующий курсор игнорируется, любая другая ошибка прерывает запрос
func beforeCursor(before *models.Message, err error) (*models.Message, error) {
	if err == nil {
		return before, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// RoomMessages получает историю комнаты по возрастанию created_at.
// beforeID задает курсор пагинации назад.
func (d *Database) RoomMessages(ctx context.Context, roomID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	query := d.db.WithContext(ctx).Where("room_id = ?", roomID)

	if beforeID != nil {
		var row models.Message
		cursor, err := beforeCursor(&row, d.db.WithContext(ctx).First(&row, "id = ?", beforeID).Error)
		if err != nil {
			return nil, err
		}
		if cursor != nil {
			query = query.Where("created_at < ?", cursor.CreatedAt)
		}
	}

	var messages []models.Message
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Разворачиваем, чтобы старые сообщения были первыми
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (d *Database) LastRoomMessage(ctx context.Context, roomID uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}
