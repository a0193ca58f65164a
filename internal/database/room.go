package database

import (
	"context"
	"errors"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (d *Database) RoomByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := d.db.WithContext(ctx).Preload("Participants").First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (d *Database) FindRoomByPairKey(ctx context.Context, key string) (*models.Room, error) {
	var room models.Room
	if err := d.db.WithContext(ctx).Preload("Participants").Where("pair_key = ?", key).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateDirectRoom создает комнату и обе записи участников одной транзакцией,
// осиротевшая комната без участников невозможна
func (d *Database) CreateDirectRoom(ctx context.Context, a, b uuid.UUID) (*models.Room, error) {
	room := models.Room{PairKey: models.PairKey(a, b)}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		participants := []models.Participant{
			{RoomID: room.ID, UserID: a},
			{RoomID: room.ID, UserID: b},
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return nil, err
	}

	room.Participants = []models.Participant{
		{RoomID: room.ID, UserID: a},
		{RoomID: room.ID, UserID: b},
	}
	return &room, nil
}

// FindOrCreateDirectRoom возвращает единственную комнату пары {a,b}.
// Гонку двух одновременных резолвов решает уникальный индекс по pair_key:
// проигравший ловит ErrDuplicatedKey и перечитывает комнату победителя.
func (d *Database) FindOrCreateDirectRoom(ctx context.Context, a, b uuid.UUID) (*models.Room, error) {
	key := models.PairKey(a, b)

	room, err := d.FindRoomByPairKey(ctx, key)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	room, err = d.CreateDirectRoom(ctx, a, b)
	if err == nil {
		return room, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return d.FindRoomByPairKey(ctx, key)
	}
	return nil, err
}

func (d *Database) RoomParticipants(ctx context.Context, roomID uuid.UUID) ([]models.Participant, error) {
	var participants []models.Participant
	err := d.db.WithContext(ctx).Where("room_id = ?", roomID).Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (d *Database) IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.Participant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

// UserRooms получает комнаты пользователя, свежие по активности первыми
func (d *Database) UserRooms(ctx context.Context, userID uuid.UUID) ([]models.Room, error) {
	var rooms []models.Room
	err := d.db.WithContext(ctx).
		Joins("JOIN participants ON participants.room_id = rooms.id").
		Where("participants.user_id = ?", userID).
		Order("rooms.updated_at DESC").
		Preload("Participants").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
