package rooms

import (
	"context"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/google/uuid"
)

// Partner возвращает идентификатор второго участника комнаты.
// Комната с любым другим составом участников — нарушение целостности,
// наружу оно уходит как ErrPartnerNotFound, а не молчаливый дефолт.
func Partner(participants []models.Participant, selfID uuid.UUID) (uuid.UUID, error) {
	var others []uuid.UUID
	for _, p := range participants {
		if p.UserID != selfID {
			others = append(others, p.UserID)
		}
	}
	if len(others) != 1 {
		return uuid.Nil, ErrPartnerNotFound
	}
	return others[0], nil
}

type DirectoryStore interface {
	RoomParticipants(ctx context.Context, roomID uuid.UUID) ([]models.Participant, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Directory отдаёт профиль собеседника для шапки диалога
type Directory struct {
	store DirectoryStore
}

func NewDirectory(store DirectoryStore) *Directory {
	return &Directory{store: store}
}

func (d *Directory) PartnerProfile(ctx context.Context, roomID, selfID uuid.UUID) (*models.User, error) {
	participants, err := d.store.RoomParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}

	partnerID, err := Partner(participants, selfID)
	if err != nil {
		return nil, err
	}

	return d.store.GetUser(ctx, partnerID)
}
