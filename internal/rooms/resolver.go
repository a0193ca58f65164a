package rooms

import (
	"context"
	"fmt"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/google/uuid"
)

// Store — то, что резолверу нужно от хранилища
type Store interface {
	FindOrCreateDirectRoom(ctx context.Context, a, b uuid.UUID) (*models.Room, error)
}

// Resolver находит единственную комнату для пары пользователей,
// создавая её только при отсутствии
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve работает только от имени self: инициатор всегда аутентифицированная
// личность, создать комнату за другого нельзя
func (r *Resolver) Resolve(ctx context.Context, self, target uuid.UUID) (*models.Room, error) {
	if self == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	if target == uuid.Nil {
		return nil, ErrPartnerNotFound
	}
	if self == target {
		return nil, ErrSelfConversation
	}

	room, err := r.store.FindOrCreateDirectRoom(ctx, self, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return room, nil
}
