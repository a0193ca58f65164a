package gateway

import (
	"context"
	"fmt"
	"log"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/session"
)

type Persister interface {
	SaveMessage(ctx context.Context, message *models.Message) error
}

type Publisher interface {
	Publish(ctx context.Context, message models.Message) error
}

// MessageStore пишет сообщение в базу и раздает его живым подпискам.
// created_at и id к моменту публикации уже присвоены базой.
type MessageStore struct {
	store Persister
	bus   Publisher
}

func NewMessageStore(store Persister, bus Publisher) *MessageStore {
	return &MessageStore{store: store, bus: bus}
}

func (s *MessageStore) SaveMessage(ctx context.Context, message *models.Message) error {
	if err := s.store.SaveMessage(ctx, message); err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, *message); err != nil {
		// сообщение уже в базе, потерян только live-повтор:
		// подписчики увидят его при следующей загрузке истории.
		// Вызывающий различает этот случай по ErrEchoLost.
		log.Printf("Publish after save failed for message %s: %v", message.ID, err)
		return fmt.Errorf("%w: %v", session.ErrEchoLost, err)
	}
	return nil
}
