package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/session"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Bus раздает новые сообщения комнаты через Redis pub/sub.
// Канал на комнату, поэтому доставка работает и между инстансами сервера.
type Bus struct {
	rdb *redis.Client
}

func NewBus(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

func roomChannel(roomID uuid.UUID) string {
	return "chat:room:" + roomID.String()
}

func (b *Bus) Publish(ctx context.Context, message models.Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, roomChannel(message.RoomID), payload).Err()
}

// SubscribeRoom оформляет подписку и дожидается подтверждения от Redis,
// прежде чем вернуть управление. Обрыв канала без Cancel уходит в onDrop.
func (b *Bus) SubscribeRoom(ctx context.Context, roomID uuid.UUID, onMessage func(models.Message), onDrop func(error)) (session.Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, roomChannel(roomID))

	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	sub := &roomSubscription{pubsub: pubsub}

	go func() {
		for msg := range pubsub.Channel() {
			var m models.Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				log.Printf("Bad payload on %s: %v", roomChannel(roomID), err)
				continue
			}
			onMessage(m)
		}
		if !sub.cancelled() && onDrop != nil {
			onDrop(errors.New("pubsub channel closed"))
		}
	}()

	return sub, nil
}

type roomSubscription struct {
	pubsub *redis.PubSub
	mu     sync.Mutex
	closed bool
}

func (s *roomSubscription) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.pubsub.Close()
}

func (s *roomSubscription) cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
