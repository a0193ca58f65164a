package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	err   error
	saved []models.Message
}

func (p *fakePersister) SaveMessage(ctx context.Context, message *models.Message) error {
	if p.err != nil {
		return p.err
	}
	message.ID = uuid.New()
	p.saved = append(p.saved, *message)
	return nil
}

type fakePublisher struct {
	err       error
	published []models.Message
}

func (p *fakePublisher) Publish(ctx context.Context, message models.Message) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, message)
	return nil
}

func Test_SaveMessage_Persists_Then_Publishes(t *testing.T) {
	req := require.New(t)
	persister := &fakePersister{}
	publisher := &fakePublisher{}
	store := NewMessageStore(persister, publisher)

	message := &models.Message{RoomID: uuid.New(), SenderID: uuid.New(), Content: "hello"}
	req.NoError(store.SaveMessage(context.Background(), message))

	req.Len(persister.saved, 1)
	req.Len(publisher.published, 1)
	// Публикуется запись с уже присвоенным id
	req.Equal(message.ID, publisher.published[0].ID)
}

func Test_SaveMessage_Does_Not_Publish_On_Persist_Failure(t *testing.T) {
	req := require.New(t)
	persister := &fakePersister{err: errors.New("insert failed")}
	publisher := &fakePublisher{}
	store := NewMessageStore(persister, publisher)

	err := store.SaveMessage(context.Background(), &models.Message{Content: "hello"})
	req.Error(err)
	req.Empty(publisher.published)
}

func Test_SaveMessage_Reports_EchoLost_When_Only_Publish_Fails(t *testing.T) {
	req := require.New(t)
	persister := &fakePersister{}
	publisher := &fakePublisher{err: errors.New("redis down")}
	store := NewMessageStore(persister, publisher)

	// Сообщение уже durable, но вызывающий должен узнать,
	// что живого повтора не будет
	err := store.SaveMessage(context.Background(), &models.Message{Content: "hello"})
	req.ErrorIs(err, session.ErrEchoLost)
	req.Len(persister.saved, 1)
}
