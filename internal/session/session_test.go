package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	history       []models.Message
	historyErr    error
	saveErr       error
	echoLost      bool
	saved         []models.Message
	subscribeErr  error
	subscriptions int
	onMessage     func(models.Message)
	onDrop        func(error)
	lastSub       *fakeSubscription
}

type fakeSubscription struct {
	cancelled bool
}

func (s *fakeSubscription) Cancel() { s.cancelled = true }

func (b *fakeBackend) RoomMessages(ctx context.Context, roomID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	if b.historyErr != nil {
		return nil, b.historyErr
	}
	return b.history, nil
}

func (b *fakeBackend) SaveMessage(ctx context.Context, message *models.Message) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	b.saved = append(b.saved, *message)
	if b.echoLost {
		return fmt.Errorf("%w: redis down", ErrEchoLost)
	}
	return nil
}

func (b *fakeBackend) SubscribeRoom(ctx context.Context, roomID uuid.UUID, onMessage func(models.Message), onDrop func(error)) (Subscription, error) {
	if b.subscribeErr != nil {
		return nil, b.subscribeErr
	}
	b.subscriptions++
	b.onMessage = onMessage
	b.onDrop = onDrop
	b.lastSub = &fakeSubscription{}
	return b.lastSub, nil
}

func message(roomID uuid.UUID, content string, at time.Time) models.Message {
	return models.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		SenderID:  uuid.New(),
		Content:   content,
		CreatedAt: at,
	}
}

func openSession(t *testing.T, backend *fakeBackend, roomID, selfID uuid.UUID) *Session {
	t.Helper()
	s := New(roomID, selfID, backend, backend, backend)
	require.NoError(t, s.Open(context.Background()))
	return s
}

func Test_Open_Loads_History_And_Goes_Live(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	now := time.Now()
	backend := &fakeBackend{history: []models.Message{
		message(roomID, "first", now),
		message(roomID, "second", now.Add(time.Minute)),
	}}

	s := openSession(t, backend, roomID, uuid.New())

	req.Equal(StateLive, s.State())
	req.Equal(1, backend.subscriptions)

	messages := s.Messages()
	req.Len(messages, 2)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)
}

func Test_Open_Fails_Into_Error_State_On_History_Failure(t *testing.T) {
	req := require.New(t)
	backend := &fakeBackend{historyErr: errors.New("timeout")}

	s := New(uuid.New(), uuid.New(), backend, backend, backend)
	err := s.Open(context.Background())
	req.Error(err)
	req.Equal(StateError, s.State())
}

func Test_Open_Fails_On_Subscription_Failure(t *testing.T) {
	req := require.New(t)
	backend := &fakeBackend{subscribeErr: errors.New("refused")}

	s := New(uuid.New(), uuid.New(), backend, backend, backend)
	err := s.Open(context.Background())
	req.ErrorIs(err, ErrSubscriptionFailed)
	req.Equal(StateError, s.State())
}

func Test_Open_Retries_From_Error_State(t *testing.T) {
	req := require.New(t)
	backend := &fakeBackend{historyErr: errors.New("timeout")}

	s := New(uuid.New(), uuid.New(), backend, backend, backend)
	req.Error(s.Open(context.Background()))

	backend.historyErr = nil
	req.NoError(s.Open(context.Background()))
	req.Equal(StateLive, s.State())
}

func Test_Pushed_Messages_Keep_CreatedAt_Order(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	now := time.Now()
	backend := &fakeBackend{}

	s := openSession(t, backend, roomID, uuid.New())

	// Приходят не по порядку
	backend.onMessage(message(roomID, "third", now.Add(2*time.Minute)))
	backend.onMessage(message(roomID, "first", now))
	backend.onMessage(message(roomID, "second", now.Add(time.Minute)))

	messages := s.Messages()
	req.Len(messages, 3)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)
	req.Equal("third", messages[2].Content)

	for i := 1; i < len(messages); i++ {
		req.False(messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func Test_Duplicate_Push_Renders_Once(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	backend := &fakeBackend{}

	s := openSession(t, backend, roomID, uuid.New())

	m := message(roomID, "hello", time.Now())
	backend.onMessage(m)
	backend.onMessage(m)

	req.Len(s.Messages(), 1)
}

func Test_Push_Already_In_History_Is_Deduplicated(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	m := message(roomID, "hello", time.Now())
	backend := &fakeBackend{history: []models.Message{m}}

	s := openSession(t, backend, roomID, uuid.New())

	backend.onMessage(m)
	req.Len(s.Messages(), 1)
}

func Test_Send_Rejects_Blank_Content_Before_Backend(t *testing.T) {
	req := require.New(t)
	backend := &fakeBackend{}

	s := openSession(t, backend, uuid.New(), uuid.New())

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err := s.Send(context.Background(), content)
		req.ErrorIs(err, ErrEmptyMessage)
	}
	req.Empty(backend.saved)
}

func Test_Send_Renders_Only_On_Echo(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	selfID := uuid.New()
	backend := &fakeBackend{}

	s := openSession(t, backend, roomID, selfID)

	sent, err := s.Send(context.Background(), "  Hello  ")
	req.NoError(err)
	req.Equal("Hello", sent.Content)
	req.Equal(selfID, sent.SenderID)

	// До прихода собственного push список пуст
	req.Empty(s.Messages())

	backend.onMessage(*sent)
	messages := s.Messages()
	req.Len(messages, 1)
	req.Equal(sent.ID, messages[0].ID)

	// Повторное эхо не добавляет второй записи
	backend.onMessage(*sent)
	req.Len(s.Messages(), 1)
}

func Test_Send_Failure_Does_Not_Mutate_Session(t *testing.T) {
	req := require.New(t)
	backend := &fakeBackend{saveErr: errors.New("insert failed")}

	s := openSession(t, backend, uuid.New(), uuid.New())

	_, err := s.Send(context.Background(), "hello")
	req.ErrorIs(err, ErrSendFailed)
	req.Empty(s.Messages())
	req.Equal(StateLive, s.State())
}

func Test_Close_Cancels_Subscription_And_Ignores_Late_Pushes(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	backend := &fakeBackend{}

	s := openSession(t, backend, roomID, uuid.New())
	s.Close()

	req.Equal(StateClosed, s.State())
	req.True(backend.lastSub.cancelled)

	// Поздний push закрытую сессию не трогает
	backend.onMessage(message(roomID, "late", time.Now()))
	req.Empty(s.Messages())

	_, err := s.Send(context.Background(), "hello")
	req.ErrorIs(err, ErrClosed)
}

func Test_Notification_Slot_Fires_For_New_Messages_Only(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	backend := &fakeBackend{}

	s := openSession(t, backend, roomID, uuid.New())
	var notified []models.Message
	s.Attach(nil, func(m models.Message) {
		notified = append(notified, m)
	})

	m := message(roomID, "hello", time.Now())
	backend.onMessage(m)
	backend.onMessage(m)

	req.Len(notified, 1)
	req.Equal(m.ID, notified[0].ID)
}

func Test_Attach_Splits_Snapshot_And_Live_Exactly_Once(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	now := time.Now()
	inHistory := message(roomID, "from history", now)
	backend := &fakeBackend{history: []models.Message{inHistory}}

	s := openSession(t, backend, roomID, uuid.New())

	// Push до подключения слота оказывается только в снимке
	early := message(roomID, "before attach", now.Add(time.Minute))
	backend.onMessage(early)

	var snapshot []models.Message
	var notified []models.Message
	s.Attach(func(ms []models.Message) {
		snapshot = ms
	}, func(m models.Message) {
		notified = append(notified, m)
	})

	late := message(roomID, "after attach", now.Add(2*time.Minute))
	backend.onMessage(late)

	req.Len(snapshot, 2)
	req.Equal(inHistory.ID, snapshot[0].ID)
	req.Equal(early.ID, snapshot[1].ID)

	// Ничего из снимка не приходит повторно через слот
	req.Len(notified, 1)
	req.Equal(late.ID, notified[0].ID)
}

func Test_Send_Echoes_Locally_When_Live_Delivery_Is_Lost(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	selfID := uuid.New()
	backend := &fakeBackend{echoLost: true}

	s := openSession(t, backend, roomID, selfID)

	sent, err := s.Send(context.Background(), "hello")
	req.NoError(err)
	req.Len(backend.saved, 1)

	// Эха не будет, сообщение показано отправителю сразу
	messages := s.Messages()
	req.Len(messages, 1)
	req.Equal(sent.ID, messages[0].ID)

	// Если повтор все же дойдет, второй записи не появится
	backend.onMessage(*sent)
	req.Len(s.Messages(), 1)
}

func Test_Drop_Resubscribes_Exactly_Once(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	backend := &fakeBackend{}

	s := openSession(t, backend, roomID, uuid.New())
	req.Equal(1, backend.subscriptions)

	// Первый обрыв — одна переподписка, сессия живая
	backend.onDrop(errors.New("connection reset"))
	req.Equal(2, backend.subscriptions)
	req.Equal(StateLive, s.State())

	// Доставка работает через новую подписку
	backend.onMessage(message(roomID, "after reconnect", time.Now()))
	req.Len(s.Messages(), 1)

	// Второй обрыв — постоянное состояние ошибки, без цикла ретраев
	backend.onDrop(errors.New("connection reset"))
	req.Equal(2, backend.subscriptions)
	req.Equal(StateError, s.State())
	req.ErrorIs(s.Err(), ErrSubscriptionFailed)
}

func Test_Drop_With_Failed_Resubscribe_Surfaces_Error(t *testing.T) {
	req := require.New(t)
	backend := &fakeBackend{}

	s := openSession(t, backend, uuid.New(), uuid.New())

	backend.subscribeErr = errors.New("refused")
	backend.onDrop(errors.New("connection reset"))

	req.Equal(StateError, s.State())
	req.ErrorIs(s.Err(), ErrSubscriptionFailed)
}
