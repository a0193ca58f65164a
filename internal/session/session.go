package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/google/uuid"
)

// State — фаза жизненного цикла сессии
type State string

const (
	StateInitializing State = "initializing"
	StateLoaded       State = "loaded"
	StateLive         State = "live"
	StateClosed       State = "closed"
	StateError        State = "error"
)

const historyLimit = 100

type History interface {
	RoomMessages(ctx context.Context, roomID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error)
}

type Appender interface {
	SaveMessage(ctx context.Context, message *models.Message) error
}

type Subscription interface {
	Cancel()
}

// Subscriber выдает живой поток новых сообщений комнаты.
// onDrop вызывается один раз, если поток оборвался без Cancel.
type Subscriber interface {
	SubscribeRoom(ctx context.Context, roomID uuid.UUID, onMessage func(models.Message), onDrop func(error)) (Subscription, error)
}

// Session — живое представление одной комнаты для одного клиента:
// история плюс push, в порядке created_at, без дублей по id
type Session struct {
	roomID uuid.UUID
	selfID uuid.UUID

	history    History
	appender   Appender
	subscriber Subscriber

	mu           sync.Mutex
	state        State
	err          error
	messages     []models.Message
	seen         map[uuid.UUID]struct{}
	sub          Subscription
	resubscribed bool
	ctx          context.Context
	onMessage    func(models.Message)
}

func New(roomID, selfID uuid.UUID, history History, appender Appender, subscriber Subscriber) *Session {
	return &Session{
		roomID:     roomID,
		selfID:     selfID,
		history:    history,
		appender:   appender,
		subscriber: subscriber,
		state:      StateInitializing,
		seen:       make(map[uuid.UUID]struct{}),
	}
}

// Attach под одной блокировкой отдает снимок накопленных сообщений и
// включает единственный слот уведомлений: каждое сообщение попадает либо
// в снимок, либо в слот, ровно один раз. onSnapshot выполняется до того,
// как слот начнет получать доставки.
func (s *Session) Attach(onSnapshot func([]models.Message), onMessage func(models.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if onSnapshot != nil {
		snapshot := make([]models.Message, len(s.messages))
		copy(snapshot, s.messages)
		onSnapshot(snapshot)
	}
	s.onMessage = onMessage
}

// Open загружает историю и подписывается на push.
// Повторный Open допустим только из состояния Error — это и есть retry.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateLoaded, StateLive:
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	s.state = StateInitializing
	s.err = nil
	s.messages = nil
	s.seen = make(map[uuid.UUID]struct{})
	s.resubscribed = false
	s.ctx = ctx
	s.mu.Unlock()

	history, err := s.history.RoomMessages(ctx, s.roomID, historyLimit, nil)
	if err != nil {
		s.fail(err)
		return fmt.Errorf("load history: %w", err)
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	for _, m := range history {
		s.ingestLocked(m)
	}
	s.state = StateLoaded
	s.mu.Unlock()

	sub, err := s.subscriber.SubscribeRoom(ctx, s.roomID, s.deliver, s.handleDrop)
	if err != nil {
		s.fail(fmt.Errorf("%w: %v", ErrSubscriptionFailed, err))
		return fmt.Errorf("%w: %v", ErrSubscriptionFailed, err)
	}

	s.mu.Lock()
	if s.state == StateClosed {
		// закрыли, пока подписка оформлялась
		s.mu.Unlock()
		sub.Cancel()
		return ErrClosed
	}
	s.sub = sub
	s.state = StateLive
	s.mu.Unlock()

	return nil
}

// Send проверяет текст до любого обращения к бэкенду.
// Сообщение не попадает в локальный список здесь: оно отрисуется,
// когда вернется своим же push (см. deliver). Исключение — ErrEchoLost
// от Appender: запись прошла, эха не будет, поэтому локальная доставка
// выполняется на месте.
func (s *Session) Send(ctx context.Context, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return nil, ErrClosed
	case StateLoaded, StateLive:
	default:
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: session state is %s", ErrSendFailed, state)
	}
	s.mu.Unlock()

	message := &models.Message{
		RoomID:   s.roomID,
		SenderID: s.selfID,
		Content:  content,
	}
	if err := s.appender.SaveMessage(ctx, message); err != nil {
		if errors.Is(err, ErrEchoLost) {
			// сообщение уже durable, но эхо не придет:
			// показываем его у отправителя сами
			s.deliver(*message)
			return message, nil
		}
		// текст остается у вызывающего, повтор — его решение
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return message, nil
}

// Close снимает подписку, дальнейшие push и Send игнорируются
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	sub := s.sub
	s.sub = nil
	s.state = StateClosed
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Messages отдает копию текущего списка, по возрастанию created_at
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) deliver(m models.Message) {
	s.mu.Lock()
	if s.state != StateLoaded && s.state != StateLive {
		s.mu.Unlock()
		return
	}
	if !s.ingestLocked(m) {
		s.mu.Unlock()
		return
	}
	cb := s.onMessage
	s.mu.Unlock()

	if cb != nil {
		cb(m)
	}
}

// ingestLocked вставляет сообщение в позицию по created_at, дубль по id отбрасывает
func (s *Session) ingestLocked(m models.Message) bool {
	if _, ok := s.seen[m.ID]; ok {
		return false
	}
	s.seen[m.ID] = struct{}{}

	i := len(s.messages)
	for i > 0 && s.messages[i-1].CreatedAt.After(m.CreatedAt) {
		i--
	}
	s.messages = append(s.messages, models.Message{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = m
	return true
}

// handleDrop — обрыв подписки: ровно одна попытка переподписаться,
// после второго обрыва сессия уходит в Error
func (s *Session) handleDrop(cause error) {
	s.mu.Lock()
	if s.state != StateLive {
		s.mu.Unlock()
		return
	}
	if s.resubscribed {
		s.state = StateError
		s.err = fmt.Errorf("%w: %v", ErrSubscriptionFailed, cause)
		s.sub = nil
		s.mu.Unlock()
		return
	}
	s.resubscribed = true
	ctx := s.ctx
	s.mu.Unlock()

	sub, err := s.subscriber.SubscribeRoom(ctx, s.roomID, s.deliver, s.handleDrop)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateError
		s.err = fmt.Errorf("%w: %v", ErrSubscriptionFailed, err)
		s.sub = nil
		return
	}
	if s.state == StateClosed {
		sub.Cancel()
		return
	}
	s.sub = sub
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateError
	s.err = err
}
