package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/handlers/dto"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/middleware"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/session"
	ws "github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/websocket"
)

// ConversationStore — доступ к комнате: членство и история
type ConversationStore interface {
	IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	session.History
}

// WebSocketHandler держит по одной живой сессии диалога на соединение
type WebSocketHandler struct {
	db       ConversationStore
	bus      session.Subscriber
	store    session.Appender
	registry *ws.Registry
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(db ConversationStore, bus session.Subscriber, store session.Appender, registry *ws.Registry) *WebSocketHandler {
	return &WebSocketHandler{
		db:       db,
		bus:      bus,
		store:    store,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Проверить origin в prod
				return true
			},
		},
	}
}

// Attach открывает живую сессию диалога поверх WebSocket:
// снимок истории уходит одним кадром, каждое новое сообщение ровно одним кадром
func (h *WebSocketHandler) Attach(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	isMember, err := h.db.IsParticipant(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this conversation"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Жизнь сессии не привязана к контексту запроса: он гаснет раньше соединения
	ctx, cancel := context.WithCancel(context.Background())

	client := ws.NewClient(conn, userID, roomID)
	sess := session.New(roomID, userID, h.db, h.store, h.bus)

	if err := sess.Open(ctx); err != nil {
		cancel()
		// WritePump еще не запущен, кадр надо писать напрямую
		client.WriteErrorNow("failed to open conversation")
		conn.Close()
		return
	}

	h.registry.Add(client)

	go client.WritePump()

	// Снимок и живой поток разводятся внутри сессии: сообщение, пришедшее
	// во время открытия, попадает ровно в один из двух кадров
	sess.Attach(
		func(history []models.Message) {
			snapshot := make([]dto.MessageResponse, len(history))
			for i := range history {
				snapshot[i] = dto.FromMessage(&history[i])
			}
			client.SendEvent(ws.TypeState, gin.H{"state": session.StateLive, "messages": snapshot})
		},
		func(m models.Message) {
			client.SendEvent(ws.TypeMessage, dto.FromMessage(&m))
		},
	)

	go client.ReadPump(&sessionInbound{sess: sess}, func() {
		h.registry.Remove(client)
		sess.Close()
		cancel()
	})
}

// sessionInbound превращает входящие кадры в отправки через сессию
type sessionInbound struct {
	sess *session.Session
}

func (si *sessionInbound) HandleInbound(client *ws.Client, event *ws.Event) error {
	if event.Type != ws.TypeMessage {
		return nil
	}

	var payload dto.SendPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		client.SendError("invalid payload", nil)
		return ws.ErrInvalidEvent
	}

	if _, err := si.sess.Send(context.Background(), payload.Content); err != nil {
		// возвращаем текст, чтобы клиент мог восстановить поле ввода
		switch {
		case errors.Is(err, session.ErrEmptyMessage):
			client.SendError("message content is empty", gin.H{"content": payload.Content})
		case errors.Is(err, session.ErrClosed):
			client.SendError("conversation is closed", gin.H{"content": payload.Content})
		default:
			client.SendError("failed to send message", gin.H{"content": payload.Content})
		}
		return err
	}

	return nil
}
