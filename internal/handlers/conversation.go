package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/database"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/gateway"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/handlers/dto"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/middleware"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/rooms"
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/session"
	ws "github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/websocket"
)

type ConversationHandler struct {
	db        *database.Database
	resolver  *rooms.Resolver
	directory *rooms.Directory
	store     *gateway.MessageStore
	registry  *ws.Registry
}

func NewConversationHandler(db *database.Database, resolver *rooms.Resolver, directory *rooms.Directory, store *gateway.MessageStore, registry *ws.Registry) *ConversationHandler {
	return &ConversationHandler{
		db:        db,
		resolver:  resolver,
		directory: directory,
		store:     store,
		registry:  registry,
	}
}

// Open находит или создает диалог с указанным пользователем.
// Инициатор — всегда аутентифицированный пользователь из токена.
func (h *ConversationHandler) Open(c *gin.Context) {
	selfID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if _, err := h.db.GetUser(c.Request.Context(), targetID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	room, err := h.resolver.Resolve(c.Request.Context(), selfID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrNotAuthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		case errors.Is(err, rooms.ErrSelfConversation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open a conversation with yourself"})
		case errors.Is(err, rooms.ErrPartnerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, rooms.ErrBackendUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to open conversation"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open conversation"})
		}
		return
	}

	c.JSON(http.StatusOK, h.formatConversation(c, room, selfID))
}

// List получает диалоги пользователя, свежие первыми
func (h *ConversationHandler) List(c *gin.Context) {
	selfID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	userRooms, err := h.db.UserRooms(c.Request.Context(), selfID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get conversations"})
		return
	}

	response := make([]gin.H, len(userRooms))
	for i := range userRooms {
		item := h.formatConversation(c, &userRooms[i], selfID)

		// Превью последнего сообщения для списка диалогов
		if last, err := h.db.LastRoomMessage(c.Request.Context(), userRooms[i].ID); err == nil {
			item["last_message"] = dto.FromMessage(last)
		}

		response[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"conversations": response})
}

// Get получает один диалог с профилем собеседника
func (h *ConversationHandler) Get(c *gin.Context) {
	selfID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	room, ok := h.memberRoom(c, selfID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.formatConversation(c, room, selfID))
}

// History получает сообщения диалога по возрастанию created_at
func (h *ConversationHandler) History(c *gin.Context) {
	selfID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	room, ok := h.memberRoom(c, selfID)
	if !ok {
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var beforeID *uuid.UUID
	if before := c.Query("before"); before != "" {
		if id, err := uuid.Parse(before); err == nil {
			beforeID = &id
		}
	}

	messages, err := h.db.RoomMessages(c.Request.Context(), room.ID, limit, beforeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	result := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		result[i] = dto.FromMessage(&messages[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": result,
		"has_more": len(messages) == limit,
	})
}

// Send отправляет сообщение через HTTP (альтернатива WebSocket).
// Отправитель — только аутентифицированный пользователь, текст из запроса
// проверяется до обращения к базе.
func (h *ConversationHandler) Send(c *gin.Context) {
	selfID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	room, ok := h.memberRoom(c, selfID)
	if !ok {
		return
	}

	var req dto.SendPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is empty"})
		return
	}

	message := &models.Message{
		RoomID:   room.ID,
		SenderID: selfID,
		Content:  content,
	}

	if err := h.store.SaveMessage(c.Request.Context(), message); err != nil {
		// сообщение с потерянным live-повтором уже durable, это не отказ
		if !errors.Is(err, session.ErrEchoLost) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
			return
		}
	}

	// Загружаем полную запись с информацией об отправителе
	if full, err := h.db.GetMessage(c.Request.Context(), message.ID); err == nil {
		message = full
	}

	go h.db.UpdateLastSeen(context.Background(), selfID)

	c.JSON(http.StatusCreated, dto.FromMessage(message))
}

// memberRoom загружает комнату из :id и отклоняет не-участников
func (h *ConversationHandler) memberRoom(c *gin.Context, selfID uuid.UUID) (*models.Room, bool) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return nil, false
	}

	room, err := h.db.RoomByID(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return nil, false
	}

	isMember := false
	for _, p := range room.Participants {
		if p.UserID == selfID {
			isMember = true
			break
		}
	}

	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this conversation"})
		return nil, false
	}

	return room, true
}

// formatConversation форматирует ответ для диалога
func (h *ConversationHandler) formatConversation(c *gin.Context, room *models.Room, selfID uuid.UUID) gin.H {
	response := gin.H{
		"id":         room.ID,
		"created_at": room.CreatedAt,
		"updated_at": room.UpdatedAt,
	}

	partner, err := h.directory.PartnerProfile(c.Request.Context(), room.ID, selfID)
	if err != nil {
		if errors.Is(err, rooms.ErrPartnerNotFound) {
			// состав участников нарушен, отдаем диалог без собеседника
			response["partner_error"] = "conversation partner not found"
			return response
		}
		return response
	}

	response["partner"] = gin.H{
		"id":           partner.ID,
		"username":     partner.Username,
		"avatar_url":   partner.AvatarURL,
		"last_seen_at": partner.LastSeenAt,
		"is_online":    h.registry.IsOnline(partner.ID),
	}

	return response
}
