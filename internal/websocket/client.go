package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер кадра
	maxEventSize = 64 * 1024 // 64KB
)

type InboundHandler interface {
	HandleInbound(client *Client, event *Event) error
}

// Client — одно WebSocket-соединение, привязанное к одной комнате
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	RoomID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(conn *websocket.Conn, userID, roomID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		RoomID: roomID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// ReadPump читает кадры от клиента, onClose выполняется при любом выходе
func (c *Client) ReadPump(handler InboundHandler, onClose func()) {
	defer func() {
		onClose()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxEventSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event Event
		err := c.Conn.ReadJSON(&event)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if event.Type == TypePong {
			continue
		}

		if handler != nil {
			if err := handler.HandleInbound(c, &event); err != nil {
				log.Printf("Error handling event: %v", err)
			}
		}
	}
}

// WritePump отправляет кадры клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, event)

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendEvent(eventType EventType, data interface{}) error {
	event := Event{
		Type:      eventType,
		RoomID:    c.RoomID,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		event.Data = jsonData
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.Send <- eventData:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(errorMsg string, detail interface{}) {
	c.SendEvent(TypeError, map[string]interface{}{
		"error":  errorMsg,
		"detail": detail,
	})
}

// WriteErrorNow пишет кадр ошибки и close напрямую в соединение.
// Вызывать можно только пока WritePump не запущен
func (c *Client) WriteErrorNow(errorMsg string) error {
	payload, err := json.Marshal(map[string]interface{}{"error": errorMsg})
	if err != nil {
		return err
	}

	event := Event{
		Type:      TypeError,
		RoomID:    c.RoomID,
		Timestamp: time.Now(),
		Data:      payload,
	}

	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.Conn.WriteJSON(event); err != nil {
		return err
	}

	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseInternalServerErr, errorMsg))
}
