package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testClient(userID, roomID uuid.UUID) *Client {
	return &Client{ID: uuid.New(), UserID: userID, RoomID: roomID}
}

func Test_Registry_Tracks_Room_Presence(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID, roomID := uuid.New(), uuid.New()
	client := testClient(userID, roomID)

	registry.Add(client)
	req.True(registry.IsOnline(userID))
	req.Equal([]uuid.UUID{userID}, registry.RoomUsers(roomID))

	registry.Remove(client)
	req.False(registry.IsOnline(userID))
	req.Empty(registry.RoomUsers(roomID))
}

func Test_Registry_Survives_Multiple_Tabs(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID, roomID := uuid.New(), uuid.New()
	first := testClient(userID, roomID)
	second := testClient(userID, roomID)

	registry.Add(first)
	registry.Add(second)

	registry.Remove(first)
	req.True(registry.IsOnline(userID))
	req.Equal([]uuid.UUID{userID}, registry.RoomUsers(roomID))

	registry.Remove(second)
	req.False(registry.IsOnline(userID))
}
