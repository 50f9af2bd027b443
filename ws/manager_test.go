package ws

import (
	"context"
	"testing"
	"time"

	"bolsafeucn/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init("test")
}

func startManager(t *testing.T) *WebSocketManager {
	t.Helper()
	manager := NewWebSocketManager()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go manager.Run(ctx)
	return manager
}

func TestSendToUser_DeliversToEveryConnection(t *testing.T) {
	manager := startManager(t)

	first := &Client{UserID: 7, Send: make(chan any, 1), Manager: manager}
	second := &Client{UserID: 7, Send: make(chan any, 1), Manager: manager}
	manager.Register(first)
	manager.Register(second)

	require.Eventually(t, func() bool { return manager.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)

	ok := manager.SendToUser(7, "notification", map[string]string{"title": "hola"})
	assert.True(t, ok)

	for _, c := range []*Client{first, second} {
		msg := <-c.Send
		envelope, isMessage := msg.(Message)
		require.True(t, isMessage)
		assert.Equal(t, "notification", envelope.Type)
	}
}

func TestSendToUser_UnknownUser(t *testing.T) {
	manager := startManager(t)
	assert.False(t, manager.SendToUser(42, "notification", nil))
}

func TestUnregister_ClosesSendChannel(t *testing.T) {
	manager := startManager(t)

	client := &Client{UserID: 3, Send: make(chan any, 1), Manager: manager}
	manager.Register(client)
	require.Eventually(t, func() bool { return manager.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	manager.Unregister(client)
	require.Eventually(t, func() bool { return manager.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-client.Send
	assert.False(t, open)
}

func TestStoppedManager_DoesNotBlock(t *testing.T) {
	manager := NewWebSocketManager()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(stopped)
	}()

	connected := &Client{UserID: 5, Send: make(chan any, 1), Manager: manager}
	manager.Register(connected)
	require.Eventually(t, func() bool { return manager.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// 1. Остановка закрывает все соединения
	cancel()
	<-stopped
	_, open := <-connected.Send
	assert.False(t, open)
	assert.Zero(t, manager.GetClientCount())

	// 2. Unregister из readPump и Register нового клиента не зависают
	late := &Client{UserID: 6, Send: make(chan any, 1), Manager: manager}
	finished := make(chan struct{})
	go func() {
		manager.Unregister(connected)
		manager.Register(late)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Register/Unregister зависли после остановки менеджера")
	}

	_, open = <-late.Send
	assert.False(t, open)
}
