package ws

import (
	"context"
	"sync"

	"bolsafeucn/internal/logger"
)

// Message - конверт, который уходит клиенту
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WebSocketManager держит открытые соединения по пользователям.
// У одного пользователя может быть несколько вкладок.
type WebSocketManager struct {
	clients    map[uint]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	// done закрывается, когда Run завершился
	done chan struct{}
	mu   sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run обрабатывает регистрацию клиентов до отмены ctx.
func (manager *WebSocketManager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			manager.closeAll()
			close(manager.done)
			return

		case client := <-manager.register:
			manager.mu.Lock()
			set, ok := manager.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				manager.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			total := len(set)
			manager.mu.Unlock()
			logger.Debug("WS client registered", "user_id", client.UserID, "connections", total)

		case client := <-manager.unregister:
			manager.remove(client)
		}
	}
}

// Register ставит клиента в очередь на регистрацию.
// После остановки менеджера канал клиента сразу закрывается.
func (manager *WebSocketManager) Register(client *Client) {
	select {
	case manager.register <- client:
	case <-manager.done:
		close(client.Send)
	}
}

// Unregister ставит клиента в очередь на удаление.
// После остановки менеджера ничего не делает: closeAll уже закрыл каналы.
func (manager *WebSocketManager) Unregister(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

func (manager *WebSocketManager) remove(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	set, ok := manager.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	close(client.Send)
	delete(set, client)
	if len(set) == 0 {
		delete(manager.clients, client.UserID)
	}
	logger.Debug("WS client unregistered", "user_id", client.UserID)
}

func (manager *WebSocketManager) closeAll() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for userID, set := range manager.clients {
		for client := range set {
			close(client.Send)
		}
		delete(manager.clients, userID)
	}
}

// SendToUser отправляет сообщение во все соединения пользователя.
// Возвращает false, если пользователь не подключен.
func (manager *WebSocketManager) SendToUser(userID uint, messageType string, data any) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	set, ok := manager.clients[userID]
	if !ok || len(set) == 0 {
		return false
	}

	msg := Message{Type: messageType, Data: data}
	for client := range set {
		select {
		case client.Send <- msg:
		default:
			// Канал заполнен, клиент отключается
			go manager.Unregister(client)
			logger.Warn("WS client dropped due to full send channel", "user_id", userID)
		}
	}
	return true
}

// GetClientCount возвращает количество открытых соединений
func (manager *WebSocketManager) GetClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	total := 0
	for _, set := range manager.clients {
		total += len(set)
	}
	return total
}
