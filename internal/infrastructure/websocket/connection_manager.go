package websocket

import (
	"sync"

	"dao-auction/internal/domain"
	"dao-auction/pkg/logger"
)

// ConnectionManager tracks live-feed subscribers per feed key (an auction
// token id, or "all" for the firehose).
type ConnectionManager struct {
	feeds map[string]map[string]domain.WebSocketConnection // feedKey -> clientID -> connection
	mutex sync.RWMutex
	log   logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		feeds: make(map[string]map[string]domain.WebSocketConnection),
		log:   log,
	}
}

func (cm *ConnectionManager) RegisterConnection(clientID, feedKey string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.feeds[feedKey] == nil {
		cm.feeds[feedKey] = make(map[string]domain.WebSocketConnection)
	}
	cm.feeds[feedKey][clientID] = conn

	cm.log.Info("Feed subscriber registered", "client_id", clientID, "feed", feedKey)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(clientID, feedKey string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if subscribers, exists := cm.feeds[feedKey]; exists {
		delete(subscribers, clientID)
		if len(subscribers) == 0 {
			delete(cm.feeds, feedKey)
		}
	}

	cm.log.Info("Feed subscriber unregistered", "client_id", clientID, "feed", feedKey)
	return nil
}

func (cm *ConnectionManager) BroadcastToFeed(feedKey string, message interface{}) error {
	cm.mutex.RLock()
	var connections []domain.WebSocketConnection
	for _, conn := range cm.feeds[feedKey] {
		connections = append(connections, conn)
	}
	cm.mutex.RUnlock()

	for _, conn := range connections {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send feed message", "client_id", conn.ClientID(),
				"feed", feedKey, "error", err)
			// Continue to other connections
		}
	}

	return nil
}
