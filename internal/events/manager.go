package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// Manager keeps the registry of feed subscribers and fans post events out to
// every connected client. Registration runs through channels on a single
// goroutine; broadcasts take the read lock.
type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	maxConnPerUser int
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
}

func NewManager(maxConnPerUser int, writeWait, pongWait, pingPeriod time.Duration) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		maxConnPerUser: maxConnPerUser,
		writeWait:      writeWait,
		pongWait:       pongWait,
		pingPeriod:     pingPeriod,
	}
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	if len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		log.Printf("max feed connections reached for user %s", client.UserID)
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	log.Printf("feed client registered: %s (user: %s)", client.ID, client.UserID)
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.userIndex[client.UserID], client.ID)

		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}

		close(client.Send)
		log.Printf("feed client unregistered: %s", client.ID)
	}
}

// processMessage handles inbound frames. The feed is one-directional apart
// from application-level keepalive. A client rejected at registration or
// already unregistered has a closed Send channel; its frames are dropped
// before anything tries to reply on it.
func (m *Manager) processMessage(clientMsg *ClientMessage) {
	m.clientsMutex.RLock()
	registered := m.clients[clientMsg.Client.ID] == clientMsg.Client
	m.clientsMutex.RUnlock()
	if !registered {
		return
	}

	var event Event
	if err := json.Unmarshal(clientMsg.Message, &event); err != nil {
		log.Printf("error unmarshaling feed message: %v", err)
		return
	}

	if event.Type == TypePing {
		pong, err := NewEvent(TypePong, nil)
		if err != nil {
			return
		}
		pongBytes, _ := json.Marshal(pong)
		select {
		case clientMsg.Client.Send <- pongBytes:
		default:
		}
	}
}

// Publish fans an event out to every connected client. Slow clients with a
// full send buffer get disconnected rather than stalling the broadcast.
func (m *Manager) Publish(eventType EventType, payload interface{}) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		log.Printf("error building feed event: %v", err)
		return
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		log.Printf("error marshaling feed event: %v", err)
		return
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	for clientID, client := range m.clients {
		select {
		case client.Send <- messageBytes:
		default:
			log.Printf("feed client %s send buffer full, dropping connection", clientID)
			go func(c *Client) { m.Unregister <- c }(client)
		}
	}
}

func (m *Manager) ConnectionCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	return len(m.clients)
}
