// Package sse provides Server-Sent Events support for real-time grid and
// warehouse activity updates.
package sse

import (
	"encoding/json"
	"sync"

	"warehouse_ops_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const clientBuffer = 64

// Event represents an SSE event payload.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client.
type client struct {
	channel string
	events  chan Event
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.events) })
}

// Service manages SSE connections and fans events out per channel. A channel
// is an opaque key such as a grid session or a warehouse.
type Service struct {
	mu      sync.RWMutex
	clients map[string][]*client
	log     *logger.Logger
}

// New creates a new SSE service.
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[string][]*client),
		log:     log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.channel] = append(s.clients[c.channel], c)
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.channel]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.channel] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(s.clients[c.channel]) == 0 {
		delete(s.clients, c.channel)
	}
	c.close()
}

// Publish sends an event to every client on channel. Slow clients lose
// events rather than blocking the publisher.
func (s *Service) Publish(channel string, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients[channel] {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full", "channel", channel, "event", event.Type)
		}
	}
}

// Subscribers reports how many clients are connected to channel.
func (s *Service) Subscribers(channel string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[channel])
}

// CloseChannel disconnects every client on channel.
func (s *Service) CloseChannel(channel string) {
	s.mu.Lock()
	clients := s.clients[channel]
	delete(s.clients, channel)
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Stream serves channel as an SSE stream until the client goes away or the
// channel is closed.
func (s *Service) Stream(c *gin.Context, channel string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	cl := &client{
		channel: channel,
		events:  make(chan Event, clientBuffer),
	}
	s.addClient(cl)
	defer s.removeClient(cl)

	c.SSEvent("connected", gin.H{"channel": channel})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-cl.events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				s.log.Error("sse encode failed", "channel", channel, "event", event.Type, "error", err)
				continue
			}
			c.SSEvent(event.Type, string(data))
			c.Writer.Flush()
		}
	}
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	all := s.clients
	s.clients = make(map[string][]*client)
	s.mu.Unlock()

	for _, clients := range all {
		for _, c := range clients {
			c.close()
		}
	}
}
