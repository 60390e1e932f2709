package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
)

const (
	// Rate limiting: 최대 메시지 수 (1초당)
	maxMessagesPerSecond = 10

	clientSendBuffer = 256
)

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Client WebSocket 클라이언트
type Client struct {
	Hub           *Hub
	Conn          *Conn
	Actor         model.Actor
	Send          chan []byte
	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

// NewClient 클라이언트 생성
func NewClient(hub *Hub, conn *Conn, actor model.Actor) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		Actor:         actor,
		Send:          make(chan []byte, clientSendBuffer),
		LastResetTime: time.Now(),
	}
}

// Accepts reports whether the event is addressed to this client. Shops see
// their own events and broadcasts, buyers and admins see everything.
func (c *Client) Accepts(event *model.StyleEvent) bool {
	if c.Actor.Role != model.RoleShop {
		return true
	}
	return event.Broadcast() || event.ShopID == c.Actor.ShopID
}

type outgoing struct {
	event *model.StyleEvent
	data  []byte
}

// Hub WebSocket 연결 관리자. 커밋된 스타일 이벤트를 구독자에게 전달한다.
type Hub struct {
	// 등록된 클라이언트들 (Subject -> []*Client - 멀티 디바이스 지원)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan outgoing

	// Run이 끝나면 닫힌다
	done chan struct{}

	mu sync.RWMutex
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan outgoing, 1024),
		done:       make(chan struct{}),
	}
}

// Run Hub 실행. ctx가 끝나면 모든 연결을 닫는다.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for subject, list := range h.clients {
				for _, client := range list {
					close(client.Send)
				}
				delete(h.clients, subject)
			}
			h.mu.Unlock()
			h.drainPending()
			logger.Info("WebSocket hub stopped", nil)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Actor.Subject] = append(h.clients[client.Actor.Subject], client)
			sessions := len(h.clients[client.Actor.Subject])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"subject":        client.Actor.Subject,
				"role":           client.Actor.Role,
				"shop_id":        client.Actor.ShopID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.Actor.Subject]
	if !ok {
		return
	}
	remaining := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return
	}

	if len(remaining) == 0 {
		delete(h.clients, client.Actor.Subject)
	} else {
		h.clients[client.Actor.Subject] = remaining
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"subject":            client.Actor.Subject,
		"remaining_sessions": len(remaining),
	})
}

func (h *Hub) deliver(msg outgoing) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, list := range h.clients {
		for _, client := range list {
			if !client.Accepts(msg.event) {
				continue
			}
			select {
			case client.Send <- msg.data:
			default:
				// Send 채널이 막혀있음 - 비동기로 정리
				go h.Unregister(client)
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"subject": client.Actor.Subject,
				})
			}
		}
	}
}

// Publish 이벤트를 구독 중인 클라이언트에게 전달한다. 버퍼가 가득 차면 버린다.
func (h *Hub) Publish(_ context.Context, event model.StyleEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal style event", err, map[string]interface{}{
			"event_id": event.ID,
		})
		return err
	}

	select {
	case h.broadcast <- outgoing{event: &event, data: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"event_id": event.ID,
			"type":     event.Type,
		})
	}
	return nil
}

// drainPending closes clients whose registration was queued but never handled.
func (h *Hub) drainPending() {
	for {
		select {
		case client := <-h.register:
			close(client.Send)
		default:
			return
		}
	}
}

// Register 클라이언트 등록. 허브가 멈춘 뒤에는 바로 Send를 닫는다.
func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		close(client.Send)
		return
	default:
	}

	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister 클라이언트 등록 해제. 허브가 멈춘 뒤에는 아무것도 하지 않는다.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// SessionCount 현재 연결된 세션 수
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, list := range h.clients {
		total += len(list)
	}
	return total
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	// Rate limiting 체크
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"subject": client.Actor.Subject,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"subject": client.Actor.Subject,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		select {
		case client.Send <- []byte(`{"type":"pong"}`):
		default:
		}
	}
}
