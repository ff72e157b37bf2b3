package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"deck-server/internal/store"
)

const (
	// Время на запись одного сообщения клиенту.
	writeWait = 10 * time.Second
	// Время ожидания следующего pong.
	pongWait = 60 * time.Second
	// Период пингов, должен быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Клиент только слушает, входящие сообщения игнорируются.
	maxMessageSize = 512
	sendBuffer     = 256
)

// ErrHubClosed - хаб остановлен.
var ErrHubClosed = errors.New("websocket hub is closed")

// client - одно WebSocket-соединение.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub держит подключения браузеров и рассылает им события.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	upgrader   websocket.Upgrader
	logger     *zap.Logger

	mu    sync.RWMutex
	count int
}

// NewHub создаёт хаб. allowedOrigins пуст - разрешены все источники.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
		logger: logger.Named("hub"),
	}
}

// Run обрабатывает регистрацию клиентов и рассылку до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Hub started")
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case c := <-h.register:
			h.clients[c] = true
			h.setCount(len(h.clients))
			h.logger.Info("Client registered", zap.String("clientID", c.id), zap.Int("clients", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.setCount(len(h.clients))
				h.logger.Info("Client unregistered", zap.String("clientID", c.id))
			}
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Очередь клиента переполнена, отключаем его
					h.logger.Warn("Client send queue full, dropping connection", zap.String("clientID", c.id))
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.setCount(0)
	h.logger.Info("Hub stopped")
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Clients - число подключённых клиентов.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Publish отправляет событие всем клиентам вместе с полной колодой.
func (h *Hub) Publish(ctx context.Context, event store.Event) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	msg, err := encode(event, true)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close останавливает хаб.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

// ServeWS переводит HTTP-запрос в WebSocket и подключает клиента.
// initial, если задан, отправляется клиенту сразу после подключения.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial []byte) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Ответ клиенту уже записан upgrader'ом
		h.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	if len(initial) > 0 {
		c.send <- initial
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	log := h.logger.With(zap.String("clientID", c.id))
	go h.writePump(c, log)
	go h.readPump(c, log)
}

// InitialMessage кодирует текущее состояние для нового клиента.
func InitialMessage(event store.Event) []byte {
	msg, err := encode(event, true)
	if err != nil {
		return nil
	}
	return msg
}

func (h *Hub) readPump(c *client, log *zap.Logger) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
		log.Debug("readPump finished")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		log.Debug("writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Одно событие - одно сообщение, клиент разбирает JSON целиком
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("Failed to write message", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
