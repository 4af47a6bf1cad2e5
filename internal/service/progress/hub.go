package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/gorilla/websocket"
)

const hubComponent = "progress.hub"

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingEvery      = (wsPongWait * 9) / 10
	wsMaxInboundSize = 512

	// clientSendBuffer 느린 클라이언트에 쌓아둘 수 있는 최대 메시지 수입니다. 초과분은 버립니다.
	clientSendBuffer = 32
)

// envelope WebSocket으로 전송되는 메시지 형식입니다.
type envelope struct {
	Type string                 `json:"type"`
	Data contract.ProgressEvent `json:"data"`
}

// Hub 진행률 이벤트를 연결된 모든 WebSocket 클라이언트에 브로드캐스트하는 Sink입니다.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	closed  bool

	// writersWG 클라이언트별 쓰기 고루틴을 추적합니다.
	writersWG sync.WaitGroup
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func (c *hubClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// NewHub 새로운 Hub를 생성합니다. checkOrigin이 nil이면 모든 Origin을 허용합니다.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// AllowOrigins Origin 헤더가 목록에 있는 요청만 허용하는 CheckOrigin 함수를 반환합니다.
//
// 목록에 "*"가 있으면 nil을 반환하여 모든 Origin을 허용합니다. Origin 헤더가 없는 요청(브라우저 외 클라이언트)은 허용합니다.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
}

// Deliver 이벤트를 직렬화하여 모든 클라이언트의 송신 버퍼에 넣습니다.
func (h *Hub) Deliver(ev contract.ProgressEvent) error {
	msg, err := json.Marshal(envelope{Type: contract.ProgressEventName, Data: ev})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			applog.WithComponentAndFields(hubComponent, applog.Fields{
				"remote_addr": c.conn.RemoteAddr().String(),
				"node_id":     ev.NodeID,
			}).Debug("느린 WebSocket 클라이언트: 진행률 이벤트를 버립니다")
		}
	}

	return nil
}

// ClientCount 현재 연결된 클라이언트 수를 반환합니다.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP 요청을 WebSocket으로 업그레이드하고 연결이 끊어질 때까지 블로킹합니다.
//
// 클라이언트가 보내는 메시지는 읽고 버리며, Pong 응답으로 연결 생존 여부만 확인합니다.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.WithComponentAndFields(hubComponent, applog.Fields{
			"remote_addr": r.RemoteAddr,
			"error":       err,
		}).Warn("WebSocket 업그레이드 실패")
		return
	}

	c := &hubClient{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
		done: make(chan struct{}),
	}

	if err := h.register(c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(wsWriteWait))
		_ = conn.Close()
		return
	}

	applog.WithComponentAndFields(hubComponent, applog.Fields{
		"remote_addr": conn.RemoteAddr().String(),
		"clients":     h.ClientCount(),
	}).Info("WebSocket 클라이언트 연결")

	go h.writeLoop(c)

	h.readLoop(c)

	h.unregister(c)
	c.close()

	applog.WithComponentAndFields(hubComponent, applog.Fields{
		"remote_addr": conn.RemoteAddr().String(),
	}).Info("WebSocket 클라이언트 연결 종료")
}

func (h *Hub) register(c *hubClient) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	h.clients[c] = struct{}{}
	h.writersWG.Add(1)

	return nil
}

func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) readLoop(c *hubClient) {
	c.conn.SetReadLimit(wsMaxInboundSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop 클라이언트의 유일한 쓰기 고루틴입니다. 종료 시 연결을 닫아 readLoop도 함께 끝나게 합니다.
func (h *Hub) writeLoop(c *hubClient) {
	defer h.writersWG.Done()
	defer c.conn.Close()

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return

		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close 모든 클라이언트 연결을 닫고 쓰기 고루틴이 끝날 때까지 기다립니다. 여러 번 호출해도 안전합니다.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for c := range h.clients {
		c.close()
	}
	h.mu.Unlock()

	h.writersWG.Wait()
}

// Start serviceStopCtx가 취소되면 Hub를 닫습니다.
func (h *Hub) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		h.Close()

		applog.WithComponent(hubComponent).Info("진행률 WebSocket Hub 종료 완료")
	}()

	return nil
}
