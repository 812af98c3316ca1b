package handler

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/noah-isme/led-platform-api/internal/dto"
	"github.com/noah-isme/led-platform-api/internal/middleware"
	"github.com/noah-isme/led-platform-api/internal/observability"
	"github.com/noah-isme/led-platform-api/internal/service"
)

const (
	wsSendBuffer     = 32
	wsUnreadLimit    = 50
	wsReadLimitBytes = 4096
	wsPongWait       = 60 * time.Second
	wsPingInterval   = 30 * time.Second
	wsWriteWait      = 10 * time.Second
	wsFrameRate      = 5
	wsFrameBurst     = 10
	wsRequestCtxKey  = "request_ctx"
)

// Frame types exchanged on the notification socket.
const (
	FramePing         = "ping"
	FramePong         = "pong"
	FrameMarkRead     = "mark_read"
	FrameMarkAllRead  = "mark_all_read"
	FrameAck          = "ack"
	FrameUnread       = "unread"
	FrameNotification = "notification"
	FrameRead         = "read"
	FrameReadAll      = "read_all"
	FrameError        = "error"
)

//go:embed schemas/ws_client_frame.schema.json
var clientFrameSchemaJSON string

var clientFrameSchema = jsonschema.MustCompileString("ws_client_frame.schema.json", clientFrameSchemaJSON)

type clientFrame struct {
	Type string `json:"type"`
	ID   uint   `json:"id"`
}

type unreadFrame struct {
	Type          string                     `json:"type"`
	Notifications []dto.NotificationResponse `json:"notifications"`
	Count         int64                      `json:"count"`
}

type notificationFrame struct {
	Type         string                    `json:"type"`
	Notification *dto.NotificationResponse `json:"notification"`
}

type ackFrame struct {
	Type    string `json:"type"`
	ID      uint   `json:"id,omitempty"`
	Updated *int64 `json:"updated,omitempty"`
}

type readFrame struct {
	Type    string `json:"type"`
	ID      uint   `json:"id,omitempty"`
	Updated int64  `json:"updated,omitempty"`
}

type simpleFrame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// WSHandler relays notifications to connected browsers and accepts read receipts.
type WSHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewWSHandler constructs the websocket relay.
func NewWSHandler(svc service.NotificationService, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: svc,
		logger:  logger.With().Str("component", "ws_handler").Logger(),
	}
}

// Register mounts the upgrade endpoint. The group must already authenticate the caller.
func (h *WSHandler) Register(router fiber.Router) {
	router.Use(func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals(wsRequestCtxKey, requestContext(c))
		return c.Next()
	})
	router.Get("/", websocket.New(h.serve))
}

// wsClient is one live socket. Only the writer goroutine writes to conn.
type wsClient struct {
	conn    *websocket.Conn
	userID  uint
	send    chan interface{}
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu       sync.Mutex
	ownReads map[uint]int
	ownAll   int
}

func (h *WSHandler) serve(conn *websocket.Conn) {
	userID, _ := conn.Locals(middleware.LocalUserID).(uint)
	if userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentification requise"))
		_ = conn.Close()
		return
	}

	base, _ := conn.Locals(wsRequestCtxKey).(context.Context)
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	defer cancel()

	client := &wsClient{
		conn:     conn,
		userID:   userID,
		send:     make(chan interface{}, wsSendBuffer),
		limiter:  rate.NewLimiter(rate.Limit(wsFrameRate), wsFrameBurst),
		logger:   h.logger.With().Uint("user_id", userID).Logger(),
		ownReads: make(map[uint]int),
	}

	events, unsubscribe := h.service.Subscribe(userID)
	defer unsubscribe()

	items, count, err := h.service.Unread(ctx, userID, wsUnreadLimit)
	if err != nil {
		client.logger.Error().Err(err).Msg("failed to load unread notifications")
		items = []dto.NotificationResponse{}
	}
	client.enqueue(unreadFrame{Type: FrameUnread, Notifications: items, Count: count})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.writeLoop(events, done)
	}()

	client.logger.Info().Msg("notification socket connected")
	h.readLoop(ctx, client)
	close(done)
	wg.Wait()
	client.logger.Info().Msg("notification socket disconnected")
}

func (h *WSHandler) readLoop(ctx context.Context, client *wsClient) {
	conn := client.conn
	conn.SetReadLimit(wsReadLimitBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.logger.Debug().Err(err).Msg("notification socket closed unexpectedly")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		if !client.limiter.Allow() {
			client.enqueue(simpleFrame{Type: FrameError, Message: "Trop de messages, ralentissez"})
			continue
		}

		frame, err := decodeClientFrame(payload)
		if err != nil {
			client.enqueue(simpleFrame{Type: FrameError, Message: "Message invalide"})
			continue
		}
		h.handleFrame(ctx, client, frame)
	}
}

func (h *WSHandler) handleFrame(ctx context.Context, client *wsClient, frame clientFrame) {
	switch frame.Type {
	case FramePing:
		client.enqueue(simpleFrame{Type: FramePong})
	case FrameMarkRead:
		client.expectRead(frame.ID)
		if _, err := h.service.MarkRead(ctx, client.userID, frame.ID); err != nil {
			client.forgetRead(frame.ID)
			client.enqueue(simpleFrame{Type: FrameError, Message: frameErrorMessage(err, client.logger)})
			return
		}
		client.enqueue(ackFrame{Type: FrameAck, ID: frame.ID})
	case FrameMarkAllRead:
		client.expectReadAll(1)
		updated, err := h.service.MarkAllRead(ctx, client.userID)
		if err != nil || updated == 0 {
			client.expectReadAll(-1)
		}
		if err != nil {
			client.enqueue(simpleFrame{Type: FrameError, Message: frameErrorMessage(err, client.logger)})
			return
		}
		client.enqueue(ackFrame{Type: FrameAck, Updated: &updated})
	}
}

// decodeClientFrame validates the raw payload against the client frame schema.
func decodeClientFrame(payload []byte) (clientFrame, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return clientFrame{}, err
	}
	if err := clientFrameSchema.Validate(doc); err != nil {
		return clientFrame{}, err
	}
	var frame clientFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return clientFrame{}, err
	}
	return frame, nil
}

func frameErrorMessage(err error, logger zerolog.Logger) string {
	if m, ok := lookupError(err); ok {
		return m.message
	}
	logger.Error().Err(err).Msg("websocket command failed")
	return msgInternal
}

// enqueue never blocks: a slow consumer loses the frame.
func (c *wsClient) enqueue(frame interface{}) {
	select {
	case c.send <- frame:
	default:
		observability.WSDroppedFrames().Inc()
		c.logger.Warn().Msg("websocket send queue full, frame dropped")
	}
}

func (c *wsClient) writeLoop(events <-chan service.NotificationEvent, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case frame := <-c.send:
			if err := c.write(frame); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			frame := c.frameFor(event)
			if frame == nil {
				continue
			}
			if err := c.write(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) write(frame interface{}) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := c.conn.WriteJSON(frame); err != nil {
		c.logger.Debug().Err(err).Msg("websocket write failed")
		return err
	}
	return nil
}

// frameFor converts a broker event. Read receipts caused by this socket are acknowledged
// directly and not echoed back.
func (c *wsClient) frameFor(event service.NotificationEvent) interface{} {
	switch event.Kind {
	case service.EventNotification:
		if event.Notification == nil {
			return nil
		}
		return notificationFrame{Type: FrameNotification, Notification: event.Notification}
	case service.EventRead:
		if c.consumeRead(event.ID) {
			return nil
		}
		return readFrame{Type: FrameRead, ID: event.ID}
	case service.EventReadAll:
		if c.consumeReadAll() {
			return nil
		}
		return readFrame{Type: FrameReadAll, Updated: event.Updated}
	default:
		return nil
	}
}

func (c *wsClient) expectRead(id uint) {
	c.mu.Lock()
	c.ownReads[id]++
	c.mu.Unlock()
}

func (c *wsClient) forgetRead(id uint) {
	c.mu.Lock()
	c.forgetReadLocked(id)
	c.mu.Unlock()
}

func (c *wsClient) consumeRead(id uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ownReads[id] == 0 {
		return false
	}
	c.forgetReadLocked(id)
	return true
}

func (c *wsClient) forgetReadLocked(id uint) {
	if c.ownReads[id] <= 1 {
		delete(c.ownReads, id)
		return
	}
	c.ownReads[id]--
}

func (c *wsClient) expectReadAll(delta int) {
	c.mu.Lock()
	c.ownAll += delta
	c.mu.Unlock()
}

func (c *wsClient) consumeReadAll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ownAll == 0 {
		return false
	}
	c.ownAll--
	return true
}
