package router_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/models"
	"github.com/noah-isme/led-platform-api/internal/testutil"
)

type wsFrame struct {
	Type          string          `json:"type"`
	ID            uint            `json:"id"`
	Updated       int64           `json:"updated"`
	Count         int64           `json:"count"`
	Message       string          `json:"message"`
	Notifications json.RawMessage `json:"notifications"`
	Notification  json.RawMessage `json:"notification"`
}

// serve runs the harness app on a real listener and returns its address.
func (h *harness) serve(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = h.app.Listener(ln) }()
	return ln.Addr().String()
}

func dialWS(t *testing.T, addr, token string) *websocket.Conn {
	t.Helper()

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws", RawQuery: "token=" + url.QueryEscape(token)}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	h := newHarness(t, nil)
	addr := h.serve(t)

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketSendsUnreadOnConnect(t *testing.T) {
	h := newHarness(t, nil)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	ctx := context.Background()
	require.NoError(t, h.notifications.Notify(ctx, student.ID, models.NotificationTypeInfo, "Bienvenue", "Votre compte est prêt", ""))
	require.NoError(t, h.notifications.Notify(ctx, student.ID, models.NotificationTypeReminder, "Rappel", "Complétez votre profil", "/profile"))

	conn := dialWS(t, h.serve(t), h.token(t, student))

	frame := readFrame(t, conn)
	require.Equal(t, "unread", frame.Type)
	require.EqualValues(t, 2, frame.Count)

	var items []struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(frame.Notifications, &items))
	require.Len(t, items, 2)
}

func TestWebSocketPingAndInvalidFrames(t *testing.T) {
	h := newHarness(t, nil)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	conn := dialWS(t, h.serve(t), h.token(t, student))
	require.Equal(t, "unread", readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.Equal(t, "pong", readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "mark_read"}))
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Type)
	require.Equal(t, "Message invalide", frame.Message)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.Equal(t, "error", readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "mark_read", "id": 999}))
	frame = readFrame(t, conn)
	require.Equal(t, "error", frame.Type)
	require.Equal(t, "Notification introuvable", frame.Message)
}

func TestWebSocketRelaysNewNotifications(t *testing.T) {
	h := newHarness(t, nil)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	other := testutil.CreateUser(t, h.db, "other@led.test", models.RoleStudent)
	addr := h.serve(t)

	conn := dialWS(t, addr, h.token(t, student))
	require.Equal(t, "unread", readFrame(t, conn).Type)
	otherConn := dialWS(t, addr, h.token(t, other))
	require.Equal(t, "unread", readFrame(t, otherConn).Type)

	require.NoError(t, h.notifications.Notify(context.Background(), student.ID, models.NotificationTypeActivityStatus, "Activité validée", "Votre activité a été évaluée", "/activities/1"))

	frame := readFrame(t, conn)
	require.Equal(t, "notification", frame.Type)
	var payload struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	}
	require.NoError(t, json.Unmarshal(frame.Notification, &payload))
	require.Equal(t, "Activité validée", payload.Title)
	require.Equal(t, "/activities/1", payload.Link)

	// The other user's socket stays quiet.
	require.NoError(t, otherConn.WriteJSON(map[string]string{"type": "ping"}))
	require.Equal(t, "pong", readFrame(t, otherConn).Type)
}

func TestWebSocketReadReceiptsReachOtherSockets(t *testing.T) {
	h := newHarness(t, nil)
	student := testutil.CreateUser(t, h.db, "student@led.test", models.RoleStudent)
	ctx := context.Background()
	require.NoError(t, h.notifications.Notify(ctx, student.ID, models.NotificationTypeInfo, "Un", "premier message", ""))
	require.NoError(t, h.notifications.Notify(ctx, student.ID, models.NotificationTypeInfo, "Deux", "second message", ""))

	var ids []uint
	require.NoError(t, h.db.Model(&models.Notification{}).Where("user_id = ?", student.ID).Order("id").Pluck("id", &ids).Error)
	require.Len(t, ids, 2)

	addr := h.serve(t)
	token := h.token(t, student)
	first := dialWS(t, addr, token)
	require.Equal(t, "unread", readFrame(t, first).Type)
	second := dialWS(t, addr, token)
	require.Equal(t, "unread", readFrame(t, second).Type)

	require.NoError(t, first.WriteJSON(map[string]interface{}{"type": "mark_read", "id": ids[0]}))
	ack := readFrame(t, first)
	require.Equal(t, "ack", ack.Type)
	require.Equal(t, ids[0], ack.ID)

	read := readFrame(t, second)
	require.Equal(t, "read", read.Type)
	require.Equal(t, ids[0], read.ID)

	require.NoError(t, first.WriteJSON(map[string]string{"type": "mark_all_read"}))
	ack = readFrame(t, first)
	require.Equal(t, "ack", ack.Type)
	require.EqualValues(t, 1, ack.Updated)

	readAll := readFrame(t, second)
	require.Equal(t, "read_all", readAll.Type)
	require.EqualValues(t, 1, readAll.Updated)

	// Nothing was echoed back to the socket that issued the receipts.
	require.NoError(t, first.WriteJSON(map[string]string{"type": "ping"}))
	require.Equal(t, "pong", readFrame(t, first).Type)
}
