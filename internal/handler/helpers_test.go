package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/led-platform-api/internal/service"
)

func TestLookupErrorUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("loading activity 7: %w", service.ErrActivityLocked)

	m, ok := lookupError(wrapped)
	require.True(t, ok)
	require.Equal(t, fiber.StatusConflict, m.status)

	_, ok = lookupError(errors.New("disk on fire"))
	require.False(t, ok)
}

func TestErrorMappingsAreUnique(t *testing.T) {
	seen := make(map[error]bool, len(errorMappings))
	for _, m := range errorMappings {
		require.False(t, seen[m.err], "duplicate mapping for %v", m.err)
		seen[m.err] = true
		require.NotEmpty(t, m.message)
		require.GreaterOrEqual(t, m.status, 400)
	}
}

func TestQueryParsers(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		from, err := parseQueryDate(c, "from")
		if err != nil {
			return queryError(c, err)
		}
		scholar, err := parseQueryUint(c, "scholar_id")
		if err != nil {
			return queryError(c, err)
		}
		verified, err := parseQueryBool(c, "verified")
		if err != nil {
			return queryError(c, err)
		}
		return c.JSON(fiber.Map{"from": from, "scholar": scholar, "verified": verified})
	})

	cases := []struct {
		query string
		want  int
		body  string
	}{
		{"", http.StatusOK, `{"from":null,"scholar":null,"verified":null}`},
		{"?from=2024-02-01&scholar_id=3&verified=true", http.StatusOK, `{"from":"2024-02-01T00:00:00Z","scholar":3,"verified":true}`},
		{"?from=2024-02-01T10:30:00Z", http.StatusOK, `{"from":"2024-02-01T10:30:00Z","scholar":null,"verified":null}`},
		{"?from=01/02/2024", http.StatusBadRequest, ""},
		{"?scholar_id=0", http.StatusBadRequest, ""},
		{"?scholar_id=-4", http.StatusBadRequest, ""},
		{"?verified=maybe", http.StatusBadRequest, ""},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tc.query, nil))
			require.NoError(t, err)
			require.Equal(t, tc.want, resp.StatusCode)
			if tc.body != "" {
				raw, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				require.JSONEq(t, tc.body, string(raw))
			}
		})
	}
}

func TestDecodeClientFrame(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		ok      bool
		want    clientFrame
	}{
		{"ping", `{"type":"ping"}`, true, clientFrame{Type: FramePing}},
		{"mark read", `{"type":"mark_read","id":12}`, true, clientFrame{Type: FrameMarkRead, ID: 12}},
		{"mark all read", `{"type":"mark_all_read"}`, true, clientFrame{Type: FrameMarkAllRead}},
		{"mark read without id", `{"type":"mark_read"}`, false, clientFrame{}},
		{"zero id", `{"type":"mark_read","id":0}`, false, clientFrame{}},
		{"string id", `{"type":"mark_read","id":"12"}`, false, clientFrame{}},
		{"fractional id", `{"type":"mark_read","id":12.5}`, false, clientFrame{}},
		{"large id", `{"type":"mark_read","id":2147483647}`, true, clientFrame{Type: FrameMarkRead, ID: 2147483647}},
		{"unknown type", `{"type":"subscribe"}`, false, clientFrame{}},
		{"extra field", `{"type":"ping","channel":"all"}`, false, clientFrame{}},
		{"not json", `ping`, false, clientFrame{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := decodeClientFrame([]byte(tc.payload))
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, frame)
		})
	}
}

func TestWSClientSuppressesOwnReceipts(t *testing.T) {
	c := &wsClient{ownReads: make(map[uint]int)}

	c.expectRead(5)
	require.Nil(t, c.frameFor(service.NotificationEvent{Kind: service.EventRead, ID: 5}))
	require.Equal(t, readFrame{Type: FrameRead, ID: 5}, c.frameFor(service.NotificationEvent{Kind: service.EventRead, ID: 5}))

	c.expectReadAll(1)
	require.Nil(t, c.frameFor(service.NotificationEvent{Kind: service.EventReadAll, Updated: 3}))
	require.Equal(t, readFrame{Type: FrameReadAll, Updated: 3}, c.frameFor(service.NotificationEvent{Kind: service.EventReadAll, Updated: 3}))

	require.Nil(t, c.frameFor(service.NotificationEvent{Kind: service.EventNotification}))
}
