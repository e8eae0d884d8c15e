package hub

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zerolog.Nop())
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func waitConnected(t *testing.T, h *Hub, userID string) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Connected(userID) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestServeWs_EndToEndUnicast(t *testing.T) {
	h := startHub(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(h, w, r, "student-1")
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitConnected(t, h, "student-1")

	h.SendToUser("student-1", []byte(`{"id":"n1"}`))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, body, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.JSONEq(t, `{"id":"n1"}`, string(body))
}

func TestServeWs_UpgradeFailure(t *testing.T) {
	h := startHub(t)
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()

	ServeWs(h, w, req, "student-1")

	// Upgrade fails for normal HTTP request and upgrader writes bad request.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, h.Connected("student-1"))
}

func TestServe_HubStopped(t *testing.T) {
	h := NewHub(zerolog.Nop())
	h.Stop()

	w := httptest.NewRecorder()
	ServeWs(h, w, httptest.NewRequest(http.MethodGet, "/ws", nil), "student-1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	ServeSSE(h, w, httptest.NewRequest(http.MethodGet, "/stream", nil), "student-1", time.Second)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServeSSE_StreamsNotificationFrames(t *testing.T) {
	h := startHub(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(h, w, r, "student-1", time.Minute)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	waitConnected(t, h, "student-1")
	h.SendToUser("student-1", []byte(`{"id":"n1","title":"hello"}`))

	frame, err := stream.NewDecoder(resp.Body).Next()
	require.NoError(t, err)
	assert.Equal(t, stream.EventNotification, frame.Name)
	assert.JSONEq(t, `{"id":"n1","title":"hello"}`, string(frame.Data))

	cancel()
	require.Eventually(t, func() bool { return h.Connected("student-1") == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestServeSSE_Heartbeat(t *testing.T) {
	h := startHub(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(h, w, r, "student-1", 20*time.Millisecond)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": heartbeat\n", line)
}

func TestServeSSE_HubStoppedEndsStream(t *testing.T) {
	h := NewHub(zerolog.Nop())
	go h.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(h, w, r, "student-1", time.Minute)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	waitConnected(t, h, "student-1")
	h.Stop()

	_, err = stream.NewDecoder(resp.Body).Next()
	assert.Error(t, err)
}
