package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHubDeliversEventsLocally(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewHub(nil, nil)
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	id := uuid.New()
	hub.Publish(context.Background(), FeedEvent{
		Type:   EventStatusChanged,
		Report: Report{ID: id, Title: "pit", Status: StatusResolved, Images: []string{}},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event FeedEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, EventStatusChanged, event.Type)
	assert.Equal(t, id, event.Report.ID)
	assert.Equal(t, StatusResolved, event.Report.Status)

	hub.Shutdown()
	<-done
	assert.Zero(t, hub.ClientCount())
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://minewatch.example"})

	req := httptest.NewRequest(http.MethodGet, "/reports/feed", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://minewatch.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker(nil)(req))
}
