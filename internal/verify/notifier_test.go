package verify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyVerified_DeliversEvent(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan verifiedEvent, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var ev verifiedEvent
		require.NoError(t, conn.ReadJSON(&ev))
		received <- ev
	}))
	defer srv.Close()

	n := NewNotifier("ws" + strings.TrimPrefix(srv.URL, "http"))
	n.NotifyVerified("user@example.com")

	select {
	case ev := <-received:
		assert.Equal(t, "user@example.com", ev.Email)
		assert.True(t, ev.Verified)
	case <-time.After(3 * time.Second):
		t.Fatal("no event arrived")
	}
}

func TestNotifyVerified_NilAndUnconfiguredAreNoops(t *testing.T) {
	var n *Notifier
	n.NotifyVerified("user@example.com")

	NewNotifier("").NotifyVerified("user@example.com")
}

func TestNotifyVerified_DoesNotBlockOnDeadBridge(t *testing.T) {
	n := NewNotifier("ws://127.0.0.1:1/ws")

	done := make(chan struct{})
	go func() {
		n.NotifyVerified("user@example.com")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notify blocked the caller")
	}
}
