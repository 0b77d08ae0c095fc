package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resto-be/internal/auth"
	"resto-be/internal/utils"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudienceKey(t *testing.T) {
	assert.Equal(t, "broadcast", Broadcast().Key())
	assert.Equal(t, "staff", Staff().Key())
	assert.Equal(t, "session:abc", Session("abc").Key())
}

func TestRoomsFor(t *testing.T) {
	assert.Equal(t, []string{"broadcast"}, roomsFor(auth.Actor{}))
	assert.Equal(t, []string{"broadcast", "session:s1"}, roomsFor(auth.Actor{SessionID: "s1"}))
	assert.Equal(t, []string{"broadcast", "staff"}, roomsFor(auth.Actor{UserID: 2, Role: auth.RoleStaff}))
	assert.Equal(t, []string{"broadcast"}, roomsFor(auth.Actor{UserID: 3, Role: auth.RoleCustomer}))
}

// withActor stands in for the auth middleware.
func withActor(next http.HandlerFunc, sessionID, role string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessionID != "" {
			ctx = utils.WithSessionID(ctx, sessionID)
		}
		if role != "" {
			ctx = utils.SetUserContext(ctx, 1, "", role)
		}
		next(w, r.WithContext(ctx))
	})
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, body, err := conn.ReadMessage()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	return got
}

func TestHub_PublishToRooms(t *testing.T) {
	hub := NewHub("")
	ctx := context.Background()

	sessionSrv := httptest.NewServer(withActor(hub.ServeWS, "sess-1", ""))
	defer sessionSrv.Close()
	staffSrv := httptest.NewServer(withActor(hub.ServeWS, "", auth.RoleStaff))
	defer staffSrv.Close()

	customer := dial(t, sessionSrv)
	staff := dial(t, staffSrv)

	require.Eventually(t, func() bool {
		return hub.RoomSize("broadcast") == 2 && hub.RoomSize("staff") == 1 && hub.RoomSize("session:sess-1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(ctx, Message{
		Event:    EventOrderCreated,
		Audience: Session("sess-1"),
		Payload:  map[string]int{"orderId": 7},
	}))
	got := readEnvelope(t, customer)
	assert.Equal(t, "order-created", got["event"])
	assert.Equal(t, float64(7), got["data"].(map[string]any)["orderId"])

	require.NoError(t, hub.Publish(ctx, Message{Event: EventNewNotification, Audience: Staff(), Payload: "hi"}))
	got = readEnvelope(t, staff)
	assert.Equal(t, "newNotification", got["event"])

	require.NoError(t, hub.Publish(ctx, Message{Event: EventTableStatusUpdate, Audience: Broadcast(), Payload: nil}))
	assert.Equal(t, "tableStatusUpdate", readEnvelope(t, customer)["event"])
	assert.Equal(t, "tableStatusUpdate", readEnvelope(t, staff)["event"])
}

func TestHub_LeaveOnDisconnect(t *testing.T) {
	hub := NewHub("")
	srv := httptest.NewServer(withActor(hub.ServeWS, "sess-2", ""))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.RoomSize("session:sess-2") == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.RoomSize("session:sess-2") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub("")
	err := hub.Publish(context.Background(), Message{Event: EventNewOrder, Audience: Broadcast()})
	assert.NoError(t, err)
}

func TestHub_DropsWhenQueueFull(t *testing.T) {
	hub := NewHub("")
	c := &client{send: make(chan []byte, 1), rooms: []string{"staff"}}
	hub.register(c)

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, Message{Event: "a", Audience: Staff()}))
	require.NoError(t, hub.Publish(ctx, Message{Event: "b", Audience: Staff()}))

	assert.Len(t, c.send, 1)
	assert.Contains(t, string(<-c.send), `"a"`)

	hub.unregister(c)
	assert.Equal(t, 0, hub.RoomSize("staff"))
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub("http://localhost:3000")
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "http://evil.test")
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)

	assert.Error(t, err)
	if assert.NotNil(t, resp) {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}
