package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/models"
)

// newSocketPair upgrades a real websocket connection over httptest and hands
// back both ends.
func newSocketPair(t *testing.T) (serverConn, clientConn *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	clientConn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	serverConn = <-conns
	t.Cleanup(func() { serverConn.Close() })
	return serverConn, clientConn
}

func readEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) (models.ServerEvent, error) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	var event models.ServerEvent
	err := conn.ReadJSON(&event)
	return event, err
}

func TestAddPersonalIgnoresEmptyUserID(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil, ConnInfo{ConnID: "c1"})

	hub.AddPersonal("", client)

	require.Empty(t, hub.personal)
}

func TestJoinConversationIsIdempotent(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil, ConnInfo{ConnID: "c1", UserID: "alice"})

	hub.JoinConversation("conv1", client)
	hub.JoinConversation("conv1", client)

	require.Len(t, hub.conversations["conv1"], 1)
	require.True(t, client.subs["conv1"])
}

func TestLeaveConversationRemovesEmptyChannel(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil, ConnInfo{ConnID: "c1", UserID: "alice"})
	hub.JoinConversation("conv1", client)

	hub.LeaveConversation("conv1", client)

	require.NotContains(t, hub.conversations, "conv1")
	require.Empty(t, client.subs)
}

func TestRemoveClientClearsAllMemberships(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil, ConnInfo{ConnID: "c1", UserID: "alice"})
	other := NewClient(nil, ConnInfo{ConnID: "c2", UserID: "bob"})
	hub.AddPersonal("alice", client)
	hub.AddPersonal("bob", other)
	hub.JoinConversation("conv1", client)
	hub.JoinConversation("conv1", other)
	hub.JoinConversation("conv2", client)

	hub.RemoveClient(client)

	require.NotContains(t, hub.personal, "alice")
	require.Contains(t, hub.personal, "bob")
	require.Len(t, hub.conversations["conv1"], 1)
	require.NotContains(t, hub.conversations, "conv2")
}

func TestBroadcastDeliversOncePerConnection(t *testing.T) {
	hub := NewHub()
	serverConn, clientConn := newSocketPair(t)
	client := NewClient(serverConn, ConnInfo{ConnID: "c1", UserID: "alice"})
	hub.JoinConversation("conv1", client)
	hub.JoinConversation("conv1", client)

	hub.BroadcastToConversation("conv1", models.ServerEvent{Type: models.EventReceiveMessage})

	event, err := readEvent(t, clientConn, time.Second)
	require.NoError(t, err)
	require.Equal(t, models.EventReceiveMessage, event.Type)

	_, err = readEvent(t, clientConn, 200*time.Millisecond)
	require.Error(t, err, "a double join must not double deliver")
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	hub := NewHub()
	insideConn, insideClient := newSocketPair(t)
	outsideConn, outsideClient := newSocketPair(t)
	hub.JoinConversation("conv1", NewClient(insideConn, ConnInfo{ConnID: "c1", UserID: "alice"}))
	hub.JoinConversation("conv2", NewClient(outsideConn, ConnInfo{ConnID: "c2", UserID: "bob"}))

	hub.BroadcastToConversation("conv1", models.ServerEvent{Type: models.EventReceiveMessage})

	_, err := readEvent(t, insideClient, time.Second)
	require.NoError(t, err)
	_, err = readEvent(t, outsideClient, 200*time.Millisecond)
	require.Error(t, err)
}

func TestSendToUserReachesEveryDevice(t *testing.T) {
	hub := NewHub()
	phoneConn, phoneClient := newSocketPair(t)
	laptopConn, laptopClient := newSocketPair(t)
	hub.AddPersonal("alice", NewClient(phoneConn, ConnInfo{ConnID: "c1", UserID: "alice"}))
	hub.AddPersonal("alice", NewClient(laptopConn, ConnInfo{ConnID: "c2", UserID: "alice"}))

	hub.SendToUser("alice", models.ServerEvent{Type: models.EventNewNotification})

	for _, conn := range []*websocket.Conn{phoneClient, laptopClient} {
		event, err := readEvent(t, conn, time.Second)
		require.NoError(t, err)
		require.Equal(t, models.EventNewNotification, event.Type)
	}
}

func TestDeliverEvictsDeadConnections(t *testing.T) {
	hub := NewHub()
	serverConn, clientConn := newSocketPair(t)
	client := NewClient(serverConn, ConnInfo{ConnID: "c1", UserID: "alice"})
	hub.AddPersonal("alice", client)
	hub.JoinConversation("conv1", client)

	require.NoError(t, serverConn.Close())
	clientConn.Close()

	hub.SendToUser("alice", models.ServerEvent{Type: models.EventNewNotification})

	require.NotContains(t, hub.personal, "alice")
	require.NotContains(t, hub.conversations, "conv1")
}
