package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoService bounces every text message straight back.
type echoService struct {
	conn *Conn

	mu         sync.Mutex
	cleanedUp  bool
	cleanupErr error
}

func (e *echoService) Name() string        { return "echo" }
func (e *echoService) Register(conn *Conn) { e.conn = conn }
func (e *echoService) Cleanup(err error) {
	e.mu.Lock()
	e.cleanedUp = true
	e.cleanupErr = err
	e.mu.Unlock()
}

func (e *echoService) HandleTextMessage(id, action string, data json.RawMessage) {
	_ = e.conn.WriteJSON(&ServiceMessage{Service: e.Name(), Id: id, Action: action, Data: data})
}

func (e *echoService) cleaned() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleanedUp
}

// sinkService claims the next binary frame and reports its content back as
// a text message, the same handshake the upload service uses.
type sinkService struct {
	conn *Conn
	recv chan []byte
}

func (s *sinkService) Name() string        { return "sink" }
func (s *sinkService) Register(conn *Conn) { s.conn = conn }
func (s *sinkService) Cleanup(error)       {}

func (s *sinkService) HandleTextMessage(id, action string, data json.RawMessage) {
	s.conn.BinaryChan <- s.recv
	frame := <-s.recv
	payload, _ := json.Marshal(string(frame))
	_ = s.conn.WriteJSON(&ServiceMessage{Service: s.Name(), Id: id, Action: action, Data: payload})
}

func dialTestServer(t *testing.T, register func(server *Server)) *ws.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server, err := NewServer(w, r)
		if err != nil {
			return
		}
		register(server)
		_ = server.Start()
	}))
	t.Cleanup(srv.Close)

	client, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	return client
}

func TestRoutesMessagesToService(t *testing.T) {
	client := dialTestServer(t, func(server *Server) {
		server.Register(&echoService{})
	})

	require.NoError(t, client.WriteJSON(&ServiceMessage{
		Service: "echo",
		Id:      "1",
		Action:  "ping",
		Data:    json.RawMessage(`{"n":7}`),
	}))

	var reply ServiceMessage
	require.NoError(t, client.ReadJSON(&reply))
	assert.Equal(t, "echo", reply.Service)
	assert.Equal(t, "1", reply.Id)
	assert.Equal(t, "ping", reply.Action)
	assert.JSONEq(t, `{"n":7}`, string(reply.Data))
}

func TestMessagesForUnknownServicesAreDropped(t *testing.T) {
	client := dialTestServer(t, func(server *Server) {
		server.Register(&echoService{})
	})

	require.NoError(t, client.WriteJSON(&ServiceMessage{Service: "ghost", Action: "boo"}))
	require.NoError(t, client.WriteJSON(&ServiceMessage{Service: "echo", Id: "2", Action: "ping"}))

	// Only the echo message produces a reply; the ghost one vanishes.
	var reply ServiceMessage
	require.NoError(t, client.ReadJSON(&reply))
	assert.Equal(t, "echo", reply.Service)
	assert.Equal(t, "2", reply.Id)
}

func TestBinaryFramesReachTheClaimingService(t *testing.T) {
	client := dialTestServer(t, func(server *Server) {
		server.Register(&sinkService{recv: make(chan []byte)})
	})

	require.NoError(t, client.WriteJSON(&ServiceMessage{Service: "sink", Id: "3", Action: "chunk"}))
	require.NoError(t, client.WriteMessage(ws.BinaryMessage, []byte("frame-bytes")))

	var reply ServiceMessage
	require.NoError(t, client.ReadJSON(&reply))
	assert.Equal(t, "sink", reply.Service)
	var content string
	require.NoError(t, json.Unmarshal(reply.Data, &content))
	assert.Equal(t, "frame-bytes", content)
}

func TestCleanupRunsWhenTheConnectionDies(t *testing.T) {
	echo := &echoService{}
	client := dialTestServer(t, func(server *Server) {
		server.Register(echo)
	})

	require.NoError(t, client.Close())

	assert.Eventually(t, echo.cleaned, 2*time.Second, 10*time.Millisecond)
}
