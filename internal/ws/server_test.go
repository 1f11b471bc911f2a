package ws

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-imguiws/internal/assets"
	diag "github.com/coreman2200/funtimes-imguiws/internal/diagnostics"
	"github.com/coreman2200/funtimes-imguiws/internal/frame"
)

func docRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>imgui-ws</h1>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("console.log(1)"), 0644))
	return root
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Options{Root: docRoot(t), Name: "test", FPS: 60})
	require.NoError(t, s.Init())
	h, err := s.Handler()
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	t.Cleanup(func() {
		_ = s.Close()
		ts.Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type envelope struct {
	Type  string             `json:"type"`
	Hello *frame.Hello       `json:"hello"`
	Font  *frame.FontTexture `json:"font"`
	Frame *frame.Frame       `json:"frame"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestStartMissingResourceDoesNotBind(t *testing.T) {
	s := New(Options{Addr: "127.0.0.1:0", Root: filepath.Join(t.TempDir(), "missing"), Name: "test"})

	err := s.Start()

	var missing *assets.MissingResourceError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.False(t, s.Started())
	assert.Empty(t, s.Addr())

	_, err = s.Handler()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestStartServesDocumentRoot(t *testing.T) {
	s := New(Options{Addr: "127.0.0.1:0", Root: docRoot(t), Name: "test"})
	require.NoError(t, s.Start())
	defer s.Close()
	require.True(t, s.Started())

	resp, err := http.Get("http://" + s.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "imgui-ws")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get("http://" + s.Addr() + "/app.js")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "console.log(1)", string(body))
}

func TestCustomDefaultFile(t *testing.T) {
	root := docRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "demo.html"), []byte("demo page"), 0644))
	s := New(Options{Root: root, Index: "demo.html"})
	require.NoError(t, s.Init())
	h, err := s.Handler()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "demo page", rec.Body.String())
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "test", body["name"])
	assert.EqualValues(t, 0, body["clients"])
	assert.EqualValues(t, 60, body["fps"])
}

func TestFrameStream(t *testing.T) {
	s, ts := newTestServer(t)
	require.NoError(t, s.SetFontTexture(frame.FontTexture{ID: 1, Width: 1, Height: 1, Pixels: []byte{1, 2, 3, 4}}))

	conn := dial(t, ts, "/ws")

	hello := readEnvelope(t, conn)
	require.Equal(t, frame.KindHello, hello.Type)
	assert.Equal(t, "test", hello.Hello.Name)

	font := readEnvelope(t, conn)
	require.Equal(t, frame.KindFont, font.Type)
	assert.Equal(t, []byte{1, 2, 3, 4}, font.Font.Pixels)
	assert.Equal(t, 1, s.Clients())

	require.NoError(t, s.Publish(&frame.Frame{ID: 42, Width: 640, Height: 480}))
	got := readEnvelope(t, conn)
	require.Equal(t, frame.KindFrame, got.Type)
	assert.Equal(t, uint64(42), got.Frame.ID)
}

func TestClientInputIsQueued(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts, "/ws")
	readEnvelope(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"mouse_move","x":4,"y":5}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"mouse_down","button":0}`)))

	var got []frame.Event
	assert.Eventually(t, func() bool {
		got = append(got, s.DrainInput()...)
		return len(got) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	require.Len(t, got, 2)
	assert.Equal(t, frame.MouseMove, got[0].Type)
	assert.Equal(t, frame.MouseDown, got[1].Type)
	assert.Empty(t, s.DrainInput())
}

func TestDiagnosticsStream(t *testing.T) {
	s, ts := newTestServer(t)
	dconn := dial(t, ts, "/diag")
	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.diagClients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	dial(t, ts, "/ws")

	var d diag.Diagnostic
	require.NoError(t, dconn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, dconn.ReadJSON(&d))
	assert.Equal(t, diag.ClientConnected, d.Code)
	assert.NotZero(t, d.T)
}

func TestPublishDropsForFullQueue(t *testing.T) {
	s := New(Options{Root: docRoot(t)})
	c := newClient(nil)
	s.clients[c] = true

	for i := 0; i < sendQueueLen+3; i++ {
		require.NoError(t, s.Publish(&frame.Frame{ID: uint64(i)}))
	}

	assert.Equal(t, uint64(sendQueueLen), s.sent)
	assert.Equal(t, uint64(3), s.dropped)
	assert.Equal(t, uint64(sendQueueLen+2), s.frameID)
}

func TestInputQueueIsBounded(t *testing.T) {
	s := New(Options{})
	for i := 0; i < maxInputQueue+10; i++ {
		s.pushInput(frame.Event{Type: frame.Wheel, DY: float32(i)})
	}
	got := s.DrainInput()
	require.Len(t, got, maxInputQueue)
	assert.Equal(t, float32(10), got[0].DY)
}

func TestCloseWithoutStart(t *testing.T) {
	s := New(Options{})
	assert.NoError(t, s.Close())
}
