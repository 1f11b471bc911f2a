package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-imguiws/internal/assets"
	diag "github.com/coreman2200/funtimes-imguiws/internal/diagnostics"
	"github.com/coreman2200/funtimes-imguiws/internal/frame"
)

const (
	writeWait      = 200 * time.Millisecond
	sendQueueLen   = 8
	maxInputQueue  = 1024
	maxMessageSize = 4096
)

var ErrNotInitialized = errors.New("ws: server not initialized")

type Options struct {
	Addr    string // listen address, e.g. ":5003"
	Root    string // document root
	Index   string // default file served for "/"
	Name    string
	Version string
	FPS     float64
}

// Server serves the document root over HTTP and streams GUI frames to
// websocket clients. It is owned by the caller; there is no package state.
type Server struct {
	mu   sync.RWMutex
	opts Options

	index       string
	clients     map[*client]bool
	diagClients map[*client]bool
	font        []byte
	input       []frame.Event

	frameID   uint64
	sent      uint64
	dropped   uint64
	startTime time.Time

	upgrader websocket.Upgrader
	srv      *http.Server
	ln       net.Listener
}

func New(opts Options) *Server {
	if opts.Index == "" {
		opts.Index = "index.html"
	}
	return &Server{
		opts:        opts,
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		startTime:   time.Now(),
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Init checks that root/index exists. Nothing is bound if it does not.
func (s *Server) Init() error {
	p, err := assets.ResolveIndex(s.opts.Root, s.opts.Index, s.opts.Name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.index = p
	s.mu.Unlock()
	return nil
}

// Start runs Init, binds the listen address and serves in the background.
func (s *Server) Start() error {
	if err := s.Init(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}

	h, err := s.Handler()
	if err != nil {
		ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:     h,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	s.mu.Lock()
	s.ln = ln
	s.srv = srv
	s.mu.Unlock()

	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("root", s.opts.Root).Msg("HTTP server starting")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server crashed")
		}
	}()
	return nil
}

// Handler returns the route table. Init must have succeeded.
func (s *Server) Handler() (http.Handler, error) {
	s.mu.RLock()
	ready := s.index != ""
	s.mu.RUnlock()
	if !ready {
		return nil, ErrNotInitialized
	}

	r := mux.NewRouter()
	r.Use(withCORS)
	r.HandleFunc("/ws", s.HandleFramesWS)
	r.HandleFunc("/diag", s.HandleDiagWS)
	r.HandleFunc("/health", s.HandleHealth).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(s.staticHandler())
	return r, nil
}

func (s *Server) staticHandler() http.Handler {
	files := http.FileServer(http.Dir(s.opts.Root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.ServeFile(w, r, s.index)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// Addr is the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Started() bool { return s.Addr() != "" }

func (s *Server) Close() error {
	s.Diagnose(diag.Diagnostic{Severity: diag.Info, Code: diag.ServerStopping, Summary: "Server shutting down"})

	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.ln = nil
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
	for c := range s.diagClients {
		delete(s.diagClients, c)
		c.close()
	}
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Close()
}

// SetFontTexture stores the font atlas sent to every client on connect.
func (s *Server) SetFontTexture(t frame.FontTexture) error {
	b, err := frame.EncodeFont(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.font = b
	s.mu.Unlock()
	return nil
}

// Publish sends f to every frame client. Clients whose queue is full skip it.
func (s *Server) Publish(f *frame.Frame) error {
	b, err := frame.EncodeFrame(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameID = f.ID
	for c := range s.clients {
		if c.enqueue(b) {
			s.sent++
		} else {
			s.dropped++
		}
	}
	return nil
}

// DrainInput returns the queued client input in arrival order.
func (s *Server) DrainInput() []frame.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.input
	s.input = nil
	return out
}

func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Diagnose logs d and pushes it to /diag subscribers.
func (s *Server) Diagnose(d diag.Diagnostic) {
	if d.T == 0 {
		d.T = time.Now().UnixNano()
	}
	ev := log.Info()
	switch d.Severity {
	case diag.Warn:
		ev = log.Warn()
	case diag.Err:
		ev = log.Error()
	}
	ev.Str("code", d.Code).Str("detail", d.Detail).Msg(d.Summary)

	b, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.diagClients {
		c.enqueue(b)
	}
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("upgrade /ws")
		return
	}
	conn.SetReadLimit(maxMessageSize)
	c := newClient(conn)

	hello, err := frame.EncodeHello(frame.Hello{Name: s.opts.Name, Version: s.opts.Version, FPS: s.opts.FPS})
	if err == nil {
		c.enqueue(hello)
	}

	s.mu.Lock()
	if s.font != nil {
		c.enqueue(s.font)
	}
	s.clients[c] = true
	n := len(s.clients)
	s.mu.Unlock()

	go c.writeLoop()
	s.Diagnose(diag.Diagnostic{
		Severity: diag.Info, Code: diag.ClientConnected, Summary: "Frame client connected",
		Detail: r.RemoteAddr, Evidence: map[string]any{"clients": n},
	})

	defer func() {
		s.remove(s.clients, c)
		s.Diagnose(diag.Diagnostic{Severity: diag.Info, Code: diag.ClientDisconnected, Summary: "Frame client disconnected", Detail: r.RemoteAddr})
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := frame.DecodeEvent(data)
		if err != nil {
			s.Diagnose(diag.Diagnostic{Severity: diag.Warn, Code: diag.InputRejected, Summary: "Rejected client input", Detail: err.Error()})
			continue
		}
		s.pushInput(ev)
	}
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("upgrade /diag")
		return
	}
	c := newClient(conn)
	s.mu.Lock()
	s.diagClients[c] = true
	s.mu.Unlock()
	go c.writeLoop()

	defer s.remove(s.diagClients, c)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"name":           s.opts.Name,
		"frame_id":       s.frameID,
		"uptime_s":       time.Since(s.startTime).Seconds(),
		"clients":        len(s.clients),
		"fps":            s.opts.FPS,
		"frames_sent":    s.sent,
		"frames_dropped": s.dropped,
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) pushInput(ev frame.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.input) >= maxInputQueue {
		s.input = s.input[1:]
	}
	s.input = append(s.input, ev)
}

func (s *Server) remove(set map[*client]bool, c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set[c] {
		delete(set, c)
		c.close()
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
