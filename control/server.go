// Package control exposes a websocket endpoint that lets external tools trigger cloud presets and
// noise regeneration on a running host. Requests are queued and applied on the next frame.
package control

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-clouds/engine/cloud"
	"github.com/gorilla/websocket"
)

// Request commands accepted on the control socket.
const (
	CommandPreset     = "preset"
	CommandRegenerate = "regenerate"
)

// DefaultPath is the HTTP path the control socket is served on.
const DefaultPath = "/control"

// ErrNoQueue is returned by NewServer when no command queue is configured.
var ErrNoQueue = errors.New("control: no command queue configured")

// Request is a single JSON message read from the control socket.
type Request struct {
	Command string `json:"command"`
	Preset  string `json:"preset,omitempty"`
}

// Response is written back for every Request.
type Response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Command string `json:"command,omitempty"`
	Preset  string `json:"preset,omitempty"`
}

// server is the implementation of the Server interface.
type server struct {
	queue   *cloud.CommandQueue
	address string
	path    string

	upgrader websocket.Upgrader

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	conns      map[*websocket.Conn]struct{}
}

// Server serves the control websocket and forwards decoded requests into a cloud.CommandQueue.
type Server interface {
	// Handler returns the HTTP handler that upgrades requests on the configured path.
	//
	// Returns:
	//   - http.Handler: the handler
	Handler() http.Handler

	// Start begins listening on the configured address in a background goroutine.
	//
	// Returns:
	//   - error: an error if the listener cannot be opened or the server is already running
	Start() error

	// Addr returns the address the server is listening on, or "" before Start.
	//
	// Returns:
	//   - string: the listen address
	Addr() string

	// Shutdown closes the listener and every open control connection.
	//
	// Parameters:
	//   - ctx: bounds how long to wait for in-flight HTTP requests
	//
	// Returns:
	//   - error: an error from the HTTP server shutdown
	Shutdown(ctx context.Context) error
}

var _ Server = &server{}

// NewServer creates a control server. A command queue is required.
//
// Parameters:
//   - opts: a variadic list of ServerBuilderOption functions
//
// Returns:
//   - Server: the configured server
//   - error: ErrNoQueue if no queue was provided
func NewServer(opts ...ServerBuilderOption) (Server, error) {
	s := &server{
		address: "127.0.0.1:0",
		path:    DefaultPath,
		conns:   make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.queue == nil {
		return nil, ErrNoQueue
	}
	if !strings.HasPrefix(s.path, "/") {
		s.path = "/" + s.path
	}
	return s, nil
}

func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleSocket)
	return mux
}

func (s *server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return fmt.Errorf("control: server already listening on %s", s.listener.Addr())
	}

	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("control: listen %s: %w", s.address, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := s.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Control] serve error: %v", err)
		}
	}()
	log.Printf("[Control] listening on ws://%s%s", ln.Addr(), s.path)
	return nil
}

func (s *server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	// hijacked connections are not tracked by http.Server
	for _, c := range conns {
		c.Close()
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Control] upgrade error: %v", err)
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Control] read error: %v", err)
			}
			return
		}
		if err := conn.WriteJSON(s.dispatch(req)); err != nil {
			log.Printf("[Control] write error: %v", err)
			return
		}
	}
}

// dispatch validates a request and pushes the matching command onto the queue.
func (s *server) dispatch(req Request) Response {
	cmd, err := ParseRequest(req)
	if err != nil {
		log.Printf("[Control] rejected request: %v", err)
		return Response{OK: false, Error: err.Error(), Command: req.Command}
	}
	s.queue.Push(cmd)

	resp := Response{OK: true, Command: cmd.Kind.String()}
	if cmd.Kind == cloud.CommandApplyPreset {
		resp.Preset = cmd.Preset.String()
	}
	return resp
}

// ParseRequest converts a control request into a cloud command.
//
// Parameters:
//   - req: the decoded request
//
// Returns:
//   - cloud.Command: the command to queue
//   - error: an error for unknown commands or presets
func ParseRequest(req Request) (cloud.Command, error) {
	switch strings.ToLower(strings.TrimSpace(req.Command)) {
	case CommandPreset:
		p, err := cloud.ParsePreset(req.Preset)
		if err != nil {
			return cloud.Command{}, err
		}
		return cloud.PresetCommand(p), nil
	case CommandRegenerate:
		return cloud.RegenerateCommand(), nil
	default:
		return cloud.Command{}, fmt.Errorf("unknown command %q", req.Command)
	}
}
