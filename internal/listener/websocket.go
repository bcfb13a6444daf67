package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxFrameSize   = 64 * 1024
	shutdownPeriod = 5 * time.Second
)

// WebsocketListener serves player connections over websockets. A client connects
// to /<path>?player=<name> and exchanges JSON envelopes.
type WebsocketListener struct {
	port uint16
	path string
	cm   *ConnectionManager

	upgrader websocket.Upgrader

	mu   sync.Mutex
	addr net.Addr
}

func NewWebsocketListener(port uint16, path string, cm *ConnectionManager) *WebsocketListener {
	return &WebsocketListener{
		port: port,
		path: "/" + path,
		cm:   cm,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (l *WebsocketListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	l.mu.Lock()
	l.addr = ln.Addr()
	l.mu.Unlock()

	// Create a cancelable context for all connections
	connCtx, cancelConns := context.WithCancel(context.Background())
	defer cancelConns()

	var wg sync.WaitGroup
	mux := http.NewServeMux()
	mux.Handle(l.path, l.handler(connCtx, &wg))
	svr := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// done signals that Start is returning (either success or failure)
	done := make(chan struct{})
	defer close(done)

	// When parent context is canceled, stop accepting and cancel all connections
	go func() {
		select {
		case <-ctx.Done():
			cancelConns()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
			defer cancel()
			if err := svr.Shutdown(shutdownCtx); err != nil {
				slog.Warn("shutting down websocket listener", "error", err)
			}
		case <-done:
		}
	}()

	slog.InfoContext(ctx, "websocket listener started", "addr", ln.Addr(), "path", l.path)

	err = svr.Serve(ln)
	wg.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving websocket on port %d: %w", l.port, err)
	}
	return nil
}

// Addr returns the bound address once Start is listening, or nil.
func (l *WebsocketListener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

// handler upgrades requests and runs a session per connection. Sessions use
// connCtx rather than the request context since hijacked requests outlive it.
func (l *WebsocketListener) handler(connCtx context.Context, wg *sync.WaitGroup) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("player")
		if name == "" {
			http.Error(w, "player is required", http.StatusBadRequest)
			return
		}

		ws, err := l.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the error response
			slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		ws.SetReadLimit(maxFrameSize)

		wg.Add(1)
		defer wg.Done()

		conn := &wsConn{ws: ws}
		stop := context.AfterFunc(connCtx, func() { _ = conn.Close() })
		defer stop()
		defer func() {
			if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				slog.Debug("closing websocket", "remote", r.RemoteAddr, "error", err)
			}
		}()

		l.cm.AcceptConnection(connCtx, name, conn)
	})
}

// wsConn adapts a websocket to player.Conn. Only one goroutine reads and one writes.
type wsConn struct {
	ws *websocket.Conn

	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *wsConn) WriteFrame(data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
