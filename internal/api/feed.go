package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/showaudit/internal/audit"
	"github.com/wonny/showaudit/pkg/logger"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedBuffer       = 4
)

// Feed pushes every finished audit report to its websocket subscribers
type Feed struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan *audit.Report
}

// NewFeed creates an empty feed
func NewFeed(log *logger.Logger) *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger:  log,
		clients: make(map[*websocket.Conn]chan *audit.Report),
	}
}

// ServeHTTP upgrades the request and streams reports until the client leaves
// GET /api/audit/feed
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.WithError(err).Warn("Feed upgrade failed")
		return
	}

	ch := make(chan *audit.Report, feedBuffer)
	f.mu.Lock()
	f.clients[conn] = ch
	f.mu.Unlock()

	f.logger.WithField("remote", r.RemoteAddr).Debug("Feed subscriber connected")

	// the read loop only notices the client going away
	go func() {
		defer f.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for report := range ch {
		conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		if err := conn.WriteJSON(report); err != nil {
			f.remove(conn)
			break
		}
	}
	conn.Close()
}

// Publish hands a report to every subscriber; slow subscribers miss it
func (f *Feed) Publish(report *audit.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for conn, ch := range f.clients {
		select {
		case ch <- report:
		default:
			f.logger.WithField("remote", conn.RemoteAddr().String()).Warn("Feed subscriber too slow, dropping report")
		}
	}
}

// Subscribers returns the number of connected clients
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close disconnects every subscriber
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for conn, ch := range f.clients {
		close(ch)
		delete(f.clients, conn)
	}
}

func (f *Feed) remove(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ch, ok := f.clients[conn]; ok {
		close(ch)
		delete(f.clients, conn)
	}
}
