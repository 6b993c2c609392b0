// Package stream exposes a running decoder to the outside world: a
// websocket endpoint that pushes snapshot+pixel-buffer frames to
// connected renderers, and Prometheus gauges for its progress. Grounded
// on madpsy-ka9q_ubersdr's websocket.go (Upgrader config, one goroutine
// per connection, CheckOrigin wide open for a same-host renderer) and
// prometheus.go (promauto.NewGaugeVec idiom).
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"sstvreceiver/decoder"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   65536,
	EnableCompression: false,
	CheckOrigin:       func(r *http.Request) bool { return true },
}

// frame is the wire message pushed to every connected client: the
// snapshot fields plus the raw RGBA pixel buffer, base64'd by
// encoding/json's []byte handling.
type frame struct {
	State             string  `json:"state"`
	Mode              string  `json:"mode"`
	CurrentLine       int     `json:"current_line"`
	TotalLines        int     `json:"total_lines"`
	ProgressPercent   float64 `json:"progress_percent"`
	FrequencyHz       int     `json:"frequency_hz"`
	SignalStrengthPct float64 `json:"signal_strength_pct"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	Pixels            []byte  `json:"pixels"`
}

// Server pushes decoder frames to every connected websocket client at a
// fixed tick rate.
type Server struct {
	dec      *decoder.Decoder
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer builds a server that samples dec every interval and fans the
// resulting frame out to all connected clients.
func NewServer(dec *decoder.Decoder, interval time.Duration, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		dec:      dec,
		interval: interval,
		logger:   logger,
		clients:  make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers it as a push target.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("stream: upgrade failed", "err", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("stream: client connected", "remote", r.RemoteAddr)

	// Drain and discard anything the client sends; we only push. Detects
	// disconnects via the resulting read error.
	go func() {
		defer s.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
	s.logger.Info("stream: client disconnected")
}

// Run ticks at s.interval, sampling the decoder and broadcasting a frame
// to every connected client, until stop is closed.
func (s *Server) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.broadcast()
		}
	}
}

func (s *Server) broadcast() {
	snap := s.dec.Snapshot()
	w, h := s.dec.Dimensions()
	f := frame{
		State:             snap.State,
		Mode:              snap.ModeName,
		CurrentLine:       snap.CurrentLine,
		TotalLines:        snap.TotalLines,
		ProgressPercent:   snap.ProgressPercent,
		FrequencyHz:       snap.FrequencyHz,
		SignalStrengthPct: snap.SignalStrengthPct,
		Width:             w,
		Height:            h,
		Pixels:            s.dec.PixelBuffer(),
	}
	payload, err := json.Marshal(f)
	if err != nil {
		s.logger.Warn("stream: marshal failed", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			go s.removeClient(conn)
		}
	}
}
