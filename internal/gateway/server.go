// Package gateway exposes the HTTP surface of the assistant: the WhatsApp
// webhook, a health endpoint, a delivery-log API, and a WebSocket stream for
// the dev console.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rotinabot/rotina/internal/assistant"
	"github.com/rotinabot/rotina/internal/logging"
	"github.com/rotinabot/rotina/internal/msglog"
	"github.com/rotinabot/rotina/internal/whatsapp"
)

// Config holds gateway server configuration.
type Config struct {
	// Host is the network interface to bind to (e.g., "127.0.0.1" or "0.0.0.0").
	Host string `yaml:"host"`
	// Port is the TCP port number to listen on.
	Port int `yaml:"port"`
}

// Server handles webhook deliveries from the WhatsApp Cloud API and serves
// the dev console stream. Safe for concurrent use.
type Server struct {
	config      *Config
	assistant   *assistant.Assistant
	messenger   whatsapp.Messenger
	deliveries  *msglog.Store
	verifyToken string
	hub         *Hub
	upgrader    websocket.Upgrader
	server      *http.Server
	log         *slog.Logger
	mu          sync.Mutex
	running     bool
}

// NewServer creates a gateway. The server is not started until Start is
// called. deliveries may be nil, which disables the delivery-log API.
func NewServer(config *Config, a *assistant.Assistant, messenger whatsapp.Messenger, deliveries *msglog.Store, verifyToken string) *Server {
	return &Server{
		config:      config,
		assistant:   a,
		messenger:   messenger,
		deliveries:  deliveries,
		verifyToken: verifyToken,
		hub:         NewHub(),
		log:         logging.WithComponent("gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return strings.HasPrefix(origin, "http://localhost") ||
					strings.HasPrefix(origin, "http://127.0.0.1") ||
					strings.HasPrefix(origin, "https://localhost") ||
					strings.HasPrefix(origin, "https://127.0.0.1")
			},
		},
	}
}

// Hub returns the event hub so other components (digest dispatcher, simulator
// sink) can publish to connected consoles.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleConsoleWebSocket)
	mux.HandleFunc("/api/v1/deliveries", s.handleDeliveries)
	return mux
}

// Start starts the gateway and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("Gateway starting", slog.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server, waiting up to 30 seconds for active
// connections.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.running = false
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleDeliveries returns the most recent outbound deliveries.
func (s *Server) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deliveries == nil {
		http.Error(w, "delivery log not configured", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.deliveries.Recent(limit)
	if err != nil {
		s.log.Error("Failed to query deliveries", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	type deliveryResponse struct {
		ID        string    `json:"id"`
		Recipient string    `json:"recipient"`
		Body      string    `json:"body"`
		Status    string    `json:"status"`
		Error     string    `json:"error,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]deliveryResponse, 0, len(records))
	for _, record := range records {
		out = append(out, deliveryResponse{
			ID:        record.ID,
			Recipient: record.Recipient,
			Body:      record.Body,
			Status:    record.Status,
			Error:     record.Error,
			CreatedAt: record.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"deliveries": out})
}
