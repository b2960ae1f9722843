package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rotinabot/rotina/internal/assistant"
	"github.com/rotinabot/rotina/internal/logging"
	"github.com/rotinabot/rotina/internal/whatsapp"
)

// maxWebhookBody bounds webhook reads; Cloud API deliveries are small.
const maxWebhookBody = 1 << 20

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleWebhookVerify(w, r)
	case http.MethodPost:
		s.handleWebhookDelivery(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleWebhookVerify answers the Cloud API subscription handshake.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, ok := whatsapp.VerifyWebhook(
		q.Get("hub.mode"),
		q.Get("hub.verify_token"),
		q.Get("hub.challenge"),
		s.verifyToken,
	)
	if !ok {
		s.log.Warn("Webhook verification rejected", slog.String("mode", q.Get("hub.mode")))
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}

	s.log.Info("Webhook verified")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// handleWebhookDelivery processes inbound messages. The Cloud API retries on
// non-2xx, so parse failures of individual messages are answered 200 once the
// envelope itself is readable.
func (s *Server) handleWebhookDelivery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	messages, err := whatsapp.ParseInbound(body)
	if err != nil {
		s.log.Warn("Unparseable webhook delivery", slog.Any("error", err))
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	for _, msg := range messages {
		s.processInbound(r, msg)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "received"})
}

func (s *Server) processInbound(r *http.Request, msg whatsapp.InboundMessage) {
	correlationID := uuid.New().String()
	log := logging.WithCorrelationID(correlationID)

	log.Info("Inbound message",
		slog.String("from", msg.From),
		slog.String("message_id", msg.MessageID))

	s.hub.Publish(Event{
		Timestamp: time.Now(),
		Direction: DirectionInbound,
		User:      msg.From,
		Text:      msg.Text,
	})

	resp, err := s.assistant.HandleMessage(r.Context(), msg.From, msg.From, msg.Text)
	if err != nil {
		log.Error("Failed to handle message", slog.Any("error", err))
		return
	}

	if resp.Kind == assistant.KindIgnored {
		log.Info("Message ignored", slog.String("reason", resp.Reason))
		return
	}

	if err := s.messenger.SendText(r.Context(), msg.From, resp.Text); err != nil {
		log.Error("Failed to deliver response", slog.Any("error", err))
	}

	s.hub.Publish(Event{
		Timestamp: time.Now(),
		Direction: DirectionOutbound,
		User:      msg.From,
		Text:      resp.Text,
		Kind:      string(resp.Kind),
		Intent:    string(resp.Intent),
	})
}
