package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rotinabot/rotina/internal/assistant"
	"github.com/rotinabot/rotina/internal/msglog"
	"github.com/rotinabot/rotina/internal/store"
)

// recordingMessenger captures outbound sends for assertions.
type recordingMessenger struct {
	mu   sync.Mutex
	sent []string
	to   []string
	fail bool
}

func (m *recordingMessenger) SendText(_ context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("send failed")
	}
	m.to = append(m.to, to)
	m.sent = append(m.sent, text)
	return nil
}

func (m *recordingMessenger) lastSent() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return "", ""
	}
	return m.to[len(m.to)-1], m.sent[len(m.sent)-1]
}

func newTestServer(t *testing.T) (*Server, *recordingMessenger, *store.Store) {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	deliveries, err := msglog.NewFromPath(":memory:")
	if err != nil {
		t.Fatalf("failed to create delivery log: %v", err)
	}
	t.Cleanup(func() { _ = deliveries.Close() })

	messenger := &recordingMessenger{}
	server := NewServer(&Config{Host: "127.0.0.1", Port: 0},
		assistant.New(st), messenger, deliveries, "secret")
	return server, messenger, st
}

func webhookBody(from, text string) string {
	payload := map[string]any{
		"object": "whatsapp_business_account",
		"entry": []map[string]any{{
			"id": "100000000000000",
			"changes": []map[string]any{{
				"field": "messages",
				"value": map[string]any{
					"messaging_product": "whatsapp",
					"contacts": []map[string]any{
						{"wa_id": from, "profile": map[string]any{"name": "Ana"}},
					},
					"messages": []map[string]any{{
						"id":        "wamid.test",
						"from":      from,
						"timestamp": "1717000000",
						"type":      "text",
						"text":      map[string]any{"body": text},
					}},
				},
			}},
		}},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestWebhookVerification(t *testing.T) {
	server, _, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	t.Run("valid handshake echoes challenge", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=12345")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if string(body) != "12345" {
			t.Errorf("challenge = %q, want %q", body, "12345")
		}
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})
}

func TestWebhookDeliveryNewUser(t *testing.T) {
	server, messenger, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/webhook", "application/json",
		strings.NewReader(webhookBody("5511999998888", "Olá")))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	to, text := messenger.lastSent()
	if to != "5511999998888" {
		t.Errorf("response sent to %q", to)
	}
	if !strings.Contains(text, "Responda 'Sim'") {
		t.Errorf("expected consent prompt, got %q", text)
	}
}

func TestWebhookDeliveryMalformed(t *testing.T) {
	server, _, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWebhookDeliveryNonTextIgnored(t *testing.T) {
	server, messenger, st := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "100000000000000",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"messages": [{"id": "wamid.audio", "from": "5511999998888", "timestamp": "1717000000", "type": "audio"}]
				}
			}]
		}]
	}`
	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if _, text := messenger.lastSent(); text != "" {
		t.Errorf("non-text delivery must not produce a response, got %q", text)
	}
	if _, err := st.GetUserByChannelID("5511999998888"); err == nil {
		t.Error("non-text delivery must not register a user")
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestDeliveriesEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)
	if _, err := server.deliveries.Append("5511999998888", "oi", msglog.StatusSimulated, ""); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/deliveries?limit=10")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Deliveries []struct {
			Recipient string `json:"recipient"`
			Status    string `json:"status"`
		} `json:"deliveries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(body.Deliveries))
	}
	if body.Deliveries[0].Status != msglog.StatusSimulated {
		t.Errorf("status = %q", body.Deliveries[0].Status)
	}
}

func TestDeliveriesEndpointBadLimit(t *testing.T) {
	server, _, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/deliveries?limit=abc")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConsoleWebSocketStream(t *testing.T) {
	server, _, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// Give the subscriber time to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		server.hub.mu.Lock()
		n := len(server.hub.subs)
		server.hub.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	server.hub.Publish(Event{
		Timestamp: time.Now(),
		Direction: DirectionInbound,
		User:      "5511999998888",
		Text:      "Olá",
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if event.Direction != DirectionInbound || event.Text != "Olá" {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestHubDropsSlowSubscribers(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()

	// Fill the buffer past capacity; Publish must never block.
	for i := 0; i < 200; i++ {
		hub.Publish(Event{Text: "x"})
	}

	if len(ch) != cap(ch) {
		t.Errorf("expected full buffer, got %d of %d", len(ch), cap(ch))
	}

	hub.Unsubscribe(ch)
	// Unsubscribing twice must not panic.
	hub.Unsubscribe(ch)
}
