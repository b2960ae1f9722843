package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.abc123"}]}`))
	}))
	defer server.Close()

	client := NewClient(&Config{
		APIToken:      "test-token",
		PhoneNumberID: "109999999999999",
		APIBaseURL:    server.URL,
	})

	if err := client.SendText(context.Background(), "5511999998888", "Olá!"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	if gotPath != "/109999999999999/messages" {
		t.Errorf("path = %q, want %q", gotPath, "/109999999999999/messages")
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth = %q, want bearer token", gotAuth)
	}
	if gotBody.MessagingProduct != "whatsapp" {
		t.Errorf("messaging_product = %q, want whatsapp", gotBody.MessagingProduct)
	}
	if gotBody.To != "5511999998888" {
		t.Errorf("to = %q, want recipient", gotBody.To)
	}
	if gotBody.Text.Body != "Olá!" {
		t.Errorf("body = %q, want message text", gotBody.Text.Body)
	}
}

func TestSendTextAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	client := NewClient(&Config{
		APIToken:      "bad-token",
		PhoneNumberID: "109999999999999",
		APIBaseURL:    server.URL,
	})

	err := client.SendText(context.Background(), "5511999998888", "Olá!")
	if err == nil {
		t.Fatal("expected error for API rejection")
	}
	if !strings.Contains(err.Error(), "OAuthException") {
		t.Errorf("error should carry the API error type, got %v", err)
	}
}

func TestParseInbound(t *testing.T) {
	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "100000000000000",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"contacts": [{"wa_id": "5511999998888", "profile": {"name": "Ana"}}],
					"messages": [
						{"id": "wamid.text1", "from": "5511999998888", "timestamp": "1717000000", "type": "text", "text": {"body": "Olá"}},
						{"id": "wamid.audio1", "from": "5511999998888", "timestamp": "1717000001", "type": "audio"}
					]
				}
			}]
		}]
	}`)

	messages, err := ParseInbound(body)
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 text message, got %d", len(messages))
	}
	msg := messages[0]
	if msg.From != "5511999998888" {
		t.Errorf("From = %q", msg.From)
	}
	if msg.ProfileName != "Ana" {
		t.Errorf("ProfileName = %q", msg.ProfileName)
	}
	if msg.Text != "Olá" {
		t.Errorf("Text = %q", msg.Text)
	}
	if msg.MessageID != "wamid.text1" {
		t.Errorf("MessageID = %q", msg.MessageID)
	}
}

func TestParseInboundStatusOnly(t *testing.T) {
	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "100000000000000",
			"changes": [{
				"field": "messages",
				"value": {"messaging_product": "whatsapp"}
			}]
		}]
	}`)

	messages, err := ParseInbound(body)
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("status-only delivery should yield no messages, got %d", len(messages))
	}
}

func TestParseInboundRejectsWrongObject(t *testing.T) {
	if _, err := ParseInbound([]byte(`{"object": "page"}`)); err == nil {
		t.Error("expected error for non-whatsapp object")
	}
	if _, err := ParseInbound([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestVerifyWebhook(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		token     string
		challenge string
		wantOK    bool
	}{
		{"valid handshake", "subscribe", "secret", "12345", true},
		{"wrong token", "subscribe", "nope", "12345", false},
		{"wrong mode", "unsubscribe", "secret", "12345", false},
		{"empty token", "subscribe", "", "12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			challenge, ok := VerifyWebhook(tt.mode, tt.token, tt.challenge, "secret")
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK && challenge != tt.challenge {
				t.Errorf("challenge = %q, want %q", challenge, tt.challenge)
			}
		})
	}
}

func TestSimulatorSink(t *testing.T) {
	var gotTo, gotText string
	sim := NewSimulator(func(to, text string) {
		gotTo = to
		gotText = text
	})

	if err := sim.SendText(context.Background(), "5511999998888", "oi"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if gotTo != "5511999998888" || gotText != "oi" {
		t.Errorf("sink got (%q, %q)", gotTo, gotText)
	}
}
