package whatsapp

import (
	"encoding/json"
	"fmt"
)

// webhookPayload mirrors the Cloud API webhook envelope.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string       `json:"field"`
			Value webhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookValue struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []struct {
		ID        string `json:"id"`
		From      string `json:"from"`
		Timestamp string `json:"timestamp"`
		Type      string `json:"type"`
		Text      *struct {
			Body string `json:"body"`
		} `json:"text"`
	} `json:"messages"`
}

// InboundMessage is one text message lifted out of a webhook delivery.
type InboundMessage struct {
	MessageID   string
	From        string
	ProfileName string
	Text        string
}

// ParseInbound extracts the text messages from a webhook POST body. Status
// updates and non-text messages are skipped, not errors; a malformed body is.
func ParseInbound(body []byte) ([]InboundMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if payload.Object != "whatsapp_business_account" {
		return nil, fmt.Errorf("unexpected webhook object %q", payload.Object)
	}

	var messages []InboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			name := ""
			if len(change.Value.Contacts) > 0 {
				name = change.Value.Contacts[0].Profile.Name
			}
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil {
					continue
				}
				messages = append(messages, InboundMessage{
					MessageID:   msg.ID,
					From:        msg.From,
					ProfileName: name,
					Text:        msg.Text.Body,
				})
			}
		}
	}
	return messages, nil
}

// VerifyWebhook checks a webhook subscription handshake. It returns the
// challenge to echo back when the mode and token match.
func VerifyWebhook(mode, token, challenge, verifyToken string) (string, bool) {
	if mode == "subscribe" && token != "" && token == verifyToken {
		return challenge, true
	}
	return "", false
}
