package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAPIBaseURL = "https://graph.facebook.com/v19.0"

// Messenger delivers outbound text to a channel identity.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
}

// Client is a WhatsApp Business Cloud API client.
type Client struct {
	apiToken      string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
}

// NewClient creates a new Cloud API client.
func NewClient(cfg *Config) *Client {
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &Client{
		apiToken:      cfg.APIToken,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendMessageRequest is the Cloud API /messages payload for a text message.
type sendMessageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	Body string `json:"body"`
}

// sendMessageResponse is the Cloud API /messages response.
type sendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// SendText sends a text message to a phone number.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	req := sendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textPayload{Body: text},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error != nil {
		return fmt.Errorf("whatsapp API error: %s (type: %s, code: %d)",
			result.Error.Message, result.Error.Type, result.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whatsapp API returned status %d", resp.StatusCode)
	}
	if len(result.Messages) == 0 {
		return fmt.Errorf("whatsapp API accepted the request but returned no message ID")
	}

	return nil
}
