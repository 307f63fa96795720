package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// GatewayClient delivers push/email/SMS messages through an HTTP notification
// gateway. When no gateway URL is configured, deliveries are logged and
// dropped so the consumers keep draining their queues in development.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

type deliveryRequest struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body"`
}

func NewGatewayClient(cfg GatewayConfig) *GatewayClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &GatewayClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (gc *GatewayClient) SendPush(userID, message string) error {
	return gc.deliver(deliveryRequest{Channel: "push", Recipient: userID, Body: message})
}

func (gc *GatewayClient) SendEmail(email, subject, body string) error {
	return gc.deliver(deliveryRequest{Channel: "email", Recipient: email, Subject: subject, Body: body})
}

func (gc *GatewayClient) SendSMS(phone, message string) error {
	return gc.deliver(deliveryRequest{Channel: "sms", Recipient: phone, Body: message})
}

func (gc *GatewayClient) deliver(req deliveryRequest) error {
	if gc.baseURL == "" {
		slog.Info("Notification gateway not configured, logging delivery",
			"channel", req.Channel, "recipient", req.Recipient, "body", req.Body)
		return nil
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery request: %w", err)
	}

	resp, err := gc.httpClient.Post(gc.baseURL+"/deliveries", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification gateway returned status %d", resp.StatusCode)
	}

	return nil
}
