package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/liorwd/calbot/internal/config"
	apperrors "github.com/liorwd/calbot/internal/errors"
)

const graphBase = "https://graph.facebook.com"

// Client sends messages through the WhatsApp Cloud API. Outbound calls
// are rate limited client-side so a burst of reminders cannot trip the
// platform's throughput cap.
type Client struct {
	accessToken   string
	phoneNumberID string
	apiVersion    string
	baseURL       string
	http          *http.Client
	limiter       *rate.Limiter
	log           *zap.Logger
}

// NewClient builds a client from the WhatsApp section of the config.
func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		accessToken:   cfg.WhatsApp.AccessToken,
		phoneNumberID: cfg.WhatsApp.PhoneNumberID,
		apiVersion:    cfg.WhatsApp.APIVersion,
		baseURL:       graphBase,
		http:          &http.Client{Timeout: 15 * time.Second},
		limiter:       rate.NewLimiter(rate.Limit(cfg.WhatsApp.RatePerSecond), cfg.WhatsApp.RateBurst),
		log:           log,
	}
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// SendText delivers a text message to a phone number in international
// format without the plus sign.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(err, "MSG_002", "rate limit wait aborted")
	}

	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	payload.Text.Body = body

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(err, "MSG_001", "whatsapp api unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("whatsapp send failed",
			zap.String("to", to),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", detail))
		if resp.StatusCode == http.StatusTooManyRequests {
			return apperrors.ErrMessageRateLimit
		}
		return apperrors.Wrap(
			fmt.Errorf("whatsapp api returned %d", resp.StatusCode),
			"MSG_001", "message delivery failed")
	}

	c.log.Debug("whatsapp message sent", zap.String("to", to), zap.Int("length", len(body)))
	return nil
}
