package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liorwd/calbot/internal/config"
	apperrors "github.com/liorwd/calbot/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.WhatsApp.AccessToken = "test-token"
	cfg.WhatsApp.PhoneNumberID = "123456"
	cfg.WhatsApp.APIVersion = "v18.0"
	cfg.WhatsApp.RatePerSecond = 100
	cfg.WhatsApp.RateBurst = 100

	c := NewClient(cfg, zap.NewNop())
	c.baseURL = srv.URL
	return c
}

func TestSendText(t *testing.T) {
	var got textPayload
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v18.0/123456/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"messages": [{"id": "wamid.abc"}]}`))
	}))

	err := client.SendText(context.Background(), "972501234567", "Event created")
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "972501234567", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "Event created", got.Text.Body)
}

func TestSendText_APIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "invalid recipient"}}`))
	}))

	err := client.SendText(context.Background(), "bad", "hi")
	require.Error(t, err)
	assert.Equal(t, "MSG_001", apperrors.GetCode(err))
}

func TestSendText_RateLimited(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	err := client.SendText(context.Background(), "972501234567", "hi")
	assert.ErrorIs(t, err, apperrors.ErrMessageRateLimit)
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"messages": [
						{"from": "972501234567", "id": "wamid.1", "timestamp": "1756700000",
						 "type": "text", "text": {"body": "meeting with john tomorrow at 2pm"}},
						{"from": "972501234567", "id": "wamid.2", "timestamp": "1756700001",
						 "type": "image"}
					]
				}
			}]
		}]
	}`)

	messages, err := ParseWebhook(body)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "972501234567", messages[0].From)
	assert.Equal(t, "wamid.1", messages[0].MessageID)
	assert.Equal(t, "meeting with john tomorrow at 2pm", messages[0].Text)
}

func TestParseWebhook_StatusOnly(t *testing.T) {
	body := []byte(`{
		"entry": [{
			"changes": [{
				"value": {"statuses": [{"id": "wamid.1", "status": "delivered"}]}
			}]
		}]
	}`)

	messages, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestParseWebhook_Malformed(t *testing.T) {
	_, err := ParseWebhook([]byte("{broken"))
	assert.Error(t, err)
}
