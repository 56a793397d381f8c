package whatsapp

import "encoding/json"

// InboundMessage is one text message lifted out of a webhook delivery.
type InboundMessage struct {
	From      string // sender phone number, international format
	MessageID string
	Text      string
	Timestamp string
}

// webhookPayload mirrors the Cloud API webhook envelope. Only text
// messages are extracted; status updates and media ride the same
// envelope and are ignored.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseWebhook extracts the text messages from a webhook body. A body
// with no text messages returns an empty slice, not an error.
func ParseWebhook(body []byte) ([]InboundMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	var messages []InboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text.Body == "" {
					continue
				}
				messages = append(messages, InboundMessage{
					From:      msg.From,
					MessageID: msg.ID,
					Text:      msg.Text.Body,
					Timestamp: msg.Timestamp,
				})
			}
		}
	}
	return messages, nil
}
