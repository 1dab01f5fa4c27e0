package whatsapp

import "encoding/json"

// InboundMessage is a text message extracted from a webhook delivery.
type InboundMessage struct {
	From      string `json:"from"`
	MessageID string `json:"message_id"`
	Timestamp string `json:"timestamp"`
	Body      string `json:"body"`
}

// VerifyWebhook implements the Meta webhook handshake: subscribe mode plus a
// matching verify token echoes the challenge back.
func (c *Client) VerifyWebhook(mode, token, challenge string) (string, bool) {
	if mode == "subscribe" && token != "" && token == c.verifyToken {
		return challenge, true
	}
	return "", false
}

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

// ExtractMessage walks the nested entry/changes/value/messages structure and
// returns the first text message. Status updates, media messages and
// unrecognized shapes yield no message, not an error.
func ExtractMessage(payload []byte) (*InboundMessage, bool) {
	var parsed webhookPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, false
	}
	for _, entry := range parsed.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text.Body == "" {
					continue
				}
				return &InboundMessage{
					From:      msg.From,
					MessageID: msg.ID,
					Timestamp: msg.Timestamp,
					Body:      msg.Text.Body,
				}, true
			}
		}
	}
	return nil, false
}
