package ws

import "encoding/json"

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgReady        = "ready"
	MsgPong         = "pong"
	MsgNotification = "notification"
	MsgError        = "error"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}
