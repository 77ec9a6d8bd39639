package events

import "encoding/json"

// Server to client.
const (
	OnlineUsers  = "getOnlineUsers"
	NewMessage   = "newMessage"
	MessagesRead = "messagesRead"
)

// Client to server.
const (
	UserLogout = "user_logout"
)

// Frame is the envelope of every push channel message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func Encode(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

type MessagesReadPayload struct {
	ReaderID     string `json:"readerId"`
	MessageCount int64  `json:"messageCount"`
}
