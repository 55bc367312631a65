package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// Client to Server
	MessageTypePing MessageType = "PING"

	// Server to Client
	MessageTypePong         MessageType = "PONG"
	MessageTypeConnected    MessageType = "CONNECTED"
	MessageTypeSubscribed   MessageType = "SUBSCRIBED"
	MessageTypeUnsubscribed MessageType = "UNSUBSCRIBED"
	MessageTypeCommentAdded MessageType = "COMMENT_ADDED"
	MessageTypeError        MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type ConnectedPayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
