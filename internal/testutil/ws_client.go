package testutil

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dom/watchnest/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// DialWS opens a connection and returns the handshake response on failure
func DialWS(url string) (*gorillaWS.Conn, *http.Response, error) {
	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second
	return dialer.Dial(url, nil)
}

// NewWSClient connects and starts reading in the background
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	conn, _, err := DialWS(url)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(client.Close)

	return client
}

func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			default:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// Send writes a client message
func (c *WSClient) Send(msgType websocket.MessageType, payload any) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send message: %v", err)
	}
}

// ExpectMessage waits for a message of the specified type, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectPayload waits for msgType and decodes its payload into v
func (c *WSClient) ExpectPayload(msgType websocket.MessageType, timeout time.Duration, v any) {
	c.t.Helper()

	msg := c.ExpectMessage(msgType, timeout)
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msgType, err)
	}
}

// ExpectNoMessage verifies no messages are received within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message received: %s", msg.Type)
		}
	case <-time.After(timeout):
	}
}
