package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const gatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway opcodes used by the client.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opHello          = 10
	opHeartbeatAck   = 11
	opInvalidSession = 9
)

// intents: guilds, guild members, guild messages, message content.
const gatewayIntents = 1 | (1 << 1) | (1 << 9) | (1 << 15)

// IncomingMessage is a chat message dispatched from the gateway.
type IncomingMessage struct {
	ChannelID string
	AuthorID  int64
	Content   string
}

// MessageHandler is called for every non-bot MESSAGE_CREATE. The return
// value, if non-empty, is sent back to the originating channel.
type MessageHandler func(msg IncomingMessage) string

type gatewayPayload struct {
	Op   int             `json:"op"`
	Data json.RawMessage `json:"d"`
	Seq  *int64          `json:"s"`
	Type string          `json:"t"`
}

type messageCreate struct {
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Author    struct {
		ID  string `json:"id"`
		Bot bool   `json:"bot"`
	} `json:"author"`
}

// Gateway maintains the websocket connection to Discord and dispatches
// message events to a handler. Reconnects with bounded backoff.
type Gateway struct {
	session *Session
	handler MessageHandler

	mu  sync.Mutex
	seq int64
}

// NewGateway builds a gateway client sharing the REST session's token.
func NewGateway(s *Session, handler MessageHandler) *Gateway {
	return &Gateway{session: s, handler: handler}
}

// Run connects and processes events until ctx is cancelled. Connection
// failures reconnect with exponential backoff capped at 30 seconds.
func (g *Gateway) Run(ctx context.Context) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] gateway stopped")
			return
		default:
		}

		if err := g.connectAndReadLoop(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] gateway connection lost: %v, reconnecting in %v", err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
				if backoff > 30*time.Second {
					backoff = 30 * time.Second
				}
			}
			continue
		}
		backoff = time.Second
	}
}

func (g *Gateway) connectAndReadLoop(ctx context.Context) error {
	d := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := d.DialContext(ctx, gatewayURL, http.Header{})
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	// First frame must be HELLO with the heartbeat interval.
	var hello gatewayPayload
	_ = conn.SetReadDeadline(time.Now().Add(15 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello opcode, got %d", hello.Op)
	}
	var helloData struct {
		HeartbeatInterval int `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(hello.Data, &helloData); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	if err := g.identify(conn); err != nil {
		return fmt.Errorf("identify: %w", err)
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go g.heartbeatLoop(hbCtx, conn, time.Duration(helloData.HeartbeatInterval)*time.Millisecond)

	log.Println("[INFO] gateway connected")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Duration(helloData.HeartbeatInterval) * time.Millisecond))
		var p gatewayPayload
		if err := conn.ReadJSON(&p); err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if p.Seq != nil {
			g.mu.Lock()
			g.seq = *p.Seq
			g.mu.Unlock()
		}
		switch p.Op {
		case opDispatch:
			if p.Type == "MESSAGE_CREATE" {
				g.dispatchMessage(ctx, p.Data)
			}
		case opHeartbeat:
			g.sendHeartbeat(conn)
		case opInvalidSession:
			return fmt.Errorf("gateway invalidated the session")
		case opHeartbeatAck:
			// Nothing to track; the read deadline covers a dead peer.
		}
	}
}

func (g *Gateway) identify(conn *websocket.Conn) error {
	payload := map[string]any{
		"op": opIdentify,
		"d": map[string]any{
			"token":   g.session.Token,
			"intents": gatewayIntents,
			"properties": map[string]string{
				"os":      "linux",
				"browser": "nightcitybot",
				"device":  "nightcitybot",
			},
		},
	}
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(payload)
}

func (g *Gateway) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sendHeartbeat(conn)
		}
	}
}

func (g *Gateway) sendHeartbeat(conn *websocket.Conn) {
	g.mu.Lock()
	seq := g.seq
	g.mu.Unlock()
	payload := map[string]any{"op": opHeartbeat, "d": seq}
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(payload); err != nil {
		log.Printf("[WARN] heartbeat write failed: %v", err)
	}
}

func (g *Gateway) dispatchMessage(ctx context.Context, data json.RawMessage) {
	if g.handler == nil {
		return
	}
	var m messageCreate
	if err := json.Unmarshal(data, &m); err != nil {
		log.Printf("[WARN] decode message event: %v", err)
		return
	}
	if m.Author.Bot || m.Content == "" {
		return
	}
	authorID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return
	}
	reply := g.handler(IncomingMessage{ChannelID: m.ChannelID, AuthorID: authorID, Content: m.Content})
	if reply != "" {
		if err := g.session.SendWithRetry(ctx, m.ChannelID, reply, 2); err != nil {
			log.Printf("[ERROR] send reply: %v", err)
		}
	}
}
