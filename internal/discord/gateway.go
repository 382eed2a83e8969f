package discord

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const gatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway intents: guilds, guild messages, message content.
const gatewayIntents = (1 << 0) | (1 << 9) | (1 << 15)

const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

// MessageEvent is one inbound chat message, as seen by the routing layer.
type MessageEvent struct {
	ChannelID string
	GuildID   string
	UserID    string
	Content   string
}

// Gateway maintains a websocket session with Discord and dispatches inbound
// messages to a handler. It reconnects on any session failure.
type Gateway struct {
	token      string
	gatewayURL string
	handler    func(MessageEvent)

	seq    atomic.Int64
	stopCh chan struct{}
}

func NewGateway(token string, handler func(MessageEvent)) *Gateway {
	return &Gateway{
		token:      token,
		gatewayURL: gatewayURL,
		handler:    handler,
		stopCh:     make(chan struct{}),
	}
}

func (g *Gateway) Start() {
	go g.run()
	log.Println("gateway: started")
}

func (g *Gateway) Stop() {
	close(g.stopCh)
	log.Println("gateway: stopped")
}

func (g *Gateway) run() {
	for {
		select {
		case <-g.stopCh:
			return
		default:
		}

		if err := g.session(); err != nil {
			log.Printf("gateway: session ended: %v", err)
		}

		select {
		case <-g.stopCh:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (g *Gateway) session() error {
	conn, _, err := websocket.DefaultDialer.Dial(g.gatewayURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// First frame must be hello with the heartbeat interval.
	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return err
	}
	var helloD helloData
	if err := json.Unmarshal(hello.Data, &helloD); err != nil {
		return err
	}

	identify := identifyData{
		Token:   g.token,
		Intents: gatewayIntents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "trivia-game-backend",
			Device:  "trivia-game-backend",
		},
	}
	data, err := json.Marshal(identify)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(gatewayPayload{Op: opIdentify, Data: data}); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go g.heartbeatLoop(conn, time.Duration(helloD.HeartbeatInterval)*time.Millisecond, done)

	for {
		select {
		case <-g.stopCh:
			return nil
		default:
		}

		var payload gatewayPayload
		if err := conn.ReadJSON(&payload); err != nil {
			return err
		}
		if payload.Sequence != nil {
			g.seq.Store(*payload.Sequence)
		}

		switch payload.Op {
		case opDispatch:
			if payload.Type == "MESSAGE_CREATE" {
				g.dispatchMessage(payload.Data)
			}
		case opHeartbeat:
			g.sendHeartbeat(conn)
		case opReconnect, opInvalidSession:
			return nil
		}
	}
}

func (g *Gateway) dispatchMessage(data json.RawMessage) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("gateway: bad message payload: %v", err)
		return
	}
	if msg.Author.Bot {
		return
	}

	g.handler(MessageEvent{
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
		UserID:    msg.Author.ID,
		Content:   msg.Content,
	})
}

func (g *Gateway) heartbeatLoop(conn *websocket.Conn, interval time.Duration, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-g.stopCh:
			conn.Close()
			return
		case <-ticker.C:
			g.sendHeartbeat(conn)
		}
	}
}

func (g *Gateway) sendHeartbeat(conn *websocket.Conn) {
	seq := g.seq.Load()
	data, _ := json.Marshal(seq)
	if err := conn.WriteJSON(gatewayPayload{Op: opHeartbeat, Data: data}); err != nil {
		log.Printf("gateway: heartbeat: %v", err)
	}
}
