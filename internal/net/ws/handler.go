package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	servernet "github.com/niembro64/rts-prototype-sub002/internal/net"
	"github.com/niembro64/rts-prototype-sub002/internal/proto"
	"github.com/niembro64/rts-prototype-sub002/internal/sim"
	"github.com/niembro64/rts-prototype-sub002/internal/telemetry"
	"github.com/niembro64/rts-prototype-sub002/logging"
	loggingnetwork "github.com/niembro64/rts-prototype-sub002/logging/network"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler accepts websocket peers into the hub and pumps their command
// frames.
type Handler struct {
	hub       *servernet.Hub
	codec     *proto.Codec
	logger    telemetry.Logger
	publisher logging.Publisher
}

func NewHandler(hub *servernet.Hub, logger telemetry.Logger, publisher logging.Publisher) *Handler {
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	return &Handler{hub: hub, codec: proto.NewCodec(), logger: logger, publisher: publisher}
}

// ServeHTTP upgrades the request and runs the session until the peer leaves.
// Rejected joins close the socket with a policy-violation frame.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("websocket upgrade failed: %v", err)
		}
		return
	}

	name := r.URL.Query().Get("name")
	sess := newSession(conn)
	playerID, err := h.hub.Join(name, sess)
	if err != nil {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		conn.Close()
		return
	}

	h.readLoop(playerID, sess)
}

func (h *Handler) readLoop(playerID sim.PlayerID, sess *session) {
	defer h.hub.Leave(playerID)

	sess.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		if !sess.allowCommand() {
			loggingnetwork.CommandDropped(context.Background(), h.publisher, h.hub.Engine().Tick(),
				logging.EntityRef{ID: string(playerID), Kind: logging.EntityKindPlayer},
				loggingnetwork.CommandDroppedPayload{Reason: "rate_limited"})
			continue
		}

		env, raw, err := h.codec.PeekType(payload)
		if err != nil {
			if h.logger != nil {
				h.logger.Printf("discarding malformed frame from %s: %v", playerID, err)
			}
			continue
		}
		if env.Type != proto.TypeCommand || env.Ver != proto.ProtocolVersion {
			continue
		}
		var msg proto.CommandMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if h.logger != nil {
				h.logger.Printf("discarding malformed command from %s: %v", playerID, err)
			}
			continue
		}
		h.hub.EnqueueCommand(playerID, msg.Payload)
	}
}
