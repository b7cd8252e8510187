package network

import (
	"context"

	"github.com/niembro64/rts-prototype-sub002/logging"
)

const (
	// EventPlayerJoined is emitted when a session is accepted into the lobby.
	EventPlayerJoined logging.EventType = "network.player_joined"
	// EventPlayerLeft is emitted when a session disconnects or times out.
	EventPlayerLeft logging.EventType = "network.player_left"
	// EventJoinRejected is emitted when an incoming connection is refused.
	EventJoinRejected logging.EventType = "network.join_rejected"
	// EventCommandDropped is emitted when an inbound command is discarded.
	EventCommandDropped logging.EventType = "network.command_dropped"
)

type JoinPayload struct {
	Name      string `json:"name,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type JoinRejectedPayload struct {
	Reason string `json:"reason"`
}

type CommandDroppedPayload struct {
	CommandType string `json:"commandType"`
	Reason      string `json:"reason"`
}

func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload JoinPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func PlayerLeft(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerLeft,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
	})
}

func JoinRejected(ctx context.Context, pub logging.Publisher, tick uint64, payload JoinRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventJoinRejected,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func CommandDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CommandDroppedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCommandDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
