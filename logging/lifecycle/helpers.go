package lifecycle

import (
	"context"

	"github.com/niembro64/rts-prototype-sub002/logging"
)

const (
	// EventMatchStarted is emitted when the host locks the lobby and starts
	// the simulation clock.
	EventMatchStarted logging.EventType = "lifecycle.match_started"
	// EventMatchEnded is emitted once when a game-over condition is detected.
	EventMatchEnded logging.EventType = "lifecycle.match_ended"
	// EventEntitySpawned is emitted for unit/building materialization.
	EventEntitySpawned logging.EventType = "lifecycle.entity_spawned"
)

type MatchStartedPayload struct {
	Players []string `json:"players"`
}

type MatchEndedPayload struct {
	WinnerID string `json:"winnerId,omitempty"`
	Reason   string `json:"reason"`
}

type EntitySpawnedPayload struct {
	TypeID string `json:"typeId"`
	Source string `json:"source,omitempty"`
}

func MatchStarted(ctx context.Context, pub logging.Publisher, tick uint64, payload MatchStartedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMatchStarted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

func MatchEnded(ctx context.Context, pub logging.Publisher, tick uint64, payload MatchEndedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMatchEnded,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

func EntitySpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload EntitySpawnedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEntitySpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}
