package economy

import (
	"context"

	"github.com/niembro64/rts-prototype-sub002/logging"
)

const (
	// EventSpendRejected is emitted when an all-or-nothing debit fails.
	EventSpendRejected logging.EventType = "economy.spend_rejected"
	// EventProductionPaused is emitted when a finished unit is held at ready
	// because the owner is at their unit cap.
	EventProductionPaused logging.EventType = "economy.production_paused"
	// EventProductionResumed is emitted when a held unit finally materializes.
	EventProductionResumed logging.EventType = "economy.production_resumed"
)

// SpendRejectedPayload describes the failed debit.
type SpendRejectedPayload struct {
	Requested float64 `json:"requested"`
	Available float64 `json:"available"`
	Reason    string  `json:"reason,omitempty"`
}

// ProductionPayload identifies the queued unit type involved.
type ProductionPayload struct {
	UnitType string `json:"unitType"`
}

func SpendRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpendRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSpendRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

func ProductionPaused(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ProductionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventProductionPaused,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}

func ProductionResumed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ProductionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventProductionResumed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
	})
}
