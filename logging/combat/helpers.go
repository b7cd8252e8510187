package combat

import (
	"context"

	"github.com/niembro64/rts-prototype-sub002/logging"
)

const (
	// EventUnitDied is emitted once per entity whose hp crosses zero.
	EventUnitDied logging.EventType = "combat.unit_died"
	// EventProjectileExpired is emitted when a projectile leaves the world
	// through lifespan or bounds rather than a hit.
	EventProjectileExpired logging.EventType = "combat.projectile_expired"
	// EventDGunFired is emitted when a commander successfully fires the D-gun.
	EventDGunFired logging.EventType = "combat.dgun_fired"
)

// UnitDiedPayload records the killing weapon and remaining overkill damage.
type UnitDiedPayload struct {
	WeaponID string  `json:"weaponId,omitempty"`
	Overkill float64 `json:"overkill,omitempty"`
}

// DGunFiredPayload records where the shot was aimed and what it cost.
type DGunFiredPayload struct {
	TargetX float64 `json:"targetX"`
	TargetY float64 `json:"targetY"`
	Cost    float64 `json:"cost"`
}

func UnitDied(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload UnitDiedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUnitDied,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func ProjectileExpired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventProjectileExpired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
	})
}

func DGunFired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DGunFiredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDGunFired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}
