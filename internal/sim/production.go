package sim

import (
	"context"

	"github.com/niembro64/rts-prototype-sub002/logging"
	loggingeconomy "github.com/niembro64/rts-prototype-sub002/logging/economy"
)

// updateProduction advances every factory's queue head. Completed units are
// gated by the per-player unit cap: at the cap the head is held at ready
// instead of being discarded, and materializes as soon as capacity frees up.
// It also refreshes each player's structure-derived income.
func updateProduction(w *World, economy *Economy, reg *Registry, physics PhysicsEngine, pub logging.Publisher, tick uint64, dt float64) TickEffects {
	var effects TickEffects

	production := make(map[PlayerID]float64)
	for _, b := range w.Buildings() {
		if b.Buildable != nil && !b.Buildable.Complete {
			continue
		}
		cfg := reg.MustBuilding(b.Building.TypeID)
		if cfg.BaseProduction > 0 {
			production[b.Owner] += cfg.BaseProduction
		}
	}
	for _, id := range w.Players() {
		economy.SetProduction(id, production[id])
	}

	for _, factoryEnt := range w.Buildings() {
		factory := factoryEnt.Factory
		if factory == nil || len(factory.Queue) == 0 {
			continue
		}
		if factoryEnt.Buildable != nil && !factoryEnt.Buildable.Complete {
			continue
		}

		unitCfg := reg.MustUnit(factory.Queue[0])

		if !factory.ReadyHeld && factory.Progress < 1 {
			requested := unitCfg.MaxBuildRate * dt
			if remaining := (1 - factory.Progress) * unitCfg.EnergyCost; requested > remaining {
				requested = remaining
			}
			granted := economy.TrySpendEnergy(factoryEnt.Owner, requested)
			if granted > 0 && unitCfg.EnergyCost > 0 {
				factory.Progress += granted / unitCfg.EnergyCost
			}
			if factory.Progress >= 1 {
				factory.Progress = 1
			}
		}

		if factory.Progress < 1 {
			continue
		}

		if !w.HasCapacity(factoryEnt.Owner) {
			if !factory.ReadyHeld {
				factory.ReadyHeld = true
				loggingeconomy.ProductionPaused(context.Background(), pub, tick,
					logging.EntityRef{ID: factoryEnt.ID.String(), Kind: logging.EntityKindBuilding},
					loggingeconomy.ProductionPayload{UnitType: unitCfg.ID})
			}
			continue
		}

		if factory.ReadyHeld {
			factory.ReadyHeld = false
			loggingeconomy.ProductionResumed(context.Background(), pub, tick,
				logging.EntityRef{ID: factoryEnt.ID.String(), Kind: logging.EntityKindBuilding},
				loggingeconomy.ProductionPayload{UnitType: unitCfg.ID})
		}

		unit := materializeUnit(w, reg, physics, factoryEnt, unitCfg.ID)
		factory.Queue = factory.Queue[1:]
		factory.Progress = 0

		effects.UnitSpawns = append(effects.UnitSpawns, unit.ID)
		effects.AudioEvents = append(effects.AudioEvents,
			AudioEvent{Cue: AudioUnitReady, X: unit.X, Y: unit.Y})
	}
	return effects
}

// materializeUnit spawns the finished unit at the factory exit and routes it
// through the waypoint template to the rally point.
func materializeUnit(w *World, reg *Registry, physics PhysicsEngine, factoryEnt *Entity, typeID string) *Entity {
	factory := factoryEnt.Factory
	exitX := factoryEnt.X
	exitY := factoryEnt.Y + factoryEnt.Building.Height/2 + 8

	unit := w.SpawnUnit(reg, factoryEnt.Owner, typeID, exitX, exitY)
	physics.TrackUnit(unit.ID, exitX, exitY, unit.Unit.Radius, unit.Unit.Mass)

	for _, action := range factory.WaypointTemplate {
		pushAction(unit.Unit, action, true)
	}
	pushAction(unit.Unit, UnitAction{Type: WaypointMove, TargetX: factory.RallyX, TargetY: factory.RallyY}, true)
	return unit
}
