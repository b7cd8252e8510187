package sim

import (
	"context"
	"math"

	"github.com/niembro64/rts-prototype-sub002/logging"
	loggingcombat "github.com/niembro64/rts-prototype-sub002/logging/combat"
	loggingnetwork "github.com/niembro64/rts-prototype-sub002/logging/network"
)

// applyCommand executes one due command against the world. Invalid or stale
// commands (dead entities, bad placement, wrong owner) are dropped silently;
// at most a debug event records the reason.
func (e *Engine) applyCommand(cmd Command) TickEffects {
	switch cmd.Type {
	case CommandSelect:
		e.applySelect(cmd.PlayerID, cmd.Select)
	case CommandClearSelection:
		e.applyClearSelection(cmd.PlayerID)
	case CommandMove:
		e.applyMove(cmd.PlayerID, cmd.Move)
	case CommandStartBuild:
		e.applyStartBuild(cmd.PlayerID, cmd.StartBuild)
	case CommandQueueUnit:
		e.applyQueueUnit(cmd.PlayerID, cmd.QueueUnit)
	case CommandSetRallyPoint:
		e.applySetRallyPoint(cmd.PlayerID, cmd.SetRally)
	case CommandFireDGun:
		return e.applyFireDGun(cmd.PlayerID, cmd.FireDGun)
	default:
		e.dropCommand(cmd, "unknown_type")
	}
	return TickEffects{}
}

func (e *Engine) applySelect(player PlayerID, cmd *SelectCommand) {
	if cmd == nil {
		return
	}
	if !cmd.Additive {
		e.applyClearSelection(player)
	}
	for _, id := range cmd.EntityIDs {
		ent := e.world.Get(id)
		if ent == nil || ent.Owner != player || !ent.Selectable {
			continue
		}
		ent.Selected = true
	}
}

func (e *Engine) applyClearSelection(player PlayerID) {
	for _, ent := range e.world.ByPlayer(player) {
		ent.Selected = false
	}
}

func (e *Engine) applyMove(player PlayerID, cmd *MoveCommand) {
	if cmd == nil {
		return
	}
	wpType := cmd.WaypointType
	if wpType == "" {
		wpType = WaypointMove
	}
	resolved := cmd
	if resolved.WaypointType != wpType {
		copied := *cmd
		copied.WaypointType = wpType
		resolved = &copied
	}

	units := make([]*Entity, 0, len(cmd.EntityIDs))
	for _, id := range cmd.EntityIDs {
		ent := e.world.Get(id)
		if ent == nil || ent.Owner != player || ent.Kind != KindUnit {
			continue
		}
		units = append(units, ent)
	}
	if len(units) == 0 {
		return
	}
	assignMoveTargets(units, resolved)
}

func (e *Engine) applyStartBuild(player PlayerID, cmd *StartBuildCommand) {
	if cmd == nil {
		return
	}
	builder := e.world.Get(cmd.BuilderID)
	if builder == nil || builder.Owner != player || builder.Builder == nil {
		return
	}
	if !CanPlace(e.world, e.registry, cmd.BuildingType, cmd.GridX, cmd.GridY) {
		e.dropStartBuild(player, "placement_blocked")
		return
	}
	x, y := GridToWorld(cmd.GridX, cmd.GridY)
	site := e.world.SpawnBuilding(e.registry, player, cmd.BuildingType, x, y, false)
	builder.Builder.BuildTarget = site.ID

	// Route the builder adjacent to the new site so construction can start.
	approach := builder.Builder.BuildRange * 0.8
	dx, dy := builder.X-x, builder.Y-y
	dist := math.Hypot(dx, dy)
	if dist > approach {
		scale := approach / dist
		pushAction(builder.Unit, UnitAction{
			Type:    WaypointMove,
			TargetX: x + dx*scale,
			TargetY: y + dy*scale,
		}, false)
	}
}

func (e *Engine) applyQueueUnit(player PlayerID, cmd *QueueUnitCommand) {
	if cmd == nil {
		return
	}
	factory := e.world.Get(cmd.FactoryID)
	if factory == nil || factory.Owner != player || factory.Factory == nil {
		return
	}
	if _, ok := e.registry.Unit(cmd.UnitTypeID); !ok {
		e.dropStartBuild(player, "unknown_unit_type")
		return
	}
	producible := false
	for _, id := range e.registry.MustBuilding(factory.Building.TypeID).ProducibleIDs {
		if id == cmd.UnitTypeID {
			producible = true
			break
		}
	}
	if !producible {
		return
	}
	factory.Factory.Queue = append(factory.Factory.Queue, cmd.UnitTypeID)
}

func (e *Engine) applySetRallyPoint(player PlayerID, cmd *SetRallyPointCommand) {
	if cmd == nil {
		return
	}
	factory := e.world.Get(cmd.FactoryID)
	if factory == nil || factory.Owner != player || factory.Factory == nil {
		return
	}
	factory.Factory.RallyX = cmd.RallyX
	factory.Factory.RallyY = cmd.RallyY
}

// applyFireDGun debits the shot cost atomically, reorients the commander
// toward the click point, and spawns the piercing projectile. An unaffordable
// shot is dropped whole; there is no partial D-gun.
func (e *Engine) applyFireDGun(player PlayerID, cmd *FireDGunCommand) TickEffects {
	if cmd == nil {
		return TickEffects{}
	}
	commander := e.world.Get(cmd.CommanderID)
	if commander == nil || commander.Owner != player ||
		commander.Builder == nil || !commander.Builder.Commander {
		return TickEffects{}
	}
	weaponIndex := -1
	for i := range commander.Weapons {
		if commander.Weapons[i].Config.EnergyCost > 0 {
			weaponIndex = i
			break
		}
	}
	if weaponIndex < 0 {
		return TickEffects{}
	}
	cfg := commander.Weapons[weaponIndex].Config
	if !e.economy.SpendEnergyExact(player, cfg.EnergyCost) {
		return TickEffects{}
	}

	angle := math.Atan2(cmd.TargetY-commander.Y, cmd.TargetX-commander.X)
	commander.Rotation = angle
	commander.Weapons[weaponIndex].TurretAngle = angle

	effects := spawnProjectile(e.world, commander, weaponIndex, angle)
	effects.AudioEvents = append(effects.AudioEvents,
		AudioEvent{Cue: AudioDGun, X: commander.X, Y: commander.Y})

	loggingcombat.DGunFired(context.Background(), e.publisher, e.currentTick.Load(),
		logging.EntityRef{ID: commander.ID.String(), Kind: logging.EntityKindUnit},
		loggingcombat.DGunFiredPayload{TargetX: cmd.TargetX, TargetY: cmd.TargetY, Cost: cfg.EnergyCost})
	return effects
}

func (e *Engine) dropCommand(cmd Command, reason string) {
	loggingnetwork.CommandDropped(context.Background(), e.publisher, e.currentTick.Load(),
		logging.EntityRef{ID: string(cmd.PlayerID), Kind: logging.EntityKindPlayer},
		loggingnetwork.CommandDroppedPayload{CommandType: string(cmd.Type), Reason: reason})
}

func (e *Engine) dropStartBuild(player PlayerID, reason string) {
	loggingnetwork.CommandDropped(context.Background(), e.publisher, e.currentTick.Load(),
		logging.EntityRef{ID: string(player), Kind: logging.EntityKindPlayer},
		loggingnetwork.CommandDroppedPayload{CommandType: string(CommandStartBuild), Reason: reason})
}
