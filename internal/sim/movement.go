package sim

import "math"

// waypointArriveEpsilon is how close a unit must get before a waypoint is
// considered reached.
const waypointArriveEpsilon = 4.0

// updateMovement drives every unit's waypoint pursuit and writes velocity
// intents into the physics engine. Corrected positions are synced back after
// physics.Step by the tick loop.
func updateMovement(w *World, physics PhysicsEngine, dt float64) {
	for _, unit := range w.Units() {
		uc := unit.Unit
		vx, vy := 0.0, 0.0

		if action, ok := currentAction(uc); ok {
			if shouldHoldForCombat(w, unit, action) {
				// Fight/patrol waypoints yield to live combat.
			} else {
				dx := action.TargetX - unit.X
				dy := action.TargetY - unit.Y
				dist := math.Hypot(dx, dy)
				if dist <= waypointArriveEpsilon {
					completeAction(uc)
				} else {
					vx = dx / dist * uc.MoveSpeed
					vy = dy / dist * uc.MoveSpeed
					unit.Rotation = math.Atan2(dy, dx)
				}
			}
		}

		uc.VelX, uc.VelY = vx, vy
		physics.SetVelocity(unit.ID, vx, vy)
	}
}

func currentAction(uc *UnitComponent) (UnitAction, bool) {
	if len(uc.Actions) == 0 {
		return UnitAction{}, false
	}
	return uc.Actions[0], true
}

// completeAction pops the head of the queue. When the last patrol waypoint
// completes, the patrol loop is re-queued from its recorded start index.
func completeAction(uc *UnitComponent) {
	if len(uc.Actions) == 0 {
		return
	}
	done := uc.Actions[0]
	uc.Actions = uc.Actions[1:]
	if done.Type == WaypointPatrol {
		uc.Actions = append(uc.Actions, done)
		if len(uc.Actions) == 1 && uc.PatrolStart >= 0 {
			// Single-point patrol degenerates to holding position; keep the
			// entry so combat-stop still applies.
			return
		}
	}
	if len(uc.Actions) == 0 {
		uc.PatrolStart = -1
	}
}

// shouldHoldForCombat reports whether the unit pauses its waypoint to fight.
// Plain moves never stop. Fight and patrol waypoints hold while any weapon's
// live target is inside the fightstop tier; a target locked further out keeps
// the unit closing distance while the turret engages.
func shouldHoldForCombat(w *World, unit *Entity, action UnitAction) bool {
	if action.Type == WaypointMove {
		return false
	}
	for i := range unit.Weapons {
		weapon := &unit.Weapons[i]
		if weapon.TargetID == 0 {
			continue
		}
		target := w.Get(weapon.TargetID)
		if target == nil || !target.Hittable() {
			continue
		}
		if Distance(unit, target) <= weapon.Config.FightstopRange+target.CollisionRadius() {
			return true
		}
	}
	return false
}

// assignMoveTargets applies a move command to the resolved units: either a
// formation-spread shared target or per-unit individual targets.
func assignMoveTargets(units []*Entity, cmd *MoveCommand) {
	if len(cmd.IndividualTargets) > 0 {
		byID := make(map[EntityID]*Entity, len(units))
		for _, u := range units {
			byID[u.ID] = u
		}
		for _, target := range cmd.IndividualTargets {
			unit, ok := byID[target.EntityID]
			if !ok {
				continue
			}
			pushAction(unit.Unit, UnitAction{Type: cmd.WaypointType, TargetX: target.X, TargetY: target.Y}, cmd.Queue)
		}
		return
	}
	offsets := formationOffsets(len(units))
	for i, unit := range units {
		pushAction(unit.Unit, UnitAction{
			Type:    cmd.WaypointType,
			TargetX: cmd.TargetX + offsets[i][0],
			TargetY: cmd.TargetY + offsets[i][1],
		}, cmd.Queue)
	}
}

func pushAction(uc *UnitComponent, action UnitAction, queue bool) {
	if !queue {
		uc.Actions = uc.Actions[:0]
		uc.PatrolStart = -1
	}
	if action.Type == WaypointPatrol && uc.PatrolStart < 0 {
		uc.PatrolStart = len(uc.Actions)
	}
	uc.Actions = append(uc.Actions, action)
}

// formationSpacing is the grid pitch used to fan group moves out so units do
// not stack on one point.
const formationSpacing = 28.0

// formationOffsets arranges n units on a centered square grid around the
// shared target.
func formationOffsets(n int) [][2]float64 {
	if n <= 0 {
		return nil
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	offsets := make([][2]float64, 0, n)
	for i := 0; i < n; i++ {
		col := i % cols
		row := i / cols
		ox := (float64(col) - float64(cols-1)/2) * formationSpacing
		oy := (float64(row) - float64(rows-1)/2) * formationSpacing
		offsets = append(offsets, [2]float64{ox, oy})
	}
	return offsets
}
