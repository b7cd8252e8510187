package sim

import "math"

// updateCombat advances every weapon's state machine and spawns the tick's
// weapon fire, then resolves projectiles and beams. It returns the tick's
// combat effects; damage and death never escape through callbacks.
func updateCombat(w *World, dt float64) TickEffects {
	var effects TickEffects
	updateTargeting(w)
	updateTurrets(w, dt)
	effects.Merge(updateFiring(w, dt))
	effects.Merge(updateProjectiles(w, dt))
	effects.Merge(reapDead(w))
	return effects
}

// updateTargeting acquires and releases weapon locks. A held target survives
// while it stays alive and inside effective fire range (fire range plus the
// target's collision radius, so large targets are engaged sooner); a lock on
// a dead or out-of-range target is cleared and re-acquired next pass.
func updateTargeting(w *World) {
	for _, unit := range w.Units() {
		if len(unit.Weapons) == 0 {
			continue
		}
		enemies := w.EnemyTargets(unit.Owner)
		for i := range unit.Weapons {
			weapon := &unit.Weapons[i]
			cfg := weapon.Config

			if weapon.TargetID != 0 {
				target := w.Get(weapon.TargetID)
				if target != nil && target.Hittable() &&
					Distance(unit, target) <= cfg.FireRange+target.CollisionRadius() {
					continue
				}
				weapon.TargetID = 0
				if weapon.Phase != WeaponIdle {
					weapon.Phase = WeaponIdle
				}
			}

			best := EntityID(0)
			bestDist := math.Inf(1)
			for _, enemy := range enemies {
				d := Distance(unit, enemy)
				if d <= cfg.FireRange+enemy.CollisionRadius() && d < bestDist {
					best = enemy.ID
					bestDist = d
				}
			}
			if best != 0 {
				weapon.TargetID = best
				weapon.Phase = WeaponTracking
			}
		}
	}
}

// updateTurrets integrates acceleration-limited turret rotation. Heavier
// turrets (low accel, low drag) visibly lag their aim point; idle turrets
// swing back toward the unit's movement heading.
func updateTurrets(w *World, dt float64) {
	for _, unit := range w.Units() {
		for i := range unit.Weapons {
			weapon := &unit.Weapons[i]
			cfg := weapon.Config

			desired := unit.Rotation
			if weapon.TargetID != 0 {
				if target := w.Get(weapon.TargetID); target != nil {
					desired = math.Atan2(target.Y-unit.Y, target.X-unit.X)
				}
			}

			diff := normalizeAngle(desired - weapon.TurretAngle)
			accel := cfg.TurretAccel
			if accel <= 0 {
				// Fixed mounts snap instantly.
				weapon.TurretAngle = desired
				weapon.TurretVel = 0
				continue
			}
			if diff > 0 {
				weapon.TurretVel += accel * dt
			} else if diff < 0 {
				weapon.TurretVel -= accel * dt
			}
			weapon.TurretVel -= weapon.TurretVel * cfg.TurretDrag * dt
			weapon.TurretAngle = normalizeAngle(weapon.TurretAngle + weapon.TurretVel*dt)
		}
	}
}

// aimTolerance is how far off-axis a turret may be and still fire.
const aimTolerance = 0.25

// updateFiring gates each locked weapon on cooldown, burst state, and turret
// alignment, and emits projectile/beam fire.
func updateFiring(w *World, dt float64) TickEffects {
	var effects TickEffects
	for _, unit := range w.Units() {
		for i := range unit.Weapons {
			weapon := &unit.Weapons[i]
			cfg := weapon.Config

			if weapon.Cooldown > 0 {
				weapon.Cooldown -= dt
			}
			if weapon.BurstDelay > 0 {
				weapon.BurstDelay -= dt
			}

			if weapon.TargetID == 0 {
				weapon.BurstLeft = 0
				if cfg.Kind == ProjectileBeam {
					effects.Merge(endBeam(w, unit, i))
				}
				continue
			}
			target := w.Get(weapon.TargetID)
			if target == nil {
				continue
			}

			aim := math.Atan2(target.Y-unit.Y, target.X-unit.X)
			aligned := math.Abs(normalizeAngle(aim-weapon.TurretAngle)) <= aimTolerance

			if cfg.Kind == ProjectileBeam {
				if aligned {
					weapon.Phase = WeaponFiring
					effects.Merge(ensureBeam(w, unit, i))
				} else {
					weapon.Phase = WeaponTracking
					effects.Merge(endBeam(w, unit, i))
				}
				continue
			}

			if !aligned {
				weapon.Phase = WeaponTracking
				continue
			}

			// Burst shots skip the main cooldown but pay the burst interval.
			if weapon.BurstLeft > 0 {
				if weapon.BurstDelay > 0 {
					continue
				}
				weapon.BurstLeft--
				weapon.BurstDelay = cfg.BurstInterval
				effects.Merge(fireWeapon(w, unit, i))
				continue
			}

			if weapon.Cooldown > 0 {
				continue
			}
			weapon.Phase = WeaponFiring
			weapon.Cooldown = cfg.CooldownSeconds
			if cfg.BurstCount > 1 {
				weapon.BurstLeft = cfg.BurstCount - 1
				weapon.BurstDelay = cfg.BurstInterval
			}
			effects.Merge(fireWeapon(w, unit, i))
		}
	}
	return effects
}

// fireWeapon spawns the pellets for one trigger pull. Multi-pellet weapons
// fan evenly across the spread arc; single pellets jitter randomly inside it.
func fireWeapon(w *World, unit *Entity, weaponIndex int) TickEffects {
	weapon := &unit.Weapons[weaponIndex]
	cfg := weapon.Config

	var effects TickEffects
	pellets := int(cfg.Pellets)
	if pellets < 1 {
		pellets = 1
	}
	for p := 0; p < pellets; p++ {
		angle := weapon.TurretAngle
		if cfg.Spread > 0 {
			if pellets > 1 {
				angle += cfg.Spread * (float64(p)/float64(pellets-1) - 0.5)
			} else {
				angle += cfg.Spread * (w.RNG().Float64() - 0.5)
			}
		}
		effects.Merge(spawnProjectile(w, unit, weaponIndex, angle))
	}
	effects.AudioEvents = append(effects.AudioEvents, AudioEvent{Cue: AudioShot, X: unit.X, Y: unit.Y})
	return effects
}

// spawnProjectile materializes a traveling or instant projectile along the
// aim angle, snapshotting the weapon config.
func spawnProjectile(w *World, unit *Entity, weaponIndex int, angle float64) TickEffects {
	weapon := &unit.Weapons[weaponIndex]
	cfg := *weapon.Config

	muzzle := unit.CollisionRadius() + 2
	proj := &Entity{
		Kind: KindProjectile,
		Transform: Transform{
			X:        unit.X + math.Cos(angle)*muzzle,
			Y:        unit.Y + math.Sin(angle)*muzzle,
			Rotation: angle,
		},
		Owner: unit.Owner,
		Projectile: &ProjectileComponent{
			Owner:       unit.Owner,
			SourceID:    unit.ID,
			WeaponIndex: weaponIndex,
			Config:      cfg,
			Kind:        cfg.Kind,
			VelX:        math.Cos(angle) * cfg.ProjectileSpeed,
			VelY:        math.Sin(angle) * cfg.ProjectileSpeed,
			MaxLifespan: cfg.Lifespan,
			HitEntities: make(map[EntityID]struct{}),
			MaxHits:     cfg.MaxHits,
		},
	}
	w.Add(proj)

	return TickEffects{
		ProjectileSpawns: []ProjectileSpawn{{
			ID:       proj.ID,
			Owner:    proj.Owner,
			SourceID: unit.ID,
			WeaponID: cfg.ID,
			Kind:     cfg.Kind,
			X:        proj.X,
			Y:        proj.Y,
			VelX:     proj.Projectile.VelX,
			VelY:     proj.Projectile.VelY,
		}},
	}
}

// ensureBeam spawns the weapon's beam if one is not already live. Beams are
// capped at one per (source entity, weapon index).
func ensureBeam(w *World, unit *Entity, weaponIndex int) TickEffects {
	if findBeam(w, unit.ID, weaponIndex) != nil {
		return TickEffects{}
	}
	weapon := &unit.Weapons[weaponIndex]
	cfg := *weapon.Config

	beam := &Entity{
		Kind:      KindProjectile,
		Transform: Transform{X: unit.X, Y: unit.Y, Rotation: weapon.TurretAngle},
		Owner:     unit.Owner,
		Projectile: &ProjectileComponent{
			Owner:       unit.Owner,
			SourceID:    unit.ID,
			WeaponIndex: weaponIndex,
			Config:      cfg,
			Kind:        ProjectileBeam,
			MaxLifespan: math.Inf(1),
			HitEntities: make(map[EntityID]struct{}),
			MaxHits:     cfg.MaxHits,
		},
	}
	deriveBeamGeometry(w, beam)
	w.Add(beam)

	return TickEffects{
		ProjectileSpawns: []ProjectileSpawn{{
			ID:       beam.ID,
			Owner:    beam.Owner,
			SourceID: unit.ID,
			WeaponID: cfg.ID,
			Kind:     ProjectileBeam,
			X:        beam.X,
			Y:        beam.Y,
		}},
		AudioEvents: []AudioEvent{{Cue: AudioBeamOn, X: unit.X, Y: unit.Y, Continuous: true}},
	}
}

// endBeam despawns the weapon's live beam, if any.
func endBeam(w *World, unit *Entity, weaponIndex int) TickEffects {
	beam := findBeam(w, unit.ID, weaponIndex)
	if beam == nil {
		return TickEffects{}
	}
	w.Remove(beam.ID)
	return TickEffects{
		ProjectileDespawns: []ProjectileDespawn{{ID: beam.ID}},
		AudioEvents:        []AudioEvent{{Cue: AudioBeamOff, X: unit.X, Y: unit.Y, Continuous: true}},
	}
}

func findBeam(w *World, sourceID EntityID, weaponIndex int) *Entity {
	for _, proj := range w.Projectiles() {
		pc := proj.Projectile
		if pc.Kind == ProjectileBeam && pc.SourceID == sourceID && pc.WeaponIndex == weaponIndex {
			return proj
		}
	}
	return nil
}

// normalizeAngle wraps an angle into (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
