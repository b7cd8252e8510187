package sim

import "math"

// updateProjectiles integrates traveling projectiles, re-derives beam
// geometry, and resolves hits. Removal reasons: exhausted hit budget, splash
// detonation, lifespan, or leaving the world bounds.
func updateProjectiles(w *World, dt float64) TickEffects {
	var effects TickEffects
	var removed []EntityID

	for _, proj := range w.Projectiles() {
		pc := proj.Projectile
		pc.TimeAlive += dt

		switch pc.Kind {
		case ProjectileBeam:
			if !deriveBeamGeometry(w, proj) {
				// Source died; the beam dies with it.
				removed = append(removed, proj.ID)
				effects.AudioEvents = append(effects.AudioEvents,
					AudioEvent{Cue: AudioBeamOff, X: proj.X, Y: proj.Y, Continuous: true})
				continue
			}
			effects.Merge(resolveBeamHits(w, proj, dt))

		default:
			proj.X += pc.VelX * dt
			proj.Y += pc.VelY * dt

			expired := pc.TimeAlive >= pc.MaxLifespan || !w.Bounds().Contains(proj.X, proj.Y)
			dead := false
			effects.Merge(resolveProjectileHits(w, proj, &dead))
			if dead || expired {
				if expired && !dead {
					// Splash weapons detonate on expiry if they never hit.
					effects.Merge(applySplash(w, proj))
				}
				removed = append(removed, proj.ID)
			}
		}
	}

	for _, id := range removed {
		w.Remove(id)
		effects.ProjectileDespawns = append(effects.ProjectileDespawns, ProjectileDespawn{ID: id})
	}
	return effects
}

// deriveBeamGeometry recomputes the beam ray from the source's current turret
// angle and the configured beam length. Beams are geometric, not simulated
// bodies. Returns false when the source entity or weapon is gone.
func deriveBeamGeometry(w *World, beam *Entity) bool {
	pc := beam.Projectile
	source := w.Get(pc.SourceID)
	if source == nil || pc.WeaponIndex >= len(source.Weapons) {
		return false
	}
	weapon := &source.Weapons[pc.WeaponIndex]
	angle := weapon.TurretAngle
	pc.BeamStartX = source.X
	pc.BeamStartY = source.Y
	pc.BeamEndX = source.X + math.Cos(angle)*pc.Config.BeamLength
	pc.BeamEndY = source.Y + math.Sin(angle)*pc.Config.BeamLength
	beam.X, beam.Y = pc.BeamStartX, pc.BeamStartY
	beam.Rotation = angle
	return true
}

// resolveBeamHits applies continuous damage to every enemy the beam segment
// crosses. The first tick of contact also emits the discrete hit cue; the
// HitEntities set suppresses repeats while contact continues.
func resolveBeamHits(w *World, beam *Entity, dt float64) TickEffects {
	var effects TickEffects
	pc := beam.Projectile
	for _, enemy := range w.EnemyTargets(pc.Owner) {
		if !segmentHitsCircle(pc.BeamStartX, pc.BeamStartY, pc.BeamEndX, pc.BeamEndY,
			enemy.X, enemy.Y, enemy.CollisionRadius()) {
			continue
		}
		enemy.Damage(pc.Config.DamagePerSecond * dt)
		if _, seen := pc.HitEntities[enemy.ID]; !seen {
			pc.HitEntities[enemy.ID] = struct{}{}
			effects.AudioEvents = append(effects.AudioEvents, AudioEvent{Cue: AudioHit, X: enemy.X, Y: enemy.Y})
			effects.SprayTargets = append(effects.SprayTargets, SprayTarget{X: enemy.X, Y: enemy.Y})
		}
	}
	return effects
}

// resolveProjectileHits applies circle-circle impact damage. Each target is
// damaged at most once per projectile; the hit budget exhausts non-piercing
// projectiles, reported through dead.
func resolveProjectileHits(w *World, proj *Entity, dead *bool) TickEffects {
	var effects TickEffects
	pc := proj.Projectile
	for _, enemy := range w.EnemyTargets(pc.Owner) {
		if _, seen := pc.HitEntities[enemy.ID]; seen {
			continue
		}
		if math.Hypot(enemy.X-proj.X, enemy.Y-proj.Y) > enemy.CollisionRadius() {
			continue
		}
		pc.HitEntities[enemy.ID] = struct{}{}
		enemy.Damage(pc.Config.Damage)
		effects.AudioEvents = append(effects.AudioEvents, AudioEvent{Cue: AudioHit, X: enemy.X, Y: enemy.Y})
		effects.SprayTargets = append(effects.SprayTargets, SprayTarget{X: enemy.X, Y: enemy.Y})

		effects.Merge(applySplash(w, proj))

		if pc.MaxHits != InfiniteHits && len(pc.HitEntities) >= pc.MaxHits {
			*dead = true
			break
		}
	}
	return effects
}

// applySplash detonates the projectile's splash once, applying linear
// falloff damage to every enemy inside the radius. SplashApplied guards the
// impact-or-expiry double trigger.
func applySplash(w *World, proj *Entity) TickEffects {
	pc := proj.Projectile
	if pc.Config.SplashRadius <= 0 || pc.SplashApplied {
		return TickEffects{}
	}
	pc.SplashApplied = true

	var effects TickEffects
	for _, enemy := range w.EnemyTargets(pc.Owner) {
		d := math.Hypot(enemy.X-proj.X, enemy.Y-proj.Y) - enemy.CollisionRadius()
		if d > pc.Config.SplashRadius {
			continue
		}
		if d < 0 {
			d = 0
		}
		falloff := 1 - d/pc.Config.SplashRadius
		enemy.Damage(pc.Config.Damage * falloff)
	}
	effects.AudioEvents = append(effects.AudioEvents, AudioEvent{Cue: AudioExplosion, X: proj.X, Y: proj.Y})
	effects.SprayTargets = append(effects.SprayTargets, SprayTarget{X: proj.X, Y: proj.Y})
	return effects
}

// reapDead removes every unit and building whose hp crossed zero this tick.
// The death set guarantees each entity is reported exactly once even when
// multiple weapons overkill it in the same tick.
func reapDead(w *World) TickEffects {
	var effects TickEffects
	deathSet := make(map[EntityID]struct{})

	collect := func(entities []*Entity) {
		for _, e := range entities {
			if e.Alive() {
				continue
			}
			if _, seen := deathSet[e.ID]; seen {
				continue
			}
			deathSet[e.ID] = struct{}{}
			effects.Deaths = append(effects.Deaths, e.ID)
			effects.AudioEvents = append(effects.AudioEvents, AudioEvent{Cue: AudioDeath, X: e.X, Y: e.Y})
		}
	}
	collect(w.Units())
	collect(w.Buildings())

	for id := range deathSet {
		w.Remove(id)
	}
	return effects
}

// segmentHitsCircle solves the quadratic segment-circle intersection used by
// beam damage.
func segmentHitsCircle(x1, y1, x2, y2, cx, cy, r float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	fx := x1 - cx
	fy := y1 - cy

	a := dx*dx + dy*dy
	if a == 0 {
		return fx*fx+fy*fy <= r*r
	}
	b := 2 * (fx*dx + fy*dy)
	c := fx*fx + fy*fy - r*r

	disc := b*b - 4*a*c
	if disc < 0 {
		return false
	}
	disc = math.Sqrt(disc)
	t1 := (-b - disc) / (2 * a)
	t2 := (-b + disc) / (2 * a)
	return (t1 >= 0 && t1 <= 1) || (t2 >= 0 && t2 <= 1) || (t1 < 0 && t2 > 1)
}
