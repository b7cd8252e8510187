package sim

// AudioCue names a replicated sound trigger.
type AudioCue string

const (
	AudioShot      AudioCue = "shot"
	AudioHit       AudioCue = "hit"
	AudioExplosion AudioCue = "explosion"
	AudioDeath     AudioCue = "death"
	AudioBeamOn    AudioCue = "beam_on"
	AudioBeamOff   AudioCue = "beam_off"
	AudioUnitReady AudioCue = "unit_ready"
	AudioBuildDone AudioCue = "build_done"
	AudioDGun      AudioCue = "dgun"
)

// AudioEvent is a one-shot sound trigger replicated to clients. Continuous
// cues (beam on/off) bypass client-side smoothing.
type AudioEvent struct {
	Cue        AudioCue
	X          float64
	Y          float64
	Continuous bool
}

// SprayTarget is a one-shot impact-effect trigger at a world position.
type SprayTarget struct {
	X float64
	Y float64
}

// ProjectileSpawn is the one-shot replication record for a new projectile.
// Projectiles are never re-sent in entity snapshots.
type ProjectileSpawn struct {
	ID       EntityID
	Owner    PlayerID
	SourceID EntityID
	WeaponID string
	Kind     ProjectileKind
	X        float64
	Y        float64
	VelX     float64
	VelY     float64
}

// ProjectileDespawn is the one-shot removal record for a projectile.
type ProjectileDespawn struct {
	ID EntityID
}

// ProjectileVelocityUpdate corrects a client's dead-reckoned projectile.
type ProjectileVelocityUpdate struct {
	ID   EntityID
	X    float64
	Y    float64
	VelX float64
	VelY float64
}

// GameOver reports the end of the match.
type GameOver struct {
	WinnerID PlayerID
	Reason   string
}

// TickEffects carries everything a simulation step produced besides mutated
// world state. Each phase returns its contribution and the loop merges them;
// no phase reaches back through callbacks.
type TickEffects struct {
	Deaths             []EntityID
	UnitSpawns         []EntityID
	ProjectileSpawns   []ProjectileSpawn
	ProjectileDespawns []ProjectileDespawn
	VelocityUpdates    []ProjectileVelocityUpdate
	AudioEvents        []AudioEvent
	SprayTargets       []SprayTarget
	GameOver           *GameOver
}

// Merge folds another phase's effects into the receiver.
func (t *TickEffects) Merge(other TickEffects) {
	t.Deaths = append(t.Deaths, other.Deaths...)
	t.UnitSpawns = append(t.UnitSpawns, other.UnitSpawns...)
	t.ProjectileSpawns = append(t.ProjectileSpawns, other.ProjectileSpawns...)
	t.ProjectileDespawns = append(t.ProjectileDespawns, other.ProjectileDespawns...)
	t.VelocityUpdates = append(t.VelocityUpdates, other.VelocityUpdates...)
	t.AudioEvents = append(t.AudioEvents, other.AudioEvents...)
	t.SprayTargets = append(t.SprayTargets, other.SprayTargets...)
	if other.GameOver != nil {
		t.GameOver = other.GameOver
	}
}

// Empty reports whether the tick produced no replicable effects.
func (t *TickEffects) Empty() bool {
	return len(t.Deaths) == 0 && len(t.UnitSpawns) == 0 &&
		len(t.ProjectileSpawns) == 0 && len(t.ProjectileDespawns) == 0 &&
		len(t.VelocityUpdates) == 0 && len(t.AudioEvents) == 0 &&
		len(t.SprayTargets) == 0 && t.GameOver == nil
}
