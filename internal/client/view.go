package client

import (
	"sort"
	"sync"

	servernet "github.com/niembro64/rts-prototype-sub002/internal/net"
	"github.com/niembro64/rts-prototype-sub002/internal/proto"
	"github.com/niembro64/rts-prototype-sub002/internal/sim"
)

// ViewEntity is the client-side mirror of one replicated entity. It is
// structurally independent from the authoritative entity; only what the
// presentation layer needs survives the wire.
type ViewEntity struct {
	ID     sim.EntityID
	Kind   sim.EntityKind
	Owner  sim.PlayerID
	TypeID string

	X, Y     float64
	Rotation float64
	VelX     float64
	VelY     float64

	HP     float64
	MaxHP  float64
	Radius float64

	Width    float64
	Height   float64
	Progress float64
	Complete bool
	Ghost    bool

	Factory       bool
	Queue         []string
	QueueProgress float64
	RallyX        float64
	RallyY        float64

	Weapons []proto.WeaponSnapshot
	Actions []proto.WaypointSnapshot

	ProjectileKind sim.ProjectileKind

	// Selected is held locally; snapshots never touch it.
	Selected bool
}

// ViewState is the client mirror: it applies host snapshots, dead-reckons
// between them, and buffers one-shot payloads for a single consuming pass.
// The render loop calls Step once per frame; transport callbacks only stage
// data.
type ViewState struct {
	mu       sync.Mutex
	pending  *proto.StateMessage
	hasState bool

	entities map[sim.EntityID]*ViewEntity
	economy  map[sim.PlayerID]proto.EconomySnapshot
	tick     uint64
	lastSeq  uint64
	desynced bool
	gameOver *proto.GameOverWire

	sprays *EventBuffer[proto.SprayTargetWire]
	audio  *AudioSmoother
}

func NewViewState() *ViewState {
	return &ViewState{
		entities: make(map[sim.EntityID]*ViewEntity),
		economy:  make(map[sim.PlayerID]proto.EconomySnapshot),
		sprays:   &EventBuffer[proto.SprayTargetWire]{},
		audio:    NewAudioSmoother(1),
	}
}

// Bind registers the view on a connection. The view never learns whether the
// connection is loopback or remote.
func (v *ViewState) Bind(conn servernet.Connection) {
	conn.OnSnapshot(v.ingest)
}

// ingest stages a snapshot (latest-wins for continuous state) and banks its
// one-shot event streams, which must survive even if the snapshot's entity
// payload is superseded before the next frame.
func (v *ViewState) ingest(msg *proto.StateMessage) {
	v.sprays.Append(msg.SprayTargets...)
	v.audio.Ingest(msg.AudioEvents)

	v.mu.Lock()
	defer v.mu.Unlock()

	// Projectile events are guaranteed-delivery: apply them immediately
	// rather than waiting for the render frame, so a spawn and despawn
	// arriving in different snapshots between frames both take effect.
	v.applyProjectileEvents(msg)

	if msg.GameOver != nil {
		over := *msg.GameOver
		v.gameOver = &over
	}

	// A delta that skips a sequence means a lost snapshot; the mirror stays
	// suspect until a full snapshot rebases it.
	if !msg.Full && v.lastSeq != 0 && msg.Sequence > v.lastSeq+1 {
		v.desynced = true
	}
	if msg.Full {
		v.desynced = false
	}
	v.lastSeq = msg.Sequence

	if v.pending == nil || msg.Full {
		v.pending = msg
		return
	}
	// A delta cannot replace an unconsumed snapshot or its removals and
	// changes would be lost; fold its payload in instead. Later entries for
	// the same entity win, matching apply's iteration order.
	v.pending.ChangedEntities = append(v.pending.ChangedEntities, msg.ChangedEntities...)
	v.pending.RemovedIDs = append(v.pending.RemovedIDs, msg.RemovedIDs...)
	v.pending.Tick = msg.Tick
	if msg.Economy != nil {
		v.pending.Economy = msg.Economy
	}
}

// Step advances the mirror one render frame: consume at most one staged
// snapshot, otherwise dead-reckon every entity forward by its last-known
// velocity.
func (v *ViewState) Step(dt float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.pending != nil {
		v.apply(v.pending)
		v.pending = nil
		return
	}
	v.deadReckon(dt)
}

func (v *ViewState) apply(msg *proto.StateMessage) {
	v.tick = msg.Tick
	v.hasState = true
	if msg.Economy != nil {
		v.economy = msg.Economy
	}

	if msg.Full {
		keep := make(map[sim.EntityID]struct{}, len(msg.Entities))
		for _, snap := range msg.Entities {
			keep[snap.EntityID()] = struct{}{}
			v.applyEntity(snap)
		}
		for id, ent := range v.entities {
			if ent.Kind == sim.KindProjectile {
				// Projectiles live on spawn/despawn events, not snapshots.
				continue
			}
			if _, ok := keep[id]; !ok {
				delete(v.entities, id)
			}
		}
		// Fall through: ingest folds deltas that arrive behind an unconsumed
		// full into these fields, and they post-date the full set.
	}

	for _, snap := range msg.ChangedEntities {
		v.applyEntity(snap)
	}
	for _, id := range msg.RemovedIDs {
		delete(v.entities, id)
	}
}

// applyEntity snaps an entity to server truth, creating it when new and
// preserving the locally-held selection flag when it already exists.
func (v *ViewState) applyEntity(snap proto.EntitySnapshot) {
	id := snap.EntityID()
	if id == 0 {
		return
	}
	ent, ok := v.entities[id]
	if !ok {
		ent = &ViewEntity{ID: id}
		v.entities[id] = ent
	}
	selected := ent.Selected

	switch {
	case snap.Unit != nil:
		u := snap.Unit
		ent.Kind = sim.KindUnit
		ent.Owner = u.Owner
		ent.TypeID = u.TypeID
		ent.X, ent.Y = u.X, u.Y
		ent.Rotation = u.Rotation
		ent.VelX, ent.VelY = u.VelX, u.VelY
		ent.HP, ent.MaxHP = u.HP, u.MaxHP
		ent.Radius = u.Radius
		ent.Weapons = append(ent.Weapons[:0], u.Weapons...)
		ent.Actions = append(ent.Actions[:0], u.Actions...)
	case snap.Building != nil:
		b := snap.Building
		ent.Kind = sim.KindBuilding
		ent.Owner = b.Owner
		ent.TypeID = b.TypeID
		ent.X, ent.Y = b.X, b.Y
		ent.HP, ent.MaxHP = b.HP, b.MaxHP
		ent.Width, ent.Height = b.Width, b.Height
		ent.Progress = b.Progress
		ent.Complete = b.Complete
		ent.Ghost = b.Ghost
		ent.Factory = b.Factory
		ent.Queue = append(ent.Queue[:0], b.Queue...)
		ent.QueueProgress = b.QueueProgress
		ent.RallyX, ent.RallyY = b.RallyX, b.RallyY
	}
	ent.Selected = selected
}

func (v *ViewState) applyProjectileEvents(msg *proto.StateMessage) {
	for _, spawn := range msg.ProjectileSpawns {
		v.entities[spawn.ID] = &ViewEntity{
			ID:             spawn.ID,
			Kind:           sim.KindProjectile,
			Owner:          spawn.Owner,
			TypeID:         spawn.WeaponID,
			X:              spawn.X,
			Y:              spawn.Y,
			VelX:           spawn.VelX,
			VelY:           spawn.VelY,
			ProjectileKind: sim.ProjectileKind(spawn.Kind),
		}
	}
	for _, update := range msg.ProjectileVelocityUpdates {
		if ent, ok := v.entities[update.ID]; ok {
			ent.X, ent.Y = update.X, update.Y
			ent.VelX, ent.VelY = update.VelX, update.VelY
		}
	}
	for _, despawn := range msg.ProjectileDespawns {
		delete(v.entities, despawn.ID)
	}
}

// deadReckon extrapolates positions linearly from last-known velocity. Beams
// are geometric, not kinematic, so they only move when a snapshot says so.
func (v *ViewState) deadReckon(dt float64) {
	for _, ent := range v.entities {
		if ent.ProjectileKind == sim.ProjectileBeam {
			continue
		}
		ent.X += ent.VelX * dt
		ent.Y += ent.VelY * dt
	}
}

// AllEntities returns the mirrored entities in id order.
func (v *ViewState) AllEntities() []*ViewEntity {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*ViewEntity, 0, len(v.entities))
	for _, ent := range v.entities {
		out = append(out, ent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Entity returns one mirrored entity, or nil.
func (v *ViewState) Entity(id sim.EntityID) *ViewEntity {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.entities[id]
}

// SetSelected flips the local selection flag; it survives snapshot applies.
func (v *ViewState) SetSelected(id sim.EntityID, selected bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if ent, ok := v.entities[id]; ok {
		ent.Selected = selected
	}
}

// Tick reports the tick of the last applied snapshot.
func (v *ViewState) Tick() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tick
}

// Desynced reports whether a snapshot gap was detected since the last full
// snapshot. A desynced mirror keeps rendering but may show stale entities.
func (v *ViewState) Desynced() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.desynced
}

// Economy returns the last replicated per-player resource states.
func (v *ViewState) Economy() map[sim.PlayerID]proto.EconomySnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[sim.PlayerID]proto.EconomySnapshot, len(v.economy))
	for id, e := range v.economy {
		out[id] = e
	}
	return out
}

// GameOver reports the match result once it has arrived.
func (v *ViewState) GameOver() *proto.GameOverWire {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gameOver
}

// SprayTargets drains the pending one-shot impact effects; each is returned
// exactly once.
func (v *ViewState) SprayTargets() []proto.SprayTargetWire {
	return v.sprays.Drain()
}

// PendingAudioEvents drains the audio cues whose (possibly jittered) play
// time has arrived.
func (v *ViewState) PendingAudioEvents() []proto.AudioEventWire {
	return v.audio.Due()
}
