package proto

import (
	"math"
	"sort"

	"github.com/niembro64/rts-prototype-sub002/internal/sim"
)

// Serializer converts world state into wire snapshots. It owns fixed record
// pools reused across encodes, so a produced StateMessage is only valid until
// the next Encode call; marshal it before encoding again.
type Serializer struct {
	units     recordPool[UnitSnapshot]
	buildings recordPool[BuildingSnapshot]
	entities  recordPool[EntitySnapshot]
	weapons   recordPool[WeaponSnapshot]
	actions   recordPool[WaypointSnapshot]

	last     map[sim.EntityID]fingerprint
	sequence uint64

	// Traveling projectiles get a velocity correction every Nth encode.
	correctionInterval uint64
}

// SerializerConfig pre-sizes the pools to the expected entity counts.
type SerializerConfig struct {
	MaxEntities        int
	MaxWeapons         int
	MaxActions         int
	CorrectionInterval uint64
}

func DefaultSerializerConfig() SerializerConfig {
	return SerializerConfig{
		MaxEntities:        256,
		MaxWeapons:         512,
		MaxActions:         1024,
		CorrectionInterval: 4,
	}
}

func NewSerializer(cfg SerializerConfig) *Serializer {
	if cfg.MaxEntities <= 0 {
		cfg.MaxEntities = 256
	}
	if cfg.MaxWeapons <= 0 {
		cfg.MaxWeapons = cfg.MaxEntities * 2
	}
	if cfg.MaxActions <= 0 {
		cfg.MaxActions = cfg.MaxEntities * 4
	}
	if cfg.CorrectionInterval == 0 {
		cfg.CorrectionInterval = 4
	}
	return &Serializer{
		units:              newRecordPool[UnitSnapshot](cfg.MaxEntities),
		buildings:          newRecordPool[BuildingSnapshot](cfg.MaxEntities),
		entities:           newRecordPool[EntitySnapshot](cfg.MaxEntities * 2),
		weapons:            newRecordPool[WeaponSnapshot](cfg.MaxWeapons),
		actions:            newRecordPool[WaypointSnapshot](cfg.MaxActions),
		last:               make(map[sim.EntityID]fingerprint),
		correctionInterval: cfg.CorrectionInterval,
	}
}

// fingerprint captures the replicated fields whose change forces an entity
// into the next delta. Waypoints and weapon targets are folded into hashes so
// a same-length queue replacement or a retarget at an unchanged turret angle
// still produces a delta.
type fingerprint struct {
	x, y, rotation float64
	velX, velY     float64
	hp             float64
	progress       float64
	queueLen       int
	queueProgress  float64
	rallyX, rallyY float64
	turretSum      float64
	actionHash     uint64
	targetHash     uint64
}

// mixHash folds v into an order-sensitive FNV-1a accumulator.
func mixHash(h, v uint64) uint64 {
	return (h ^ v) * 1099511628211
}

func mixFloat(h uint64, v float64) uint64 {
	return mixHash(h, math.Float64bits(quantize(v)))
}

// EncodeFull serializes every current unit and building.
func (s *Serializer) EncodeFull(world *sim.World, tick uint64, economy map[sim.PlayerID]sim.PlayerEconomy, effects sim.TickEffects) *StateMessage {
	s.resetPools()
	s.sequence++

	msg := s.baseMessage(world, tick, economy, effects)
	msg.Full = true

	next := make(map[sim.EntityID]fingerprint, world.Len())
	entities := s.entities.takeSlice(len(world.Units()) + len(world.Buildings()))[:0]
	for _, unit := range world.Units() {
		snap, fp := s.snapshotUnit(unit)
		entities = append(entities, EntitySnapshot{Kind: string(sim.KindUnit), Unit: snap})
		next[unit.ID] = fp
	}
	for _, b := range world.Buildings() {
		snap, fp := s.snapshotBuilding(b)
		entities = append(entities, EntitySnapshot{Kind: string(sim.KindBuilding), Building: snap})
		next[b.ID] = fp
	}
	msg.Entities = entities
	s.last = next
	return msg
}

// EncodeDelta serializes only entities whose replicated fields changed since
// the last emitted snapshot, plus the ids removed since then. Applying the
// result on top of the client's last-known set reconstructs the full set.
func (s *Serializer) EncodeDelta(world *sim.World, tick uint64, economy map[sim.PlayerID]sim.PlayerEconomy, effects sim.TickEffects) *StateMessage {
	s.resetPools()
	s.sequence++

	msg := s.baseMessage(world, tick, economy, effects)

	next := make(map[sim.EntityID]fingerprint, world.Len())
	changed := s.entities.takeSlice(len(world.Units()) + len(world.Buildings()))[:0]
	for _, unit := range world.Units() {
		snap, fp := s.snapshotUnit(unit)
		if prev, ok := s.last[unit.ID]; !ok || prev != fp {
			changed = append(changed, EntitySnapshot{Kind: string(sim.KindUnit), Unit: snap})
		}
		next[unit.ID] = fp
	}
	for _, b := range world.Buildings() {
		snap, fp := s.snapshotBuilding(b)
		if prev, ok := s.last[b.ID]; !ok || prev != fp {
			changed = append(changed, EntitySnapshot{Kind: string(sim.KindBuilding), Building: snap})
		}
		next[b.ID] = fp
	}
	msg.ChangedEntities = changed

	var removed []sim.EntityID
	for id := range s.last {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	msg.RemovedIDs = removed

	s.last = next
	return msg
}

func (s *Serializer) resetPools() {
	s.units.reset()
	s.buildings.reset()
	s.entities.reset()
	s.weapons.reset()
	s.actions.reset()
}

func (s *Serializer) baseMessage(world *sim.World, tick uint64, economy map[sim.PlayerID]sim.PlayerEconomy, effects sim.TickEffects) *StateMessage {
	msg := &StateMessage{
		Ver:      ProtocolVersion,
		Type:     TypeState,
		Tick:     tick,
		Sequence: s.sequence,
	}

	if len(economy) > 0 {
		msg.Economy = make(map[sim.PlayerID]EconomySnapshot, len(economy))
		for id, p := range economy {
			msg.Economy[id] = EconomySnapshot{
				Stockpile:    p.Stockpile,
				MaxStockpile: p.MaxStockpile,
				BaseIncome:   p.BaseIncome,
				Production:   p.Production,
				Expenditure:  p.Expenditure,
			}
		}
	}

	for _, spray := range effects.SprayTargets {
		msg.SprayTargets = append(msg.SprayTargets, SprayTargetWire{X: spray.X, Y: spray.Y})
	}
	for _, audio := range effects.AudioEvents {
		msg.AudioEvents = append(msg.AudioEvents, AudioEventWire{
			Cue: string(audio.Cue), X: audio.X, Y: audio.Y, Continuous: audio.Continuous,
		})
	}
	for _, spawn := range effects.ProjectileSpawns {
		msg.ProjectileSpawns = append(msg.ProjectileSpawns, ProjectileSpawnWire{
			ID: spawn.ID, Owner: spawn.Owner, SourceID: spawn.SourceID,
			WeaponID: spawn.WeaponID, Kind: string(spawn.Kind),
			X: spawn.X, Y: spawn.Y, VelX: spawn.VelX, VelY: spawn.VelY,
		})
	}
	for _, despawn := range effects.ProjectileDespawns {
		msg.ProjectileDespawns = append(msg.ProjectileDespawns, ProjectileDespawnWire{ID: despawn.ID})
	}
	for _, update := range effects.VelocityUpdates {
		msg.ProjectileVelocityUpdates = append(msg.ProjectileVelocityUpdates, ProjectileVelocityWire{
			ID: update.ID, X: update.X, Y: update.Y, VelX: update.VelX, VelY: update.VelY,
		})
	}
	if s.correctionInterval > 0 && s.sequence%s.correctionInterval == 0 {
		for _, proj := range world.Projectiles() {
			pc := proj.Projectile
			if pc.Kind != sim.ProjectileTraveling {
				continue
			}
			msg.ProjectileVelocityUpdates = append(msg.ProjectileVelocityUpdates, ProjectileVelocityWire{
				ID: proj.ID, X: proj.X, Y: proj.Y, VelX: pc.VelX, VelY: pc.VelY,
			})
		}
	}
	if effects.GameOver != nil {
		msg.GameOver = &GameOverWire{
			WinnerID: effects.GameOver.WinnerID,
			Reason:   effects.GameOver.Reason,
		}
	}
	return msg
}

func (s *Serializer) snapshotUnit(unit *sim.Entity) (*UnitSnapshot, fingerprint) {
	uc := unit.Unit
	snap := s.units.take()
	snap.ID = unit.ID
	snap.Owner = unit.Owner
	snap.TypeID = uc.TypeID
	snap.X = unit.X
	snap.Y = unit.Y
	snap.Rotation = unit.Rotation
	snap.VelX = uc.VelX
	snap.VelY = uc.VelY
	snap.HP = uc.HP
	snap.MaxHP = uc.MaxHP
	snap.Radius = uc.Radius

	turretSum := 0.0
	var targetHash uint64
	if len(unit.Weapons) > 0 {
		weapons := s.weapons.takeSlice(len(unit.Weapons))
		for i := range unit.Weapons {
			w := &unit.Weapons[i]
			weapons[i] = WeaponSnapshot{
				ConfigID:    w.ConfigID,
				TurretAngle: w.TurretAngle,
				TargetID:    w.TargetID,
			}
			turretSum += w.TurretAngle
			targetHash = mixHash(targetHash, uint64(w.TargetID))
		}
		snap.Weapons = weapons
	}
	var actionHash uint64
	if len(uc.Actions) > 0 {
		actions := s.actions.takeSlice(len(uc.Actions))
		for i, a := range uc.Actions {
			actions[i] = WaypointSnapshot{Type: string(a.Type), X: a.TargetX, Y: a.TargetY}
			for _, c := range string(a.Type) {
				actionHash = mixHash(actionHash, uint64(c))
			}
			actionHash = mixFloat(actionHash, a.TargetX)
			actionHash = mixFloat(actionHash, a.TargetY)
		}
		snap.Actions = actions
	}

	fp := fingerprint{
		x: quantize(unit.X), y: quantize(unit.Y), rotation: quantize(unit.Rotation),
		velX: quantize(uc.VelX), velY: quantize(uc.VelY),
		hp:         uc.HP,
		queueLen:   len(uc.Actions),
		turretSum:  quantize(turretSum),
		actionHash: actionHash,
		targetHash: targetHash,
	}
	return snap, fp
}

func (s *Serializer) snapshotBuilding(b *sim.Entity) (*BuildingSnapshot, fingerprint) {
	bc := b.Building
	snap := s.buildings.take()
	snap.ID = b.ID
	snap.Owner = b.Owner
	snap.TypeID = bc.TypeID
	snap.X = b.X
	snap.Y = b.Y
	snap.Width = bc.Width
	snap.Height = bc.Height
	snap.HP = bc.HP
	snap.MaxHP = bc.MaxHP

	fp := fingerprint{x: quantize(b.X), y: quantize(b.Y), hp: bc.HP}
	if b.Buildable != nil {
		snap.Progress = b.Buildable.Progress
		snap.Complete = b.Buildable.Complete
		snap.Ghost = b.Buildable.Ghost
		fp.progress = b.Buildable.Progress
	} else {
		snap.Progress = 1
		snap.Complete = true
		fp.progress = 1
	}
	if b.Factory != nil {
		snap.Factory = true
		snap.Queue = append([]string(nil), b.Factory.Queue...)
		snap.QueueProgress = b.Factory.Progress
		snap.RallyX = b.Factory.RallyX
		snap.RallyY = b.Factory.RallyY
		fp.queueLen = len(b.Factory.Queue)
		fp.queueProgress = quantize(b.Factory.Progress)
		fp.rallyX = b.Factory.RallyX
		fp.rallyY = b.Factory.RallyY
	}
	return snap, fp
}

// quantize rounds replicated floats so sub-visible jitter does not force an
// entity into every delta.
func quantize(v float64) float64 {
	return math.Round(v*100) / 100
}
