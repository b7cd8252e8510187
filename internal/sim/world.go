package sim

import (
	"math"
	"math/rand"
	"sort"
)

// Rect bounds the playable area; projectiles leaving it expire.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// World owns the authoritative entity map. All mutation goes through Add and
// Remove so the typed-partition caches can be invalidated; queries rebuild
// lazily on the next read. Callers must not retain returned cache slices
// across any mutation.
type World struct {
	entities map[EntityID]*Entity
	nextID   EntityID

	players       []PlayerID
	totalHeadroom int

	bounds Rect
	rng    *rand.Rand

	dirty            bool
	cacheUnits       []*Entity
	cacheBuildings   []*Entity
	cacheProjectiles []*Entity
	cacheByPlayer    map[PlayerID][]*Entity
	cacheCommanders  map[PlayerID]*Entity
}

// WorldConfig tunes world-level limits.
type WorldConfig struct {
	Bounds Rect
	// TotalUnitCap is divided across active players.
	TotalUnitCap int
	Seed         int64
}

func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Bounds:       Rect{MinX: 0, MinY: 0, MaxX: 3200, MaxY: 3200},
		TotalUnitCap: 200,
		Seed:         1,
	}
}

func NewWorld(cfg WorldConfig) *World {
	cap := cfg.TotalUnitCap
	if cap <= 0 {
		cap = 200
	}
	return &World{
		entities:      make(map[EntityID]*Entity),
		totalHeadroom: cap,
		bounds:        cfg.Bounds,
		rng:           rand.New(rand.NewSource(cfg.Seed)),
		dirty:         true,
	}
}

// AddPlayer registers a participant. The per-player cap shrinks as players
// join because the total cap is divided across them.
func (w *World) AddPlayer(id PlayerID) {
	for _, existing := range w.players {
		if existing == id {
			return
		}
	}
	w.players = append(w.players, id)
}

// RemovePlayer unregisters a participant and removes every entity they own.
func (w *World) RemovePlayer(id PlayerID) []EntityID {
	idx := -1
	for i, existing := range w.players {
		if existing == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	w.players = append(w.players[:idx], w.players[idx+1:]...)
	var removed []EntityID
	for eid, e := range w.entities {
		if e.Owner == id {
			removed = append(removed, eid)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	for _, eid := range removed {
		w.Remove(eid)
	}
	return removed
}

// Players returns the active participant ids.
func (w *World) Players() []PlayerID {
	out := make([]PlayerID, len(w.players))
	copy(out, w.players)
	return out
}

// Bounds returns the playable area.
func (w *World) Bounds() Rect { return w.bounds }

// RNG exposes the world's deterministic random source.
func (w *World) RNG() *rand.Rand { return w.rng }

// IssueID returns the next monotonically increasing entity id.
func (w *World) IssueID() EntityID {
	w.nextID++
	return w.nextID
}

// Add stores an entity, assigning an id when none is set.
func (w *World) Add(e *Entity) *Entity {
	if e.ID == 0 {
		e.ID = w.IssueID()
	}
	w.entities[e.ID] = e
	w.dirty = true
	return e
}

// Remove deletes an entity by id; unknown ids are a no-op.
func (w *World) Remove(id EntityID) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	delete(w.entities, id)
	w.dirty = true
}

// Get returns the entity for id, or nil.
func (w *World) Get(id EntityID) *Entity {
	return w.entities[id]
}

// Len reports the total entity count.
func (w *World) Len() int { return len(w.entities) }

func (w *World) rebuildCaches() {
	if !w.dirty {
		return
	}
	w.cacheUnits = w.cacheUnits[:0]
	w.cacheBuildings = w.cacheBuildings[:0]
	w.cacheProjectiles = w.cacheProjectiles[:0]
	w.cacheByPlayer = make(map[PlayerID][]*Entity)
	w.cacheCommanders = make(map[PlayerID]*Entity)

	ids := make([]EntityID, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		e := w.entities[id]
		switch e.Kind {
		case KindUnit:
			w.cacheUnits = append(w.cacheUnits, e)
			if e.Builder != nil && e.Builder.Commander {
				w.cacheCommanders[e.Owner] = e
			}
		case KindBuilding:
			w.cacheBuildings = append(w.cacheBuildings, e)
		case KindProjectile:
			w.cacheProjectiles = append(w.cacheProjectiles, e)
		}
		if e.Owner != "" && e.Kind != KindProjectile {
			w.cacheByPlayer[e.Owner] = append(w.cacheByPlayer[e.Owner], e)
		}
	}
	w.dirty = false
}

// Units returns all live units in id order. The slice aliases the cache.
func (w *World) Units() []*Entity {
	w.rebuildCaches()
	return w.cacheUnits
}

// Buildings returns all buildings in id order. The slice aliases the cache.
func (w *World) Buildings() []*Entity {
	w.rebuildCaches()
	return w.cacheBuildings
}

// Projectiles returns all projectiles in id order. The slice aliases the cache.
func (w *World) Projectiles() []*Entity {
	w.rebuildCaches()
	return w.cacheProjectiles
}

// ByPlayer returns the units and buildings owned by a player, in id order.
func (w *World) ByPlayer(id PlayerID) []*Entity {
	w.rebuildCaches()
	return w.cacheByPlayer[id]
}

// UnitsByPlayer returns only the units owned by a player.
func (w *World) UnitsByPlayer(id PlayerID) []*Entity {
	w.rebuildCaches()
	owned := w.cacheByPlayer[id]
	units := make([]*Entity, 0, len(owned))
	for _, e := range owned {
		if e.Kind == KindUnit {
			units = append(units, e)
		}
	}
	return units
}

// EnemyTargets returns every hittable unit or building not owned by the
// player, in id order.
func (w *World) EnemyTargets(id PlayerID) []*Entity {
	w.rebuildCaches()
	out := make([]*Entity, 0, len(w.cacheUnits)+len(w.cacheBuildings))
	for _, e := range w.cacheUnits {
		if e.Owner != id && e.Hittable() {
			out = append(out, e)
		}
	}
	for _, e := range w.cacheBuildings {
		if e.Owner != id && e.Hittable() {
			out = append(out, e)
		}
	}
	return out
}

// Commander returns the player's commander unit, or nil once it has died.
func (w *World) Commander(id PlayerID) *Entity {
	w.rebuildCaches()
	return w.cacheCommanders[id]
}

// UnitCap returns the per-player unit ceiling: the total cap divided by the
// active player count.
func (w *World) UnitCap() int {
	n := len(w.players)
	if n == 0 {
		n = 1
	}
	return w.totalHeadroom / n
}

// UnitCount reports how many units a player currently fields.
func (w *World) UnitCount(id PlayerID) int {
	return len(w.UnitsByPlayer(id))
}

// RemainingCapacity reports how many more units a player may field.
func (w *World) RemainingCapacity(id PlayerID) int {
	remaining := w.UnitCap() - w.UnitCount(id)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasCapacity reports whether a player may field one more unit.
func (w *World) HasCapacity(id PlayerID) bool {
	return w.RemainingCapacity(id) > 0
}

// SpawnUnit materializes a unit of the given type at a position, wiring its
// weapon states from the registry.
func (w *World) SpawnUnit(reg *Registry, owner PlayerID, typeID string, x, y float64) *Entity {
	cfg := reg.MustUnit(typeID)
	unit := &Entity{
		Kind:       KindUnit,
		Transform:  Transform{X: x, Y: y},
		Owner:      owner,
		Selectable: true,
		Unit: &UnitComponent{
			TypeID:      typeID,
			HP:          cfg.MaxHP,
			MaxHP:       cfg.MaxHP,
			Radius:      cfg.Radius,
			MoveSpeed:   cfg.MoveSpeed,
			Mass:        cfg.Mass,
			PatrolStart: -1,
		},
	}
	if cfg.Builder {
		unit.Builder = &BuilderComponent{
			BuildRange: cfg.BuildRange,
			BuildRate:  cfg.BuildRate,
			Commander:  cfg.Commander,
		}
	}
	for _, wid := range cfg.WeaponIDs {
		wcfg := reg.MustWeapon(wid)
		unit.Weapons = append(unit.Weapons, WeaponState{
			ConfigID: wid,
			Config:   wcfg,
			Phase:    WeaponIdle,
		})
	}
	return w.Add(unit)
}

// SpawnBuilding materializes a structure; ghost construction sites start at
// zero progress and are not hittable until placed for real.
func (w *World) SpawnBuilding(reg *Registry, owner PlayerID, typeID string, x, y float64, complete bool) *Entity {
	cfg := reg.MustBuilding(typeID)
	hp := cfg.MaxHP
	if !complete {
		// Under-construction structures start at a sliver of hp and gain the
		// rest as progress accumulates.
		hp = cfg.MaxHP * 0.05
	}
	b := &Entity{
		Kind:       KindBuilding,
		Transform:  Transform{X: x, Y: y},
		Owner:      owner,
		Selectable: true,
		Building: &BuildingComponent{
			TypeID: typeID,
			Width:  cfg.Width,
			Height: cfg.Height,
			HP:     hp,
			MaxHP:  cfg.MaxHP,
		},
	}
	if !complete {
		b.Buildable = &BuildableComponent{
			EnergyCost:   cfg.EnergyCost,
			MaxBuildRate: cfg.MaxBuildRate,
		}
	}
	if cfg.Factory {
		b.Factory = &FactoryComponent{
			RallyX: x,
			RallyY: y + cfg.Height,
		}
	}
	return w.Add(b)
}

// Distance returns the euclidean distance between two entities.
func Distance(a, b *Entity) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
