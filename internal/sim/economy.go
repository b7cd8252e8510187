package sim

// PlayerEconomy is the per-player resource state replicated to clients.
type PlayerEconomy struct {
	Stockpile    float64
	MaxStockpile float64
	BaseIncome   float64
	Production   float64
	Expenditure  float64
}

// Economy tracks energy for every player. It is an explicit service owned by
// the engine, not process state; construct one per match.
type Economy struct {
	players map[PlayerID]*PlayerEconomy

	defaultMaxStockpile float64
	defaultBaseIncome   float64
}

// EconomyConfig seeds newly added players.
type EconomyConfig struct {
	MaxStockpile      float64
	BaseIncome        float64
	StartingStockpile float64
}

func DefaultEconomyConfig() EconomyConfig {
	return EconomyConfig{
		MaxStockpile:      1000,
		BaseIncome:        10,
		StartingStockpile: 400,
	}
}

func NewEconomy(cfg EconomyConfig) *Economy {
	return &Economy{
		players:             make(map[PlayerID]*PlayerEconomy),
		defaultMaxStockpile: cfg.MaxStockpile,
		defaultBaseIncome:   cfg.BaseIncome,
	}
}

// AddPlayer registers a player with the default stockpile. Re-adding an
// existing player is a no-op.
func (e *Economy) AddPlayer(id PlayerID, starting float64) {
	if _, ok := e.players[id]; ok {
		return
	}
	e.players[id] = &PlayerEconomy{
		Stockpile:    clamp(starting, 0, e.defaultMaxStockpile),
		MaxStockpile: e.defaultMaxStockpile,
		BaseIncome:   e.defaultBaseIncome,
	}
}

// RemovePlayer drops a departed player's resource state.
func (e *Economy) RemovePlayer(id PlayerID) {
	delete(e.players, id)
}

// Player returns the economy state for id, or nil.
func (e *Economy) Player(id PlayerID) *PlayerEconomy {
	return e.players[id]
}

// SetProduction replaces a player's structure-derived income for the tick.
func (e *Economy) SetProduction(id PlayerID, production float64) {
	if p := e.players[id]; p != nil {
		p.Production = production
	}
}

// Accrue adds one tick of income for every player, clamped to the cap, and
// resets per-tick expenditure accounting.
func (e *Economy) Accrue(dt float64) {
	for _, p := range e.players {
		p.Stockpile = clamp(p.Stockpile+(p.BaseIncome+p.Production)*dt, 0, p.MaxStockpile)
		p.Expenditure = 0
	}
}

// TrySpendEnergy debits up to amount and returns what was actually granted.
// Callers must scale their progress by the returned value; the stockpile is
// never driven negative.
func (e *Economy) TrySpendEnergy(id PlayerID, amount float64) float64 {
	p := e.players[id]
	if p == nil || amount <= 0 {
		return 0
	}
	granted := amount
	if granted > p.Stockpile {
		granted = p.Stockpile
	}
	p.Stockpile -= granted
	p.Expenditure += granted
	return granted
}

// SpendEnergyExact debits the full amount or nothing, reporting success.
// Used for instantaneous ability costs.
func (e *Economy) SpendEnergyExact(id PlayerID, amount float64) bool {
	p := e.players[id]
	if p == nil || amount < 0 {
		return false
	}
	if p.Stockpile < amount {
		return false
	}
	p.Stockpile -= amount
	p.Expenditure += amount
	return true
}

// Snapshot copies the current per-player states for replication.
func (e *Economy) Snapshot() map[PlayerID]PlayerEconomy {
	out := make(map[PlayerID]PlayerEconomy, len(e.players))
	for id, p := range e.players {
		out[id] = *p
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
