package sim

// BuildGridCell is the placement pitch for startBuild commands; grid
// coordinates arrive in cells and convert to world centers.
const BuildGridCell = 32.0

// GridToWorld converts a build-grid coordinate to the cell center.
func GridToWorld(gx, gy int) (float64, float64) {
	return float64(gx)*BuildGridCell + BuildGridCell/2, float64(gy)*BuildGridCell + BuildGridCell/2
}

// CanPlace validates a building footprint against world bounds and existing
// structures. Ghost previews do not block placement.
func CanPlace(w *World, reg *Registry, typeID string, gx, gy int) bool {
	cfg, ok := reg.Building(typeID)
	if !ok {
		return false
	}
	x, y := GridToWorld(gx, gy)
	halfW, halfH := cfg.Width/2, cfg.Height/2
	bounds := w.Bounds()
	if x-halfW < bounds.MinX || x+halfW > bounds.MaxX || y-halfH < bounds.MinY || y+halfH > bounds.MaxY {
		return false
	}
	for _, b := range w.Buildings() {
		if b.Buildable != nil && b.Buildable.Ghost {
			continue
		}
		bc := b.Building
		if overlaps(x, y, halfW, halfH, b.X, b.Y, bc.Width/2, bc.Height/2) {
			return false
		}
	}
	return true
}

func overlaps(ax, ay, ahw, ahh, bx, by, bhw, bhh float64) bool {
	return ax-ahw < bx+bhw && ax+ahw > bx-bhw && ay-ahh < by+bhh && ay+ahh > by-bhh
}

// updateConstruction advances every incomplete site by the energy its
// assigned builders can deliver this tick. Progress gained is energy spent
// over total cost; the tick's energy request is capped by the site's own
// maximum absorption rate, and whatever the stockpile actually grants scales
// the gain down further.
func updateConstruction(w *World, economy *Economy, dt float64) TickEffects {
	var effects TickEffects
	for _, site := range w.Buildings() {
		buildable := site.Buildable
		if buildable == nil || buildable.Complete || buildable.Ghost {
			continue
		}

		rate := assignedBuildRate(w, site)
		if rate <= 0 {
			continue
		}
		if buildable.MaxBuildRate > 0 && rate > buildable.MaxBuildRate {
			rate = buildable.MaxBuildRate
		}

		requested := rate * dt
		if remaining := (1 - buildable.Progress) * buildable.EnergyCost; requested > remaining {
			requested = remaining
		}
		granted := economy.TrySpendEnergy(site.Owner, requested)
		if granted <= 0 {
			continue
		}
		gained := granted / buildable.EnergyCost
		buildable.Progress += gained
		// HP rises with progress so a half-built site is half-killable.
		site.Building.HP = clamp(site.Building.HP+gained*site.Building.MaxHP, 0, site.Building.MaxHP)

		if buildable.Progress >= 1 {
			buildable.Progress = 1
			buildable.Complete = true
			site.Building.HP = site.Building.MaxHP
			effects.AudioEvents = append(effects.AudioEvents,
				AudioEvent{Cue: AudioBuildDone, X: site.X, Y: site.Y})
			releaseBuilders(w, site.ID)
		}
	}
	return effects
}

// assignedBuildRate sums the build rate of every builder currently targeting
// the site and standing inside its build range.
func assignedBuildRate(w *World, site *Entity) float64 {
	total := 0.0
	for _, unit := range w.UnitsByPlayer(site.Owner) {
		builder := unit.Builder
		if builder == nil || builder.BuildTarget != site.ID {
			continue
		}
		if Distance(unit, site) <= builder.BuildRange+site.CollisionRadius() {
			total += builder.BuildRate
		}
	}
	return total
}

func releaseBuilders(w *World, siteID EntityID) {
	for _, unit := range w.Units() {
		if unit.Builder != nil && unit.Builder.BuildTarget == siteID {
			unit.Builder.BuildTarget = 0
		}
	}
}
