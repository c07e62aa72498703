package game

import (
	"math"
	"time"

	"starhold/pkg/types"
)

// Hourly stipend wired to every non-home colony; outposts are assumed to run
// small unmodelled surface operations.
const (
	stipendMetal     = 50
	stipendCrystal   = 25
	stipendDeuterium = 10
	deutSpecFactor   = 3
)

// prodEnv is the slice of state production actually reads, so the same math
// serves player colonies and NPC worlds.
type prodEnv struct {
	buildings  map[string]int
	satellites int
	active     func(types.EventKind) bool
	home       bool
	spec       string
}

func noEvents(types.EventKind) bool { return false }

func mineOutput(base float64, level int) float64 {
	return base * float64(level) * math.Pow(1.1, float64(level))
}

// EnergyBalance returns produced and consumed energy per hour before the
// flare multiplier.
func energyBalance(env prodEnv) (produced, consumed float64) {
	solar := mineOutput(20, env.buildings["solar_plant"])
	if env.active(types.EventStellarAurora) {
		solar *= 1.30
	}
	fusion := 30 * float64(env.buildings["fusion_reactor"]) * math.Pow(1.05, float64(env.buildings["fusion_reactor"]))
	produced = solar + fusion + 25*float64(env.satellites)
	if env.active(types.EventSolarFlare) {
		produced *= 1.5
	}

	consumed = mineOutput(10, env.buildings["metal_mine"]) +
		mineOutput(10, env.buildings["crystal_mine"]) +
		mineOutput(20, env.buildings["deuterium_synthesizer"])
	return produced, consumed
}

// productionRates computes per-resource hourly rates. Pure: no clock, no dice.
func productionRates(env prodEnv) types.Resources {
	produced, consumed := energyBalance(env)

	efficiency := 1.0
	if consumed > 0 {
		if produced <= 0 {
			efficiency = 0
		} else {
			efficiency = math.Min(1, produced/consumed)
		}
	}

	rate := types.Resources{
		Metal:     mineOutput(30, env.buildings["metal_mine"]) * efficiency,
		Crystal:   mineOutput(20, env.buildings["crystal_mine"]) * efficiency,
		Deuterium: mineOutput(10, env.buildings["deuterium_synthesizer"]) * efficiency,
		Energy:    produced - consumed,
	}

	boost := 1.0
	if env.active(types.EventResourceVein) {
		boost *= 1.30
	}
	if env.active(types.EventGoldRush) {
		boost *= 1.2
	}
	rate.Metal *= boost
	rate.Crystal *= boost
	rate.Deuterium *= boost

	// Fusion reactors burn deuterium whether or not the mines run.
	rate.Deuterium -= mineOutput(10, env.buildings["fusion_reactor"])

	if !env.home {
		rate.Metal += stipendMetal
		rate.Crystal += stipendCrystal
		deut := float64(stipendDeuterium)
		if env.spec == "deuterium" {
			deut *= deutSpecFactor
		}
		rate.Deuterium += deut
	}
	return rate
}

// ProductionRates is the player-facing wrapper: transient events on the
// record modulate the colony's raw rates.
func ProductionRates(p *types.PlayerRecord, c *types.Colony, now time.Time) types.Resources {
	return productionRates(prodEnv{
		buildings:  c.Buildings,
		satellites: c.Fleet["solar_satellite"],
		active:     func(k types.EventKind) bool { return p.EventActive(k, now) },
		home:       c.Home,
		spec:       c.Specialization,
	})
}

// storageCeiling is the exponential storage curve shared by all three
// material stores.
func storageCeiling(level int) float64 {
	return 5000 * math.Floor(2.5*math.Exp(20*float64(level)/33))
}

// Capacity is per-resource and independent of production. The accumulator
// curve is halved: energy banks are smaller than material silos.
func Capacity(c *types.Colony) types.Resources {
	return types.Resources{
		Metal:     storageCeiling(c.Buildings["metal_storage"]),
		Crystal:   storageCeiling(c.Buildings["crystal_storage"]),
		Deuterium: storageCeiling(c.Buildings["deuterium_tank"]),
		Energy:    storageCeiling(c.Buildings["accumulator"]) / 2,
	}
}

// energyBankFloor: energy may run into debt up to a quarter of the bank,
// every other resource clamps at zero.
func energyBankFloor(cap float64) float64 { return -cap / 4 }

// ApplyProduction advances one colony's stockpile by elapsed seconds of
// production, clamped into [floor, capacity].
func ApplyProduction(p *types.PlayerRecord, c *types.Colony, elapsed float64, now time.Time) {
	if elapsed <= 0 {
		return
	}
	rate := ProductionRates(p, c, now)
	cap := Capacity(c)

	c.Resources.Metal = fill(c.Resources.Metal, rate.Metal/3600*elapsed, 0, cap.Metal)
	c.Resources.Crystal = fill(c.Resources.Crystal, rate.Crystal/3600*elapsed, 0, cap.Crystal)
	c.Resources.Deuterium = fill(c.Resources.Deuterium, rate.Deuterium/3600*elapsed, 0, cap.Deuterium)
	c.Resources.Energy = fill(c.Resources.Energy, rate.Energy/3600*elapsed, energyBankFloor(cap.Energy), cap.Energy)
}

// fill adds delta but never pushes the stockpile above hi or below lo. A
// stockpile already over capacity (loot docking) is kept, not confiscated.
func fill(current, delta, lo, hi float64) float64 {
	next := current + delta
	if delta > 0 && next > hi {
		if current > hi {
			return current
		}
		return hi
	}
	if next < lo {
		return lo
	}
	return next
}
