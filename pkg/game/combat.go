package game

import (
	"math"
	"sort"

	"starhold/pkg/types"
)

const maxCombatRounds = 6

// Dice is the slice of rand the combat loop needs; tests swap in a
// deterministic implementation.
type Dice interface {
	Intn(n int) int
	Float64() float64
}

// Party describes one side of an encounter. Defenses is nil for attackers.
type Party struct {
	Name     string
	Ships    map[string]int
	Defenses map[string]int
	Research map[string]int
	Upgrades map[string]int // ship retrofit levels; nil for NPCs
}

// group aggregates every unit of one type on one side. It exists only for
// the duration of a single resolution.
type group struct {
	id         string
	count      int
	attack     float64 // per unit, after bonuses
	shield     float64
	hull       float64
	shieldPool float64
	hullPool   float64
	rapid      map[string]int
}

type Result struct {
	Winner         string // "attacker", "defender", "draw"
	Rounds         int
	AttackerLosses map[string]int
	DefenderLosses map[string]int
	DefenseLosses  map[string]int
	Loot           types.Resources
	Debris         types.Debris
}

func techFactor(level int) float64 { return 1 + 0.1*float64(level) }

func buildGroups(party Party, shieldsDown bool) []*group {
	var groups []*group
	add := func(id string, count int, spec UnitSpec, isDefense bool) {
		if count <= 0 {
			return
		}
		g := &group{id: id, count: count, rapid: spec.RapidFire}
		g.attack = spec.Attack * techFactor(party.Research["weapons_tech"])
		g.shield = spec.Shield * techFactor(party.Research["shielding_tech"])
		g.hull = spec.Hull * techFactor(party.Research["armour_tech"])
		if !isDefense {
			if up := party.Upgrades[id]; up > 0 {
				g.attack *= techFactor(up)
				g.shield *= techFactor(up)
				g.hull *= techFactor(up)
			}
		}
		if shieldsDown {
			g.shield = 0
		}
		g.hullPool = g.hull * float64(g.count)
		groups = append(groups, g)
	}
	for _, id := range unitOrder(party.Ships) {
		add(id, party.Ships[id], Ships[id], false)
	}
	for _, id := range unitOrder(party.Defenses) {
		add(id, party.Defenses[id], Defenses[id], true)
	}
	return groups
}

// fire resolves one side's volley against the other's live groups. Damage
// lands in the pools; unit counts are only settled at end of round.
func fire(side, enemy []*group, dice Dice) {
	for _, g := range side {
		for i := 0; i < g.count; i++ {
			shoot(g, enemy, dice, 0)
		}
	}
}

func shoot(g *group, enemy []*group, dice Dice, depth int) {
	if len(enemy) == 0 || depth > 16 {
		return
	}
	target := enemy[dice.Intn(len(enemy))]
	dmg := g.attack
	if target.shieldPool > 0 {
		absorbed := math.Min(target.shieldPool, dmg)
		target.shieldPool -= absorbed
		dmg -= absorbed
	}
	if dmg > 0 {
		target.hullPool -= dmg
	}
	if bonus := g.rapid[target.id]; bonus > 1 {
		if dice.Float64() < float64(bonus-1)/float64(bonus) {
			shoot(g, enemy, dice, depth+1)
		}
	}
}

// settle converts hull depletion into destroyed units and drops dead groups.
func settle(groups []*group) []*group {
	live := groups[:0]
	for _, g := range groups {
		if g.hullPool <= 0 {
			g.count = 0
			continue
		}
		survivors := int(math.Ceil(g.hullPool / g.hull))
		if survivors > g.count {
			survivors = g.count
		}
		g.count = survivors
		if g.count > 0 {
			live = append(live, g)
		}
	}
	return live
}

func regenerateShields(groups []*group) {
	for _, g := range groups {
		g.shieldPool = g.shield * float64(g.count)
	}
}

// ResolveCombat runs a full encounter: up to 6 rounds, per-unit fire at a
// uniformly random enemy group, shield pools rebuilt every round from the
// surviving count.
func ResolveCombat(att, def Party, defenderStock types.Resources, shieldsDown bool, dice Dice) Result {
	attGroups := buildGroups(att, shieldsDown)
	defGroups := buildGroups(def, shieldsDown)

	startAtt := groupCounts(attGroups)
	startDef := groupCounts(defGroups)

	rounds := 0
	for rounds < maxCombatRounds && len(attGroups) > 0 && len(defGroups) > 0 {
		rounds++
		regenerateShields(attGroups)
		regenerateShields(defGroups)
		fire(attGroups, defGroups, dice)
		fire(defGroups, attGroups, dice)
		attGroups = settle(attGroups)
		defGroups = settle(defGroups)
	}

	res := Result{
		Rounds:         rounds,
		AttackerLosses: make(map[string]int),
		DefenderLosses: make(map[string]int),
		DefenseLosses:  make(map[string]int),
	}

	endAtt := groupCounts(attGroups)
	endDef := groupCounts(defGroups)

	for id, n := range startAtt {
		if lost := n - endAtt[id]; lost > 0 {
			res.AttackerLosses[id] = lost
			c := Ships[id].Cost
			res.Debris.Metal += 0.3 * c.Metal * float64(lost)
			res.Debris.Crystal += 0.3 * c.Crystal * float64(lost)
		}
	}
	for id, n := range startDef {
		lost := n - endDef[id]
		if lost <= 0 {
			continue
		}
		if _, isShip := def.Ships[id]; isShip {
			res.DefenderLosses[id] = lost
			c := Ships[id].Cost
			res.Debris.Metal += 0.3 * c.Metal * float64(lost)
			res.Debris.Crystal += 0.3 * c.Crystal * float64(lost)
		} else {
			res.DefenseLosses[id] = lost
			c := Defenses[id].Cost
			res.Debris.Metal += 0.3 * c.Metal * float64(lost)
			res.Debris.Crystal += 0.3 * c.Crystal * float64(lost)
		}
	}

	switch {
	case len(attGroups) > 0 && len(defGroups) == 0:
		res.Winner = "attacker"
	case len(defGroups) > 0 && len(attGroups) == 0:
		res.Winner = "defender"
	default:
		res.Winner = "draw"
	}

	if res.Winner == "attacker" {
		res.Loot = computeLoot(attGroups, defenderStock)
	}
	return res
}

// computeLoot takes half the defender's stockpile, capped by surviving cargo
// space, split proportionally across the three resources.
func computeLoot(attGroups []*group, stock types.Resources) types.Resources {
	capacity := 0.0
	for _, g := range attGroups {
		capacity += Ships[g.id].Cargo * float64(g.count)
	}
	half := types.Resources{Metal: stock.Metal / 2, Crystal: stock.Crystal / 2, Deuterium: stock.Deuterium / 2}
	total := half.Total()
	if total <= 0 || capacity <= 0 {
		return types.Resources{}
	}
	if total <= capacity {
		return half
	}
	f := capacity / total
	return half.Scale(f)
}

// unitOrder keeps group construction deterministic for a given dice stream.
func unitOrder(m map[string]int) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func groupCounts(groups []*group) map[string]int {
	out := make(map[string]int, len(groups))
	for _, g := range groups {
		out[g.id] = g.count
	}
	return out
}

// estimateVictory is the cheap heuristic NPC planning uses instead of a full
// resolution: total volley weight against total durability.
func estimateVictory(attack, durability float64) bool {
	return attack*float64(maxCombatRounds) > durability
}

func fleetAttackPower(fleet map[string]int, research map[string]int) float64 {
	total := 0.0
	for id, n := range fleet {
		total += Ships[id].Attack * techFactor(research["weapons_tech"]) * float64(n)
	}
	return total
}

func fleetDurability(fleet, defenses, research map[string]int) float64 {
	total := 0.0
	armour := techFactor(research["armour_tech"])
	shield := techFactor(research["shielding_tech"])
	for id, n := range fleet {
		total += (Ships[id].Hull*armour + Ships[id].Shield*shield) * float64(n)
	}
	for id, n := range defenses {
		total += (Defenses[id].Hull*armour + Defenses[id].Shield*shield) * float64(n)
	}
	return total
}
