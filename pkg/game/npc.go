package game

import (
	"fmt"
	"time"

	"starhold/pkg/core"
	"starhold/pkg/types"
)

// spendEntry is one slot in a personality's shopping list.
type spendEntry struct {
	kind string // building / research / ship / defense
	id   string
}

var economicPriorities = []spendEntry{
	{"building", "metal_mine"},
	{"building", "solar_plant"},
	{"building", "crystal_mine"},
	{"building", "deuterium_synthesizer"},
	{"building", "metal_storage"},
	{"building", "crystal_storage"},
	{"building", "research_lab"},
	{"research", "energy_tech"},
	{"building", "robot_factory"},
	{"building", "shipyard"},
	{"defense", "rocket_launcher"},
	{"ship", "small_cargo"},
}

var aggressivePriorities = []spendEntry{
	{"building", "metal_mine"},
	{"building", "solar_plant"},
	{"building", "robot_factory"},
	{"building", "shipyard"},
	{"ship", "light_fighter"},
	{"defense", "rocket_launcher"},
	{"building", "crystal_mine"},
	{"research", "weapons_tech"},
	{"ship", "cruiser"},
	{"defense", "heavy_laser"},
	{"ship", "battleship"},
	{"building", "deuterium_synthesizer"},
}

var balancedPriorities = []spendEntry{
	{"building", "metal_mine"},
	{"building", "solar_plant"},
	{"building", "crystal_mine"},
	{"building", "shipyard"},
	{"defense", "rocket_launcher"},
	{"ship", "light_fighter"},
	{"building", "research_lab"},
	{"research", "armour_tech"},
	{"building", "deuterium_synthesizer"},
	{"defense", "heavy_laser"},
	{"ship", "heavy_fighter"},
	{"building", "robot_factory"},
}

// threatenedPriorities override everything when hostile fleets are inbound:
// top-tier defense and warships first.
var threatenedPriorities = []spendEntry{
	{"defense", "plasma_turret"},
	{"ship", "battleship"},
	{"defense", "ion_cannon"},
	{"defense", "heavy_laser"},
	{"ship", "cruiser"},
	{"defense", "rocket_launcher"},
	{"ship", "light_fighter"},
}

func prioritiesFor(personality types.Personality) []spendEntry {
	switch personality {
	case types.PersonalityEconomic:
		return economicPriorities
	case types.PersonalityAggressive:
		return aggressivePriorities
	default:
		return balancedPriorities
	}
}

// RunPopulation executes the five population sub-steps on their own
// cadences. Threat wake runs on every call.
func (e *Engine) RunPopulation(p *types.PlayerRecord, w *types.WorldRecord, now time.Time) {
	e.wakeThreatened(p, w, now)

	if now.Sub(w.LastNPCCheck) >= npcEvolveInterval {
		for _, npc := range w.NPCs {
			e.evolveNPC(p, w, npc, now)
		}
		e.hibernateIdle(w, now)
		w.LastNPCCheck = now
	}
	if now.Sub(w.LastSleeper) >= sleeperInterval {
		e.accrueSleepers(w, now)
		w.LastSleeper = now
	}
	if now.Sub(w.LastPurge) >= purgeInterval {
		e.purgeAndRespawn(p, w, now)
		w.LastPurge = now
	}
}

// wakeThreatened regenerates any sleeper that is the target of an
// unprocessed hostile or espionage mission, so it can defend itself.
func (e *Engine) wakeThreatened(p *types.PlayerRecord, w *types.WorldRecord, now time.Time) {
	for _, m := range p.Missions {
		if m.Processed || m.Recalled {
			continue
		}
		if m.Kind != types.MissionAttack && m.Kind != types.MissionSpy {
			continue
		}
		if sleeper, ok := w.Sleepers[m.Target]; ok {
			e.RegenerateSleeper(w, sleeper, now)
		}
	}
}

func npcUnderThreat(p *types.PlayerRecord, coord types.Coord) bool {
	for _, m := range p.Missions {
		if m.Kind == types.MissionAttack && !m.Processed && !m.Recalled && m.Target == coord {
			return true
		}
	}
	return false
}

func npcProductionRates(npc *types.NPCState) types.Resources {
	return productionRates(prodEnv{
		buildings:  npc.Buildings,
		satellites: npc.Fleet["solar_satellite"],
		active:     noEvents,
		home:       true,
	})
}

// evolveNPC accrues production since the last update, then runs the greedy
// spend loop down the personality's priority list.
func (e *Engine) evolveNPC(p *types.PlayerRecord, w *types.WorldRecord, npc *types.NPCState, now time.Time) {
	hours := now.Sub(npc.LastUpdate).Hours()
	if hours < 0 {
		hours = 0
	}
	rate := npcProductionRates(npc)
	npc.Resources.Add(rate.Scale(hours * npc.DevSpeed))
	if npc.Resources.Metal < 0 {
		npc.Resources.Metal = 0
	}
	if npc.Resources.Crystal < 0 {
		npc.Resources.Crystal = 0
	}
	if npc.Resources.Deuterium < 0 {
		npc.Resources.Deuterium = 0
	}
	npc.LastUpdate = now

	priorities := prioritiesFor(npc.Personality)
	if npcUnderThreat(p, npc.Coord) {
		priorities = threatenedPriorities
	}
	for attempt := 0; attempt < npcSpendAttempts; attempt++ {
		if !e.npcBuyFirstAffordable(npc, priorities) {
			break
		}
	}

	e.maybeDispatch(p, w, npc, now)
}

// npcBuyFirstAffordable walks the list and buys the first entry whose cost
// fits and whose requirements are met. Returns false when nothing fit.
func (e *Engine) npcBuyFirstAffordable(npc *types.NPCState, priorities []spendEntry) bool {
	for _, entry := range priorities {
		switch entry.kind {
		case "building":
			spec := Buildings[entry.id]
			if !npcMeets(npc, spec.Requires) {
				continue
			}
			cost := BuildingCost(entry.id, npc.Buildings[entry.id]+1)
			if npc.Resources.CanAfford(cost) {
				npc.Resources.Spend(cost)
				npc.Buildings[entry.id]++
				return true
			}
		case "research":
			if npc.Buildings["research_lab"] < 1 {
				continue
			}
			cost := ResearchCost(entry.id, npc.Research[entry.id]+1)
			if npc.Resources.CanAfford(cost) {
				npc.Resources.Spend(cost)
				npc.Research[entry.id]++
				return true
			}
		case "ship":
			spec := Ships[entry.id]
			if !npcMeets(npc, spec.Requires) {
				continue
			}
			if npc.Resources.CanAfford(spec.Cost) {
				npc.Resources.Spend(spec.Cost)
				npc.Fleet[entry.id]++
				return true
			}
		case "defense":
			spec := Defenses[entry.id]
			if !npcMeets(npc, spec.Requires) {
				continue
			}
			if npc.Resources.CanAfford(spec.Cost) {
				npc.Resources.Spend(spec.Cost)
				npc.Defenses[entry.id]++
				return true
			}
		}
	}
	return false
}

func npcMeets(npc *types.NPCState, req map[string]int) bool {
	for id, lvl := range req {
		if npc.Buildings[id] < lvl {
			return false
		}
	}
	return true
}

var npcCombatShips = []string{"light_fighter", "heavy_fighter", "cruiser", "battleship"}

const npcDispatchPowerFloor = 5000

// maybeDispatch lets a strong aggressive NPC raid or probe the player.
func (e *Engine) maybeDispatch(p *types.PlayerRecord, w *types.WorldRecord, npc *types.NPCState, now time.Time) {
	if npc.Personality != types.PersonalityAggressive {
		return
	}
	if fleetAttackPower(npc.Fleet, npc.Research) < npcDispatchPowerFloor {
		return
	}

	if e.Rand.Float64() < 0.15 {
		raid := make(map[string]int)
		for _, id := range npcCombatShips {
			if half := npc.Fleet[id] / 2; half > 0 {
				raid[id] = half
			}
		}
		// Raids only launch when the cheap estimate says the half-fleet
		// wins against the player's home garrison.
		home := p.Home()
		if len(raid) > 0 && home != nil &&
			estimateVictory(fleetAttackPower(raid, npc.Research), fleetDurability(home.Fleet, home.Defenses, p.Research)) {
			for id, n := range raid {
				npc.Fleet[id] -= n
			}
			e.launchNPCMission(w, npc, types.MissionAttack, p.HomeCoord, raid, now)
		}
	}
	if npc.Fleet["espionage_probe"] > 0 && e.Rand.Float64() < 0.10 {
		npc.Fleet["espionage_probe"]--
		e.launchNPCMission(w, npc, types.MissionSpy, p.HomeCoord,
			map[string]int{"espionage_probe": 1}, now)
	}
}

func (e *Engine) launchNPCMission(w *types.WorldRecord, npc *types.NPCState, kind types.MissionKind, target types.Coord, ships map[string]int, now time.Time) {
	dist, err := distance(npc.Coord, target)
	if err != nil {
		e.warnf("npc %s: bad coordinates %s -> %s", npc.Name, npc.Coord, target)
		return
	}
	speed := fleetSpeed(ships)
	if speed <= 0 {
		return
	}
	travel := travelTime(dist, speed)
	w.NPCMissions = append(w.NPCMissions, &types.FleetMission{
		ID:      fmt.Sprintf("npc-%s-%d", npc.Coord, now.UnixNano()),
		Owner:   "npc:" + string(npc.Coord),
		Origin:  npc.Coord,
		Target:  target,
		Kind:    kind,
		Ships:   ships,
		Send:    now,
		Arrival: now.Add(travel),
		Return:  now.Add(2 * travel),
	})
}

// hibernateIdle converts long-idle NPCs to point-valued sleepers once the
// active population is over the soft cap.
func (e *Engine) hibernateIdle(w *types.WorldRecord, now time.Time) {
	if len(w.NPCs) <= npcActiveSoftCap {
		return
	}
	for coord, npc := range w.NPCs {
		if now.Sub(npc.LastUpdate) < hibernateAfter {
			continue
		}
		w.Sleepers[coord] = &types.SleeperNPC{
			Coord:       coord,
			Name:        npc.Name,
			Image:       starImage(w.Seed, coord),
			Personality: npc.Personality,
			DevSpeed:    npc.DevSpeed,
			Points:      npcPoints(npc),
			Resources:   npc.Resources,
			LastUpdate:  now,
		}
		delete(w.NPCs, coord)
		if len(w.NPCs) <= npcActiveSoftCap {
			return
		}
	}
}

// sleeperPointsPerHour approximates unseen growth without structural
// simulation.
const sleeperPointsPerHour = 50

func (e *Engine) accrueSleepers(w *types.WorldRecord, now time.Time) {
	for _, s := range w.Sleepers {
		hours := now.Sub(s.LastUpdate).Hours()
		if hours <= 0 {
			continue
		}
		s.Points += hours * sleeperPointsPerHour * s.DevSpeed
		s.LastUpdate = now
	}
}

// purgeAndRespawn deletes sleepers idle past the long threshold and tops the
// population back up toward the target.
func (e *Engine) purgeAndRespawn(p *types.PlayerRecord, w *types.WorldRecord, now time.Time) {
	for coord, s := range w.Sleepers {
		if now.Sub(s.LastUpdate) >= purgeSleepersAfter {
			delete(w.Sleepers, coord)
		}
	}

	spawned := 0
	for len(w.NPCs)+len(w.Sleepers) < npcPopulationTarget && spawned < npcRespawnPerCycle {
		coord, ok := e.pickSpawnCoord(p, w)
		if !ok {
			break
		}
		w.NPCs[coord] = e.newNPC(w.Seed, coord, now)
		spawned++
	}
}

// pickSpawnCoord samples random coordinates until it finds an unoccupied
// sector the galaxy math says holds a system.
func (e *Engine) pickSpawnCoord(p *types.PlayerRecord, w *types.WorldRecord) (types.Coord, bool) {
	for attempt := 0; attempt < 64; attempt++ {
		coord := types.Coord(fmt.Sprintf("%d:%d:%d",
			1+e.Rand.Intn(9), 1+e.Rand.Intn(499), 1+e.Rand.Intn(15)))
		if _, ok := w.NPCs[coord]; ok {
			continue
		}
		if _, ok := w.Sleepers[coord]; ok {
			continue
		}
		if _, ok := p.Colonies[coord]; ok {
			continue
		}
		if _, ok := w.Claims[coord]; ok {
			continue
		}
		if !SectorData(w.Seed, coord).HasSystem {
			continue
		}
		return coord, true
	}
	return "", false
}

var npcNameStems = []string{"Korrath", "Veyra", "Ashkan", "Drellix", "Mordun", "Sylvex", "Tharok", "Ilyen"}

// newNPC derives everything about a faction from the sector digest, so the
// same coordinates always breed the same neighbor.
func (e *Engine) newNPC(worldSeed string, coord types.Coord, now time.Time) *types.NPCState {
	h := core.SeedBytes(worldSeed, "npc-"+string(coord))

	personality := types.PersonalityBalanced
	switch h[4] % 3 {
	case 0:
		personality = types.PersonalityEconomic
	case 1:
		personality = types.PersonalityAggressive
	}
	devSpeed := 0.5 + 1.5*float64(h[5])/255.0

	return &types.NPCState{
		Coord:       coord,
		Name:        fmt.Sprintf("%s-%02x", npcNameStems[int(h[6])%len(npcNameStems)], h[7]),
		Personality: personality,
		DevSpeed:    devSpeed,
		Resources:   types.Resources{Metal: 2000 * devSpeed, Crystal: 1000 * devSpeed, Deuterium: 200 * devSpeed},
		Buildings:   map[string]int{"metal_mine": 2, "solar_plant": 2},
		Research:    make(map[string]int),
		Fleet:       make(map[string]int),
		Defenses:    make(map[string]int),
		LastUpdate:  now,
	}
}

func starImage(worldSeed string, coord types.Coord) string {
	return fmt.Sprintf("star_%s.png", SectorData(worldSeed, coord).StarType)
}
