package game

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"starhold/pkg/types"
)

func parseCoord(c types.Coord) (g, s, p int, err error) {
	n, err := fmt.Sscanf(string(c), "%d:%d:%d", &g, &s, &p)
	if err != nil || n != 3 {
		return 0, 0, 0, fmt.Errorf("bad coordinate %q", c)
	}
	return g, s, p, nil
}

// distance weights galaxy jumps far above in-system hops.
func distance(a, b types.Coord) (float64, error) {
	ag, as, ap, err := parseCoord(a)
	if err != nil {
		return 0, err
	}
	bg, bs, bp, err := parseCoord(b)
	if err != nil {
		return 0, err
	}
	if a == b {
		return 5, nil
	}
	d := 20000*math.Abs(float64(ag-bg)) + 95*math.Abs(float64(as-bs)) + 5*math.Abs(float64(ap-bp))
	if d < 5 {
		d = 5
	}
	return d, nil
}

func fleetSpeed(ships map[string]int) float64 {
	slowest := math.MaxFloat64
	for id, n := range ships {
		if n <= 0 {
			continue
		}
		spec := Ships[id]
		if spec.Speed <= 0 {
			return 0
		}
		if spec.Speed < slowest {
			slowest = spec.Speed
		}
	}
	if slowest == math.MaxFloat64 {
		return 0
	}
	return slowest
}

func travelTime(dist, speed float64) time.Duration {
	secs := 10 + 3500*math.Sqrt(10*dist/speed)
	return time.Duration(secs * float64(time.Second))
}

func fuelCost(ships map[string]int, dist float64, contraband bool) float64 {
	fuel := 1.0
	for id, n := range ships {
		fuel += Ships[id].FuelRate * float64(n) * dist / 35000
	}
	if contraband {
		fuel *= 0.7
	}
	return math.Ceil(fuel)
}

func cargoCapacity(ships map[string]int) float64 {
	total := 0.0
	for id, n := range ships {
		total += Ships[id].Cargo * float64(n)
	}
	return total
}

// SendFleet deducts fuel and ships atomically before the mission is queued;
// any rejection leaves the origin untouched.
func (e *Engine) SendFleet(p *types.PlayerRecord, origin types.Coord, kind types.MissionKind, target types.Coord, ships map[string]int, now time.Time) (*types.FleetMission, error) {
	c := p.Colonies[origin]
	if c == nil {
		return nil, rejectf("no colony at %s", origin)
	}
	total := 0
	for id, n := range ships {
		if n < 0 {
			return nil, rejectf("negative ship count for %s", id)
		}
		if _, ok := Ships[id]; !ok {
			return nil, rejectf("unknown ship %q", id)
		}
		if c.Fleet[id] < n {
			return nil, rejectf("only %d %s docked at %s", c.Fleet[id], id, origin)
		}
		total += n
	}
	if total == 0 {
		return nil, rejectf("empty fleet")
	}
	speed := fleetSpeed(ships)
	if speed <= 0 {
		return nil, rejectf("fleet contains ships that cannot fly")
	}
	switch kind {
	case types.MissionColonize:
		if ships["colony_ship"] < 1 {
			return nil, rejectf("colonization requires a colony ship")
		}
	case types.MissionHarvest:
		if ships["recycler"] < 1 {
			return nil, rejectf("harvesting requires a recycler")
		}
	case types.MissionAttack, types.MissionSpy, types.MissionExpedition, types.MissionExplore:
	default:
		return nil, rejectf("unknown mission kind %q", kind)
	}

	dist, err := distance(origin, target)
	if err != nil {
		return nil, rejectf("invalid target coordinate %s", target)
	}
	fuel := fuelCost(ships, dist, p.EventActive(types.EventContraband, now))
	if c.Resources.Deuterium < fuel {
		return nil, rejectf("insufficient deuterium: need %.0f", fuel)
	}

	c.Resources.Deuterium -= fuel
	carried := make(map[string]int, len(ships))
	for id, n := range ships {
		if n == 0 {
			continue
		}
		c.Fleet[id] -= n
		carried[id] = n
	}

	travel := travelTime(dist, speed)
	m := &types.FleetMission{
		ID:      uuid.New().String(),
		Owner:   p.UUID,
		Origin:  origin,
		Target:  target,
		Kind:    kind,
		Ships:   carried,
		Send:    now,
		Arrival: now.Add(travel),
		Return:  now.Add(2 * travel),
	}
	p.Missions = append(p.Missions, m)
	return m, nil
}

// RecallFleet is time-symmetric: the fleet flies home for exactly as long as
// it has been out, so the new return is now + (now - send).
func (e *Engine) RecallFleet(p *types.PlayerRecord, missionID string, now time.Time) error {
	for _, m := range p.Missions {
		if m.ID != missionID {
			continue
		}
		if m.Recalled {
			return rejectf("mission already recalled")
		}
		if m.Processed {
			return rejectf("fleet already heading home")
		}
		m.Recalled = true
		m.Return = now.Add(now.Sub(m.Send))
		return nil
	}
	return rejectf("no such mission")
}

// AdvanceMissions processes due arrivals exactly once and retires missions
// whose return time has passed.
func (e *Engine) AdvanceMissions(p *types.PlayerRecord, w *types.WorldRecord, now time.Time) {
	kept := p.Missions[:0]
	for _, m := range p.Missions {
		if !m.Processed && !m.Recalled && !now.Before(m.Arrival) {
			e.processArrival(p, w, m, now)
			m.Processed = true
		}
		if !now.Before(m.Return) {
			e.returnFleet(p, m, now)
			continue
		}
		kept = append(kept, m)
	}
	p.Missions = kept
}

func (e *Engine) returnFleet(p *types.PlayerRecord, m *types.FleetMission, now time.Time) {
	c := p.Colonies[m.Origin]
	if c == nil {
		// Origin abandoned since send; nowhere to dock. Skip, never crash.
		e.warnf("mission %s: origin %s gone, fleet lost", m.ID, m.Origin)
		return
	}
	if c.Fleet == nil {
		c.Fleet = make(map[string]int)
	}
	for id, n := range m.Ships {
		c.Fleet[id] += n
	}
	if m.Loot.Total() > 0 {
		c.Resources.Add(m.Loot)
	}
}

func (e *Engine) processArrival(p *types.PlayerRecord, w *types.WorldRecord, m *types.FleetMission, now time.Time) {
	switch m.Kind {
	case types.MissionAttack:
		e.resolveAttack(p, w, m, now)
	case types.MissionSpy:
		e.resolveSpy(p, w, m, now)
	case types.MissionHarvest:
		e.resolveHarvest(p, w, m, now)
	case types.MissionColonize:
		e.resolveColonize(p, w, m, now)
	case types.MissionExpedition:
		e.resolveExpedition(p, w, m, now)
	case types.MissionExplore:
		pot := SectorData(w.Seed, m.Target)
		out := &types.ExplorationOutcome{Coord: m.Target, HasSystem: pot.HasSystem, StarType: pot.StarType, Richness: pot.Richness, Hazards: pot.Hazards}
		e.explorationOutcome(p, now, fmt.Sprintf("Survey of %s", m.Target), out)
	}
}

func (e *Engine) resolveAttack(p *types.PlayerRecord, w *types.WorldRecord, m *types.FleetMission, now time.Time) {
	npc := w.NPCs[m.Target]
	if npc == nil {
		if sleeper, ok := w.Sleepers[m.Target]; ok {
			npc = e.RegenerateSleeper(w, sleeper, now)
		}
	}
	if npc == nil {
		e.info(p, now, fmt.Sprintf("Attack on %s", m.Target), "Your fleet found nothing at the target coordinates.")
		return
	}

	att := Party{Name: p.Username, Ships: m.Ships, Research: p.Research, Upgrades: p.ShipUpgrades}
	def := Party{Name: npc.Name, Ships: npc.Fleet, Defenses: npc.Defenses, Research: npc.Research}
	res := ResolveCombat(att, def, npc.Resources, p.EventActive(types.EventSpacePlague, now), e.Rand)

	applyLosses(m.Ships, res.AttackerLosses)
	applyLosses(npc.Fleet, res.DefenderLosses)
	applyLosses(npc.Defenses, res.DefenseLosses)
	npc.Resources.Spend(res.Loot)
	npc.LastUpdate = now
	m.Loot = res.Loot
	addDebris(w, m.Target, res.Debris)

	e.battleReport(p, now, fmt.Sprintf("Battle at %s", m.Target), &types.BattleReport{
		Attacker: p.Username, Defender: npc.Name, Coord: m.Target,
		Rounds: res.Rounds, Winner: res.Winner,
		AttackerLosses: res.AttackerLosses, DefenderLosses: res.DefenderLosses,
		DefenseLosses: res.DefenseLosses, Loot: res.Loot,
		Debris: types.Resources{Metal: res.Debris.Metal, Crystal: res.Debris.Crystal},
	})
}

func (e *Engine) resolveSpy(p *types.PlayerRecord, w *types.WorldRecord, m *types.FleetMission, now time.Time) {
	npc := w.NPCs[m.Target]
	if npc == nil {
		e.info(p, now, fmt.Sprintf("Espionage of %s", m.Target), "The probes report no activity at the target.")
		return
	}
	e.spyReport(p, now, fmt.Sprintf("Espionage report: %s", m.Target), &types.SpyReport{
		Coord: m.Target, Owner: npc.Name,
		Resources: npc.Resources,
		Buildings: copyCounts(npc.Buildings),
		Fleet:     copyCounts(npc.Fleet),
		Defenses:  copyCounts(npc.Defenses),
	})
}

func (e *Engine) resolveHarvest(p *types.PlayerRecord, w *types.WorldRecord, m *types.FleetMission, now time.Time) {
	field := w.Debris[m.Target]
	if field == nil || field.Metal+field.Crystal <= 0 {
		e.info(p, now, fmt.Sprintf("Harvest at %s", m.Target), "The debris field has dispersed.")
		return
	}
	capacity := cargoCapacity(m.Ships)
	total := field.Metal + field.Crystal
	take := math.Min(capacity, total)
	f := take / total
	m.Loot.Metal += field.Metal * f
	m.Loot.Crystal += field.Crystal * f
	field.Metal -= field.Metal * f
	field.Crystal -= field.Crystal * f
	if field.Metal+field.Crystal < 1 {
		delete(w.Debris, m.Target)
	}
	e.info(p, now, fmt.Sprintf("Harvest at %s", m.Target),
		fmt.Sprintf("Recyclers collected %.0f metal and %.0f crystal.", m.Loot.Metal, m.Loot.Crystal))
}

func (e *Engine) resolveColonize(p *types.PlayerRecord, w *types.WorldRecord, m *types.FleetMission, now time.Time) {
	if _, taken := p.Colonies[m.Target]; taken {
		e.colonizationResult(p, now, fmt.Sprintf("Colonization of %s", m.Target), "You already hold these coordinates.")
		return
	}
	if _, occupied := w.NPCs[m.Target]; occupied {
		e.colonizationResult(p, now, fmt.Sprintf("Colonization of %s", m.Target), "The system is already inhabited.")
		return
	}
	if _, occupied := w.Sleepers[m.Target]; occupied {
		e.colonizationResult(p, now, fmt.Sprintf("Colonization of %s", m.Target), "The system is already inhabited.")
		return
	}
	if owner, claimed := w.Claims[m.Target]; claimed && owner != p.UUID {
		e.colonizationResult(p, now, fmt.Sprintf("Colonization of %s", m.Target), "Another commander already holds these coordinates.")
		return
	}
	pot := SectorData(w.Seed, m.Target)
	if !pot.HasSystem {
		e.colonizationResult(p, now, fmt.Sprintf("Colonization of %s", m.Target), "No habitable system at the target coordinates.")
		return
	}

	m.Ships["colony_ship"]--
	if m.Ships["colony_ship"] <= 0 {
		delete(m.Ships, "colony_ship")
	}
	p.Colonies[m.Target] = &types.Colony{
		Coord:     m.Target,
		Name:      fmt.Sprintf("%s Outpost", p.Username),
		Buildings: make(map[string]int),
		Defenses:  make(map[string]int),
		Fleet:     make(map[string]int),
		FieldsMax: pot.Fields,
	}
	w.Claim(m.Target, p.UUID)
	e.colonizationResult(p, now, fmt.Sprintf("Colonization of %s", m.Target),
		fmt.Sprintf("Outpost established under a %s star. %d fields available.", pot.StarType, pot.Fields))
}

func (e *Engine) resolveExpedition(p *types.PlayerRecord, w *types.WorldRecord, m *types.FleetMission, now time.Time) {
	shipFindChance := 0.15
	if p.EventActive(types.EventGhostShip, now) {
		shipFindChance *= 2
	}
	out := &types.ExpeditionOutcome{Coord: m.Target}
	roll := e.Rand.Float64()
	switch {
	case roll < 0.40:
		capacity := cargoCapacity(m.Ships)
		haul := capacity * (0.1 + 0.4*e.Rand.Float64())
		out.Result = "resources"
		out.Found = types.Resources{Metal: haul * 0.5, Crystal: haul * 0.33, Deuterium: haul * 0.17}
		m.Loot.Add(out.Found)
	case roll < 0.40+shipFindChance:
		out.Result = "ships"
		out.FoundShips = map[string]int{
			"light_fighter": 1 + e.Rand.Intn(5),
			"small_cargo":   e.Rand.Intn(3),
		}
		for id, n := range out.FoundShips {
			if n > 0 {
				m.Ships[id] += n
			} else {
				delete(out.FoundShips, id)
			}
		}
	case roll < 0.40+shipFindChance+0.10:
		out.Result = "losses"
		out.LostShips = make(map[string]int)
		for id, n := range m.Ships {
			lost := e.Rand.Intn(n/2 + 1)
			if lost > 0 {
				out.LostShips[id] = lost
				m.Ships[id] -= lost
				if m.Ships[id] <= 0 {
					delete(m.Ships, id)
				}
			}
		}
	default:
		out.Result = "nothing"
	}
	e.expeditionOutcome(p, now, fmt.Sprintf("Expedition to %s", m.Target), out)
}

// --- NPC-originated missions ---

// AdvanceNPCMissions moves the world's own fleets: attacks and probes the
// population manager launched at players. The arrival effect belongs to the
// colony's owner: a mission aimed at another commander's claimed coordinates
// is left untouched here so that player's own advance resolves it.
func (e *Engine) AdvanceNPCMissions(p *types.PlayerRecord, w *types.WorldRecord, now time.Time) {
	kept := w.NPCMissions[:0]
	for _, m := range w.NPCMissions {
		if !m.Processed && !now.Before(m.Arrival) {
			if _, mine := p.Colonies[m.Target]; mine {
				e.processNPCArrival(p, w, m, now)
				m.Processed = true
			} else if owner := w.Claims[m.Target]; owner != "" && owner != p.UUID {
				kept = append(kept, m)
				continue
			} else {
				e.warnf("npc mission %s: target %s is unclaimed, fleet turns back", m.ID, m.Target)
				m.Processed = true
			}
		}
		if !now.Before(m.Return) {
			e.returnNPCFleet(w, m)
			continue
		}
		kept = append(kept, m)
	}
	w.NPCMissions = kept
}

func (e *Engine) processNPCArrival(p *types.PlayerRecord, w *types.WorldRecord, m *types.FleetMission, now time.Time) {
	c := p.Colonies[m.Target]
	if c == nil {
		e.warnf("npc mission %s: target %s is not a player colony", m.ID, m.Target)
		return
	}
	origin := npcAt(w, m.Origin)

	if m.Kind == types.MissionSpy {
		e.info(p, now, fmt.Sprintf("Foreign probes over %s", m.Target),
			fmt.Sprintf("Espionage probes from %s were detected above your colony.", npcLabel(origin, m.Origin)))
		return
	}

	att := Party{Name: npcLabel(origin, m.Origin), Ships: m.Ships}
	if origin != nil {
		att.Research = origin.Research
	}
	def := Party{Name: p.Username, Ships: c.Fleet, Defenses: c.Defenses, Research: p.Research, Upgrades: p.ShipUpgrades}
	res := ResolveCombat(att, def, c.Resources, p.EventActive(types.EventSpacePlague, now), e.Rand)

	applyLosses(m.Ships, res.AttackerLosses)
	applyLosses(c.Fleet, res.DefenderLosses)
	applyLosses(c.Defenses, res.DefenseLosses)
	c.Resources.Spend(res.Loot)
	m.Loot = res.Loot
	addDebris(w, m.Target, res.Debris)

	e.battleReport(p, now, fmt.Sprintf("Your colony %s was attacked", m.Target), &types.BattleReport{
		Attacker: att.Name, Defender: p.Username, Coord: m.Target,
		Rounds: res.Rounds, Winner: res.Winner,
		AttackerLosses: res.AttackerLosses, DefenderLosses: res.DefenderLosses,
		DefenseLosses: res.DefenseLosses, Loot: res.Loot,
		Debris: types.Resources{Metal: res.Debris.Metal, Crystal: res.Debris.Crystal},
	})
}

func (e *Engine) returnNPCFleet(w *types.WorldRecord, m *types.FleetMission) {
	npc := w.NPCs[m.Origin]
	if npc == nil {
		return // hibernated or purged while the fleet was out
	}
	for id, n := range m.Ships {
		npc.Fleet[id] += n
	}
	npc.Resources.Add(m.Loot)
}

// --- helpers ---

func npcAt(w *types.WorldRecord, coord types.Coord) *types.NPCState {
	return w.NPCs[coord]
}

func npcLabel(npc *types.NPCState, coord types.Coord) string {
	if npc != nil {
		return npc.Name
	}
	return fmt.Sprintf("Unknown faction (%s)", coord)
}

func applyLosses(counts map[string]int, losses map[string]int) {
	for id, n := range losses {
		counts[id] -= n
		if counts[id] <= 0 {
			delete(counts, id)
		}
	}
}

func addDebris(w *types.WorldRecord, coord types.Coord, d types.Debris) {
	if d.Metal+d.Crystal <= 0 {
		return
	}
	if w.Debris == nil {
		w.Debris = make(map[types.Coord]*types.Debris)
	}
	field := w.Debris[coord]
	if field == nil {
		field = &types.Debris{}
		w.Debris[coord] = field
	}
	field.Metal += d.Metal
	field.Crystal += d.Crystal
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
