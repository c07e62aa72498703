package game

import (
	"time"

	"starhold/pkg/types"
)

// Regeneration stops once less than this much budget remains; the remainder
// is written off as rounding.
const regenStopThreshold = 200

// npcPoints collapses a faction into one cost-weighted score: the total
// spend that built its structures, research, fleet and defenses.
func npcPoints(npc *types.NPCState) float64 {
	total := 0.0
	for id, lvl := range npc.Buildings {
		for l := 1; l <= lvl; l++ {
			total += BuildingCost(id, l).Total()
		}
	}
	for id, lvl := range npc.Research {
		for l := 1; l <= lvl; l++ {
			total += ResearchCost(id, l).Total()
		}
	}
	for id, n := range npc.Fleet {
		total += UnitValue(Ships[id].Cost) * float64(n)
	}
	for id, n := range npc.Defenses {
		total += UnitValue(Defenses[id].Cost) * float64(n)
	}
	return total
}

// RegenerateSleeper rebuilds a concrete faction from a sleeper's point score:
// greedy spend down the personality's priority list until the budget is too
// small to matter, then production fast-forwarded over the dormant span.
// The sleeper is removed from the roster and the rebuilt NPC installed.
func (e *Engine) RegenerateSleeper(w *types.WorldRecord, s *types.SleeperNPC, now time.Time) *types.NPCState {
	npc := &types.NPCState{
		Coord:       s.Coord,
		Name:        s.Name,
		Personality: s.Personality,
		DevSpeed:    s.DevSpeed,
		Resources:   s.Resources,
		Buildings:   map[string]int{"metal_mine": 1, "solar_plant": 1},
		Research:    make(map[string]int),
		Fleet:       make(map[string]int),
		Defenses:    make(map[string]int),
		LastUpdate:  now,
	}

	budget := s.Points
	priorities := prioritiesFor(s.Personality)
	for i := 0; i < 4096 && budget >= regenStopThreshold; i++ {
		spent, ok := regenBuy(npc, priorities, budget)
		if !ok {
			break
		}
		budget -= spent
	}

	hours := now.Sub(s.LastUpdate).Hours()
	if hours > 0 {
		rate := npcProductionRates(npc)
		npc.Resources.Add(rate.Scale(hours * npc.DevSpeed))
	}

	delete(w.Sleepers, s.Coord)
	w.NPCs[s.Coord] = npc
	return npc
}

// regenBuy buys the first list entry whose next increment fits the budget.
// Requirements are honored, so early list slots unlock later ones.
func regenBuy(npc *types.NPCState, priorities []spendEntry, budget float64) (float64, bool) {
	for _, entry := range priorities {
		switch entry.kind {
		case "building":
			if !npcMeets(npc, Buildings[entry.id].Requires) {
				continue
			}
			cost := BuildingCost(entry.id, npc.Buildings[entry.id]+1).Total()
			if cost <= budget {
				npc.Buildings[entry.id]++
				return cost, true
			}
		case "research":
			if npc.Buildings["research_lab"] < 1 {
				continue
			}
			cost := ResearchCost(entry.id, npc.Research[entry.id]+1).Total()
			if cost <= budget {
				npc.Research[entry.id]++
				return cost, true
			}
		case "ship":
			if !npcMeets(npc, Ships[entry.id].Requires) {
				continue
			}
			cost := Ships[entry.id].Cost.Total()
			if cost <= budget {
				npc.Fleet[entry.id]++
				return cost, true
			}
		case "defense":
			if !npcMeets(npc, Defenses[entry.id].Requires) {
				continue
			}
			cost := Defenses[entry.id].Cost.Total()
			if cost <= budget {
				npc.Defenses[entry.id]++
				return cost, true
			}
		}
	}
	return 0, false
}
