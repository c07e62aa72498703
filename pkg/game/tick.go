package game

import (
	"fmt"
	"time"

	"starhold/pkg/types"
)

// Advance brings a player fully up to the engine clock: production, queues,
// missions, events, the daily bonus flag and the NPC population, in that
// order. Callers hold the player's lock.
func (e *Engine) Advance(p *types.PlayerRecord, w *types.WorldRecord) {
	now := e.Now()

	elapsed := 0.0
	if !p.LastTick.IsZero() && now.After(p.LastTick) {
		elapsed = now.Sub(p.LastTick).Seconds()
	}

	// Production runs at pre-completion rates; a mine that finished during
	// the gap starts earning on the next tick.
	for _, c := range p.Colonies {
		if elapsed > 0 {
			ApplyProduction(p, c, elapsed, now)
		}
		AdvanceQueues(p, c, now)
	}

	e.AdvanceMissions(p, w, now)
	e.AdvanceNPCMissions(p, w, now)

	if now.Sub(p.LastEventRoll) >= eventRollInterval {
		e.RollEvents(p, now)
		p.LastEventRoll = now
	}

	if !p.BonusPending && now.Sub(p.LastBonus) >= bonusCooldown {
		p.BonusPending = true
		e.merchantNotice(p, now, "The merchant has arrived",
			"A wandering merchant is in orbit with a gift. Claim it before he moves on.")
	}

	e.RunPopulation(p, w, now)

	p.LastTick = now
}

// Daily bonus baseline; scaled by home mine levels, doubled under gold rush.
var bonusBase = types.Resources{Metal: 500, Crystal: 300, Deuterium: 100}

// ClaimBonus converts a pending merchant visit into resources on the home
// colony. The grant scales with economic development so it stays relevant.
func (e *Engine) ClaimBonus(p *types.PlayerRecord, now time.Time) (types.Resources, error) {
	if !p.BonusPending {
		return types.Resources{}, rejectf("no bonus is waiting")
	}
	home := p.Home()
	if home == nil {
		return types.Resources{}, rejectf("no home colony")
	}

	scale := 1.0 + float64(home.Buildings["metal_mine"]+home.Buildings["crystal_mine"])/10.0
	if p.EventActive(types.EventGoldRush, now) {
		scale *= 2
	}
	grant := bonusBase.Scale(scale)

	capacity := Capacity(home)
	home.Resources.Metal = fill(home.Resources.Metal, grant.Metal, 0, capacity.Metal)
	home.Resources.Crystal = fill(home.Resources.Crystal, grant.Crystal, 0, capacity.Crystal)
	home.Resources.Deuterium = fill(home.Resources.Deuterium, grant.Deuterium, 0, capacity.Deuterium)

	p.BonusPending = false
	p.LastBonus = now
	e.merchantNotice(p, now, "Merchant gift claimed",
		fmt.Sprintf("The merchant left %.0f metal, %.0f crystal and %.0f deuterium.",
			grant.Metal, grant.Crystal, grant.Deuterium))
	return grant, nil
}

const (
	phalanxTechRequired = 4
	phalanxDeutCost     = 1000
)

// PhalanxScan burns deuterium to reveal hostile traffic headed for the
// player's colonies. Espionage tech gates the sensor.
func (e *Engine) PhalanxScan(p *types.PlayerRecord, w *types.WorldRecord, origin types.Coord, now time.Time) (*types.PhalanxScan, error) {
	c, ok := p.Colonies[origin]
	if !ok {
		return nil, rejectf("no colony at %s", origin)
	}
	if p.Research["espionage_tech"] < phalanxTechRequired {
		return nil, rejectf("espionage tech %d required", phalanxTechRequired)
	}
	if c.Resources.Deuterium < phalanxDeutCost {
		return nil, rejectf("phalanx needs %d deuterium", phalanxDeutCost)
	}
	c.Resources.Deuterium -= phalanxDeutCost

	scan := &types.PhalanxScan{Coord: origin}
	for _, m := range w.NPCMissions {
		if m.Processed {
			continue
		}
		if _, mine := p.Colonies[m.Target]; !mine {
			continue
		}
		scan.Missions = append(scan.Missions, *m)
	}

	subject := fmt.Sprintf("Phalanx scan from %s: %d inbound", origin, len(scan.Missions))
	e.phalanxResult(p, now, subject, scan)
	return scan, nil
}
