package game

import (
	"time"

	"starhold/pkg/types"
)

func queueTail(queue []types.QueueItem, now time.Time) time.Time {
	if len(queue) == 0 {
		return now
	}
	end := queue[len(queue)-1].End
	if end.Before(now) {
		return now
	}
	return end
}

func pendingLevels(queue []types.QueueItem, kind types.QueueKind, id string) int {
	n := 0
	for _, item := range queue {
		if item.Kind == kind && item.TargetID == id {
			n++
		}
	}
	return n
}

// pendingResearch scans every colony: research is player-scoped no matter
// which location hosts the lab running it.
func pendingResearch(p *types.PlayerRecord, id string) int {
	n := 0
	for _, c := range p.Colonies {
		n += pendingLevels(c.BuildQueue, types.QueueResearch, id)
	}
	return n
}

func pendingUpgrades(p *types.PlayerRecord, id string) int {
	n := 0
	for _, c := range p.Colonies {
		n += pendingLevels(c.YardQueue, types.QueueShipUpgrade, id)
	}
	return n
}

func meetsRequirements(c *types.Colony, req map[string]int) bool {
	for id, lvl := range req {
		if c.Buildings[id] < lvl {
			return false
		}
	}
	return true
}

// --- Insertion (discrete player actions; validation per the rejection policy) ---

func EnqueueBuilding(p *types.PlayerRecord, c *types.Colony, id string, now time.Time) error {
	spec, ok := Buildings[id]
	if !ok {
		return rejectf("unknown building %q", id)
	}
	if !meetsRequirements(c, spec.Requires) {
		return rejectf("%s requirements not met", id)
	}
	pendingFields := 0
	for _, item := range c.BuildQueue {
		if item.Kind == types.QueueBuilding {
			pendingFields++
		}
	}
	if c.UsedFields()+pendingFields >= c.FieldsMax {
		return rejectf("no free fields on %s", c.Name)
	}

	level := c.Buildings[id] + pendingLevels(c.BuildQueue, types.QueueBuilding, id) + 1
	cost := BuildingCost(id, level)
	if !c.Resources.CanAfford(cost) {
		return rejectf("not enough resources for %s level %d", id, level)
	}
	c.Resources.Spend(cost)

	start := queueTail(c.BuildQueue, now)
	dur := buildDuration(cost, c.Buildings["robot_factory"])
	c.BuildQueue = append(c.BuildQueue, types.QueueItem{
		Kind: types.QueueBuilding, TargetID: id, Level: level,
		Start: start, End: start.Add(dur), Duration: dur,
	})
	return nil
}

func EnqueueResearch(p *types.PlayerRecord, c *types.Colony, id string, now time.Time) error {
	if _, ok := Research[id]; !ok {
		return rejectf("unknown technology %q", id)
	}
	if c.Buildings["research_lab"] < 1 {
		return rejectf("%s has no research lab", c.Name)
	}
	level := p.Research[id] + pendingResearch(p, id) + 1
	cost := ResearchCost(id, level)
	if !c.Resources.CanAfford(cost) {
		return rejectf("not enough resources for %s level %d", id, level)
	}
	c.Resources.Spend(cost)

	start := queueTail(c.BuildQueue, now)
	dur := researchDuration(cost, c.Buildings["research_lab"])
	c.BuildQueue = append(c.BuildQueue, types.QueueItem{
		Kind: types.QueueResearch, TargetID: id, Level: level,
		Start: start, End: start.Add(dur), Duration: dur,
	})
	return nil
}

func enqueueUnits(c *types.Colony, kind types.QueueKind, id string, spec UnitSpec, amount int, now time.Time) error {
	if amount < 1 {
		return rejectf("amount must be positive")
	}
	if !meetsRequirements(c, spec.Requires) {
		return rejectf("%s requirements not met", id)
	}
	cost := spec.Cost.Scale(float64(amount))
	if !c.Resources.CanAfford(cost) {
		return rejectf("not enough resources for %d %s", amount, id)
	}
	c.Resources.Spend(cost)

	start := queueTail(c.YardQueue, now)
	dur := yardDuration(spec.Cost, c.Buildings["shipyard"], amount)
	c.YardQueue = append(c.YardQueue, types.QueueItem{
		Kind: kind, TargetID: id, Amount: amount,
		Start: start, End: start.Add(dur), Duration: dur,
	})
	return nil
}

func EnqueueShips(c *types.Colony, id string, amount int, now time.Time) error {
	spec, ok := Ships[id]
	if !ok {
		return rejectf("unknown ship %q", id)
	}
	return enqueueUnits(c, types.QueueShip, id, spec, amount, now)
}

func EnqueueDefense(c *types.Colony, id string, amount int, now time.Time) error {
	spec, ok := Defenses[id]
	if !ok {
		return rejectf("unknown defense %q", id)
	}
	return enqueueUnits(c, types.QueueDefense, id, spec, amount, now)
}

func EnqueueShipUpgrade(p *types.PlayerRecord, c *types.Colony, shipID string, now time.Time) error {
	spec, ok := Ships[shipID]
	if !ok {
		return rejectf("unknown ship %q", shipID)
	}
	if !meetsRequirements(c, spec.Requires) {
		return rejectf("%s requirements not met", shipID)
	}
	level := p.ShipUpgrades[shipID] + pendingUpgrades(p, shipID) + 1
	cost := UpgradeCost(shipID, level)
	if !c.Resources.CanAfford(cost) {
		return rejectf("not enough resources to retrofit %s to mark %d", shipID, level)
	}
	c.Resources.Spend(cost)

	start := queueTail(c.YardQueue, now)
	dur := yardDuration(cost, c.Buildings["shipyard"], 1)
	c.YardQueue = append(c.YardQueue, types.QueueItem{
		Kind: types.QueueShipUpgrade, TargetID: shipID, Level: level,
		Start: start, End: start.Add(dur), Duration: dur,
	})
	return nil
}

// --- Advancement ---

// AdvanceQueues pops every due head in order. Research and retrofits land on
// the player record regardless of which colony queued them.
func AdvanceQueues(p *types.PlayerRecord, c *types.Colony, now time.Time) {
	for len(c.BuildQueue) > 0 && !now.Before(c.BuildQueue[0].End) {
		item := c.BuildQueue[0]
		c.BuildQueue = c.BuildQueue[1:]
		switch item.Kind {
		case types.QueueBuilding:
			if c.Buildings == nil {
				c.Buildings = make(map[string]int)
			}
			c.Buildings[item.TargetID] = item.Level
		case types.QueueResearch:
			if p.Research == nil {
				p.Research = make(map[string]int)
			}
			p.Research[item.TargetID] = item.Level
		}
	}

	for len(c.YardQueue) > 0 && !now.Before(c.YardQueue[0].End) {
		item := c.YardQueue[0]
		c.YardQueue = c.YardQueue[1:]
		switch item.Kind {
		case types.QueueShip:
			if c.Fleet == nil {
				c.Fleet = make(map[string]int)
			}
			c.Fleet[item.TargetID] += item.Amount
		case types.QueueDefense:
			if c.Defenses == nil {
				c.Defenses = make(map[string]int)
			}
			c.Defenses[item.TargetID] += item.Amount
		case types.QueueShipUpgrade:
			if p.ShipUpgrades == nil {
				p.ShipUpgrades = make(map[string]int)
			}
			p.ShipUpgrades[item.TargetID] = item.Level
		}
	}
}
