package game

import (
	"fmt"
	"testing"
	"time"

	"starhold/pkg/types"
)

func TestSendFleetDeductsShipsAndFuel(t *testing.T) {
	e := testEngine(nil, baseTime)
	p := newTestPlayer()
	c := p.Home()
	c.Fleet["light_fighter"] = 5

	deutBefore := c.Resources.Deuterium
	m, err := e.SendFleet(p, "1:1:1", types.MissionExplore, "1:2:3", map[string]int{"light_fighter": 2}, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	if c.Fleet["light_fighter"] != 3 {
		t.Errorf("docked fighters = %d, want 3", c.Fleet["light_fighter"])
	}
	if c.Resources.Deuterium >= deutBefore {
		t.Error("fuel was not charged")
	}
	if !m.Arrival.After(m.Send) || !m.Return.After(m.Arrival) {
		t.Errorf("timeline broken: send %v arrival %v return %v", m.Send, m.Arrival, m.Return)
	}
	if got := m.Return.Sub(baseTime); got != 2*m.Arrival.Sub(baseTime) {
		t.Errorf("return leg = %v, want twice the outbound %v", got, m.Arrival.Sub(baseTime))
	}
}

func TestSendFleetRejectionsLeaveStateIntact(t *testing.T) {
	e := testEngine(nil, baseTime)
	p := newTestPlayer()
	c := p.Home()
	c.Fleet["light_fighter"] = 2
	c.Resources.Deuterium = 0

	cases := []struct {
		name   string
		origin types.Coord
		kind   types.MissionKind
		ships  map[string]int
	}{
		{"no colony", "9:9:9", types.MissionExplore, map[string]int{"light_fighter": 1}},
		{"too many ships", "1:1:1", types.MissionExplore, map[string]int{"light_fighter": 3}},
		{"empty fleet", "1:1:1", types.MissionExplore, map[string]int{}},
		{"unknown ship", "1:1:1", types.MissionExplore, map[string]int{"dreadnought": 1}},
		{"grounded unit", "1:1:1", types.MissionExplore, map[string]int{"solar_satellite": 1}},
		{"colonize without colony ship", "1:1:1", types.MissionColonize, map[string]int{"light_fighter": 1}},
		{"harvest without recycler", "1:1:1", types.MissionHarvest, map[string]int{"light_fighter": 1}},
		{"no fuel", "1:1:1", types.MissionExplore, map[string]int{"light_fighter": 1}},
	}
	for _, tc := range cases {
		if _, err := e.SendFleet(p, tc.origin, tc.kind, "1:2:3", tc.ships, baseTime); !IsReject(err) {
			t.Errorf("%s: got %v, want rejection", tc.name, err)
		}
	}
	if c.Fleet["light_fighter"] != 2 {
		t.Errorf("fighters = %d after rejections, want 2", c.Fleet["light_fighter"])
	}
	if len(p.Missions) != 0 {
		t.Errorf("missions = %d after rejections, want 0", len(p.Missions))
	}
}

func TestRecallIsTimeSymmetric(t *testing.T) {
	e := testEngine(nil, baseTime)
	p := newTestPlayer()
	c := p.Home()
	c.Fleet["light_fighter"] = 1

	m, err := e.SendFleet(p, "1:1:1", types.MissionExplore, "2:100:8", map[string]int{"light_fighter": 1}, baseTime)
	if err != nil {
		t.Fatal(err)
	}

	out := 40 * time.Minute
	recallAt := baseTime.Add(out)
	if err := e.RecallFleet(p, m.ID, recallAt); err != nil {
		t.Fatal(err)
	}
	if want := recallAt.Add(out); !m.Return.Equal(want) {
		t.Errorf("return = %v, want %v", m.Return, want)
	}
	if err := e.RecallFleet(p, m.ID, recallAt); !IsReject(err) {
		t.Errorf("second recall: got %v, want rejection", err)
	}

	// A recalled fleet skips its arrival entirely and just comes home.
	w := types.NewWorld("w1")
	e.AdvanceMissions(p, w, m.Return.Add(time.Second))
	if len(p.Missions) != 0 {
		t.Errorf("missions = %d after return, want 0", len(p.Missions))
	}
	if c.Fleet["light_fighter"] != 1 {
		t.Errorf("fighter not home: fleet = %v", c.Fleet)
	}
	if countMessages(p, types.MsgExploration) != 0 {
		t.Error("recalled mission must not produce an arrival report")
	}
}

func TestArrivalProcessedExactlyOnce(t *testing.T) {
	e := testEngine(nil, baseTime)
	p := newTestPlayer()
	w := types.NewWorld("w1")
	c := p.Home()
	c.Fleet["espionage_probe"] = 1

	m, err := e.SendFleet(p, "1:1:1", types.MissionExplore, "3:200:5", map[string]int{"espionage_probe": 1}, baseTime)
	if err != nil {
		t.Fatal(err)
	}

	afterArrival := m.Arrival.Add(time.Second)
	e.AdvanceMissions(p, w, afterArrival)
	e.AdvanceMissions(p, w, afterArrival.Add(time.Second))
	if got := countMessages(p, types.MsgExploration); got != 1 {
		t.Errorf("exploration reports = %d, want 1", got)
	}

	e.AdvanceMissions(p, w, m.Return.Add(time.Second))
	if len(p.Missions) != 0 {
		t.Errorf("missions = %d after return, want 0", len(p.Missions))
	}
	if c.Fleet["espionage_probe"] != 1 {
		t.Errorf("probe not home: fleet = %v", c.Fleet)
	}
}

func TestAttackMissionLifecycle(t *testing.T) {
	e := testEngine(nil, baseTime)
	p := newTestPlayer()
	w := types.NewWorld("w1")
	c := p.Home()
	c.Fleet["light_fighter"] = 10

	target := types.Coord("1:5:5")
	w.NPCs[target] = &types.NPCState{
		Coord: target, Name: "Korrath-01", Personality: types.PersonalityBalanced, DevSpeed: 1,
		Resources:  types.Resources{Metal: 8000, Crystal: 3000},
		Buildings:  map[string]int{"metal_mine": 3},
		Research:   make(map[string]int),
		Fleet:      make(map[string]int),
		Defenses:   map[string]int{"rocket_launcher": 2},
		LastUpdate: baseTime,
	}

	m, err := e.SendFleet(p, "1:1:1", types.MissionAttack, target, map[string]int{"light_fighter": 10}, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	e.AdvanceMissions(p, w, m.Arrival.Add(time.Second))
	if got := countMessages(p, types.MsgBattleReport); got != 1 {
		t.Fatalf("battle reports = %d, want 1", got)
	}
	if m.Loot.Total() <= 0 {
		t.Error("ten fighters against two launchers should have looted")
	}

	metalBefore := c.Resources.Metal
	e.AdvanceMissions(p, w, m.Return.Add(time.Second))
	if c.Resources.Metal <= metalBefore {
		t.Error("loot was not docked on return")
	}
}

func TestHarvestCollectsDebris(t *testing.T) {
	e := testEngine(nil, baseTime)
	p := newTestPlayer()
	w := types.NewWorld("w1")
	c := p.Home()
	c.Fleet["recycler"] = 1

	field := types.Coord("1:3:3")
	w.Debris[field] = &types.Debris{Metal: 600, Crystal: 300}

	m, err := e.SendFleet(p, "1:1:1", types.MissionHarvest, field, map[string]int{"recycler": 1}, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	e.AdvanceMissions(p, w, m.Arrival.Add(time.Second))

	if m.Loot.Metal != 600 || m.Loot.Crystal != 300 {
		t.Errorf("loot = %+v, want the whole field", m.Loot)
	}
	if _, still := w.Debris[field]; still {
		t.Error("emptied field must be deleted")
	}
}

func TestColonizeCreatesOutpost(t *testing.T) {
	e := testEngine(nil, baseTime)
	p := newTestPlayer()
	w := types.NewWorld("w1")
	c := p.Home()
	c.Fleet["colony_ship"] = 1

	// Scan for a coordinate this seed considers habitable.
	var target types.Coord
	for s := 1; s < 499 && target == ""; s++ {
		cand := types.Coord(fmt.Sprintf("1:%d:4", s))
		if SectorData(w.Seed, cand).HasSystem {
			target = cand
		}
	}
	if target == "" {
		t.Fatal("no habitable sector found in galaxy 1")
	}

	m, err := e.SendFleet(p, "1:1:1", types.MissionColonize, target, map[string]int{"colony_ship": 1}, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	e.AdvanceMissions(p, w, m.Arrival.Add(time.Second))

	col := p.Colonies[target]
	if col == nil {
		t.Fatal("colony was not created")
	}
	if col.Home {
		t.Error("outpost must not be a home colony")
	}
	if col.FieldsMax < 120 || col.FieldsMax > 240 {
		t.Errorf("fields = %d, want within [120,240]", col.FieldsMax)
	}
	if w.Claims[target] != p.UUID {
		t.Errorf("claim at %s = %q, want %q", target, w.Claims[target], p.UUID)
	}
}

func TestColonizeRejectsClaimedCoordinate(t *testing.T) {
	e := testEngine(nil, baseTime)
	p := newTestPlayer()
	w := types.NewWorld("w1")
	c := p.Home()
	c.Fleet["colony_ship"] = 1

	target := types.Coord("1:5:5")
	w.Claim(target, "player-2")

	m, err := e.SendFleet(p, "1:1:1", types.MissionColonize, target, map[string]int{"colony_ship": 1}, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	e.AdvanceMissions(p, w, m.Arrival.Add(time.Second))

	if p.Colonies[target] != nil {
		t.Fatal("colony planted on another commander's coordinates")
	}
	if w.Claims[target] != "player-2" {
		t.Errorf("claim at %s = %q, want untouched player-2", target, w.Claims[target])
	}
	if countMessages(p, types.MsgColonization) != 1 {
		t.Errorf("colonization results = %d, want 1", countMessages(p, types.MsgColonization))
	}
}

func TestNPCAttackResolvesForTargetOwner(t *testing.T) {
	e := testEngine(nil, baseTime)
	w := types.NewWorld("w1")

	owner := newTestPlayer()
	rival := newTestPlayer()
	rival.UUID = "player-2"
	rival.Username = "rival"
	rival.HomeCoord = "2:2:2"
	rival.Colonies = map[types.Coord]*types.Colony{"2:2:2": newTestColony("2:2:2", true)}
	w.Claim(owner.HomeCoord, owner.UUID)
	w.Claim(rival.HomeCoord, rival.UUID)

	raid := &types.FleetMission{
		ID: "n1", Owner: "npc:3:3:3", Origin: "3:3:3", Target: owner.HomeCoord,
		Kind: types.MissionAttack, Ships: map[string]int{"light_fighter": 4},
		Send: baseTime.Add(-2 * time.Hour), Arrival: baseTime.Add(-time.Hour), Return: baseTime.Add(time.Hour),
	}
	w.NPCMissions = append(w.NPCMissions, raid)

	// The rival's advance runs first and must leave the raid for its owner.
	e.AdvanceNPCMissions(rival, w, baseTime)
	if len(w.NPCMissions) != 1 || w.NPCMissions[0].Processed {
		t.Fatalf("raid consumed by a bystander: %+v", w.NPCMissions)
	}
	if countMessages(rival, types.MsgBattleReport) != 0 {
		t.Error("bystander received a battle report")
	}

	e.AdvanceNPCMissions(owner, w, baseTime)
	if got := countMessages(owner, types.MsgBattleReport); got != 1 {
		t.Errorf("owner battle reports = %d, want 1", got)
	}
	if !raid.Processed {
		t.Error("raid not marked processed after the owner's advance")
	}
}
