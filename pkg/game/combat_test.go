package game

import (
	"math"
	"math/rand"
	"testing"

	"starhold/pkg/types"
)

// stubDice always targets the first group and never rolls rapid fire, which
// makes small battles fully scriptable.
type stubDice struct{}

func (stubDice) Intn(n int) int { return 0 }
func (stubDice) Float64() float64 { return 1 }

func TestFightersOverrunLaunchers(t *testing.T) {
	att := Party{Name: "raider", Ships: map[string]int{"light_fighter": 10}}
	def := Party{Name: "outpost", Defenses: map[string]int{"rocket_launcher": 5}}
	stock := types.Resources{Metal: 10000, Crystal: 4000, Deuterium: 1000}

	res := ResolveCombat(att, def, stock, false, stubDice{})

	// Round by round with scripted dice: the launchers die in round 3 and
	// take a single fighter with them.
	if res.Winner != "attacker" {
		t.Fatalf("winner = %s, want attacker", res.Winner)
	}
	if res.Rounds != 3 {
		t.Errorf("rounds = %d, want 3", res.Rounds)
	}
	if res.AttackerLosses["light_fighter"] != 1 {
		t.Errorf("attacker losses = %v, want 1 light_fighter", res.AttackerLosses)
	}
	if res.DefenseLosses["rocket_launcher"] != 5 {
		t.Errorf("defense losses = %v, want all 5 launchers", res.DefenseLosses)
	}

	// Debris is 30% of metal and crystal of everything destroyed.
	wantMetal := 0.3 * (Ships["light_fighter"].Cost.Metal + 5*Defenses["rocket_launcher"].Cost.Metal)
	if res.Debris.Metal != wantMetal {
		t.Errorf("debris metal = %f, want %f", res.Debris.Metal, wantMetal)
	}

	// Loot: half the stockpile, capped by the 9 survivors' cargo holds.
	capacity := 9 * Ships["light_fighter"].Cargo
	if got := res.Loot.Total(); math.Abs(got-capacity) > 1e-6 {
		t.Errorf("loot total = %f, want cargo-capped %f", got, capacity)
	}
}

func TestDefenderHoldsAgainstProbe(t *testing.T) {
	att := Party{Name: "raider", Ships: map[string]int{"espionage_probe": 1}}
	def := Party{Name: "outpost", Defenses: map[string]int{"rocket_launcher": 5}}

	res := ResolveCombat(att, def, types.Resources{Metal: 5000}, false, stubDice{})
	if res.Winner != "defender" {
		t.Errorf("winner = %s, want defender", res.Winner)
	}
	if res.Loot.Total() != 0 {
		t.Errorf("loot = %f, want 0 on defender win", res.Loot.Total())
	}
}

func TestCombatConservesUnits(t *testing.T) {
	dice := rand.New(rand.NewSource(7))
	att := Party{Name: "a", Ships: map[string]int{"light_fighter": 20, "cruiser": 4}}
	def := Party{Name: "d", Ships: map[string]int{"heavy_fighter": 8}, Defenses: map[string]int{"rocket_launcher": 12, "light_laser": 6}}

	startAtt := 24
	startDef := 26

	res := ResolveCombat(att, def, types.Resources{}, false, dice)

	lostAtt := 0
	for _, n := range res.AttackerLosses {
		lostAtt += n
	}
	lostDef := 0
	for _, n := range res.DefenderLosses {
		lostDef += n
	}
	for _, n := range res.DefenseLosses {
		lostDef += n
	}
	if lostAtt < 0 || lostAtt > startAtt {
		t.Errorf("attacker losses %d out of range [0,%d]", lostAtt, startAtt)
	}
	if lostDef < 0 || lostDef > startDef {
		t.Errorf("defender losses %d out of range [0,%d]", lostDef, startDef)
	}
	if res.Rounds < 1 || res.Rounds > maxCombatRounds {
		t.Errorf("rounds = %d out of range", res.Rounds)
	}
}

func TestPlagueDropsShields(t *testing.T) {
	def := Party{Name: "d", Defenses: map[string]int{"ion_cannon": 1}}
	groups := buildGroups(def, true)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if groups[0].shield != 0 {
		t.Errorf("shield under plague = %f, want 0", groups[0].shield)
	}
}

func TestTechScalesCombatStats(t *testing.T) {
	plain := Party{Name: "p", Ships: map[string]int{"light_fighter": 1}}
	teched := Party{
		Name:     "t",
		Ships:    map[string]int{"light_fighter": 1},
		Research: map[string]int{"weapons_tech": 5},
		Upgrades: map[string]int{"light_fighter": 2},
	}
	pg := buildGroups(plain, false)[0]
	tg := buildGroups(teched, false)[0]

	want := Ships["light_fighter"].Attack * techFactor(5) * techFactor(2)
	if tg.attack != want {
		t.Errorf("teched attack = %f, want %f", tg.attack, want)
	}
	if tg.attack <= pg.attack {
		t.Error("research and retrofits must increase attack")
	}
}
