package game

import (
	"math"
	"time"

	"starhold/pkg/types"
)

// --- Buildings ---

type BuildingSpec struct {
	Base     types.Resources
	Factor   float64        // cost growth per level
	Requires map[string]int // building -> min level
}

var Buildings = map[string]BuildingSpec{
	"metal_mine":            {Base: types.Resources{Metal: 60, Crystal: 15}, Factor: 1.5},
	"crystal_mine":          {Base: types.Resources{Metal: 48, Crystal: 24}, Factor: 1.6},
	"deuterium_synthesizer": {Base: types.Resources{Metal: 225, Crystal: 75}, Factor: 1.5},
	"solar_plant":           {Base: types.Resources{Metal: 75, Crystal: 30}, Factor: 1.5},
	"fusion_reactor":        {Base: types.Resources{Metal: 900, Crystal: 360, Deuterium: 180}, Factor: 1.8, Requires: map[string]int{"deuterium_synthesizer": 5}},
	"robot_factory":         {Base: types.Resources{Metal: 400, Crystal: 120, Deuterium: 200}, Factor: 2.0},
	"shipyard":              {Base: types.Resources{Metal: 400, Crystal: 200, Deuterium: 100}, Factor: 2.0, Requires: map[string]int{"robot_factory": 2}},
	"research_lab":          {Base: types.Resources{Metal: 200, Crystal: 400, Deuterium: 200}, Factor: 2.0},
	"metal_storage":         {Base: types.Resources{Metal: 1000}, Factor: 2.0},
	"crystal_storage":       {Base: types.Resources{Metal: 1000, Crystal: 500}, Factor: 2.0},
	"deuterium_tank":        {Base: types.Resources{Metal: 1000, Crystal: 1000}, Factor: 2.0},
	"accumulator":           {Base: types.Resources{Metal: 800, Crystal: 400}, Factor: 2.0},
}

// --- Research ---

var Research = map[string]BuildingSpec{
	"energy_tech":      {Base: types.Resources{Crystal: 800, Deuterium: 400}, Factor: 2.0},
	"combustion_drive": {Base: types.Resources{Metal: 400, Deuterium: 600}, Factor: 2.0},
	"impulse_drive":    {Base: types.Resources{Metal: 2000, Crystal: 4000, Deuterium: 600}, Factor: 2.0},
	"weapons_tech":     {Base: types.Resources{Metal: 800, Crystal: 200}, Factor: 2.0},
	"shielding_tech":   {Base: types.Resources{Metal: 200, Crystal: 600}, Factor: 2.0},
	"armour_tech":      {Base: types.Resources{Metal: 1000}, Factor: 2.0},
	"espionage_tech":   {Base: types.Resources{Metal: 200, Crystal: 1000, Deuterium: 200}, Factor: 2.0},
	"computer_tech":    {Base: types.Resources{Crystal: 400, Deuterium: 600}, Factor: 2.0},
	"astrophysics":     {Base: types.Resources{Metal: 4000, Crystal: 8000, Deuterium: 4000}, Factor: 1.75},
}

// --- Units ---

type UnitSpec struct {
	Cost      types.Resources
	Attack    float64
	Shield    float64
	Hull      float64
	Cargo     float64
	Speed     float64 // 0 means the unit cannot fly a mission
	FuelRate  float64 // deuterium per 35k distance units
	RapidFire map[string]int
	Requires  map[string]int // building -> min level
}

var Ships = map[string]UnitSpec{
	"light_fighter":   {Cost: types.Resources{Metal: 3000, Crystal: 1000}, Attack: 50, Shield: 10, Hull: 400, Cargo: 50, Speed: 12500, FuelRate: 20, RapidFire: map[string]int{"espionage_probe": 5}, Requires: map[string]int{"shipyard": 1}},
	"heavy_fighter":   {Cost: types.Resources{Metal: 6000, Crystal: 4000}, Attack: 150, Shield: 25, Hull: 1000, Cargo: 100, Speed: 10000, FuelRate: 75, Requires: map[string]int{"shipyard": 3}},
	"cruiser":         {Cost: types.Resources{Metal: 20000, Crystal: 7000, Deuterium: 2000}, Attack: 400, Shield: 50, Hull: 2700, Cargo: 800, Speed: 15000, FuelRate: 300, RapidFire: map[string]int{"light_fighter": 6, "rocket_launcher": 10}, Requires: map[string]int{"shipyard": 5}},
	"battleship":      {Cost: types.Resources{Metal: 45000, Crystal: 15000}, Attack: 1000, Shield: 200, Hull: 6000, Cargo: 1500, Speed: 10000, FuelRate: 500, RapidFire: map[string]int{"cruiser": 3}, Requires: map[string]int{"shipyard": 7}},
	"small_cargo":     {Cost: types.Resources{Metal: 2000, Crystal: 2000}, Attack: 5, Shield: 10, Hull: 400, Cargo: 5000, Speed: 10000, FuelRate: 10, Requires: map[string]int{"shipyard": 1}},
	"large_cargo":     {Cost: types.Resources{Metal: 6000, Crystal: 6000}, Attack: 5, Shield: 25, Hull: 1200, Cargo: 25000, Speed: 7500, FuelRate: 50, Requires: map[string]int{"shipyard": 4}},
	"colony_ship":     {Cost: types.Resources{Metal: 10000, Crystal: 20000, Deuterium: 10000}, Attack: 50, Shield: 100, Hull: 3000, Cargo: 7500, Speed: 2500, FuelRate: 1000, Requires: map[string]int{"shipyard": 4}},
	"recycler":        {Cost: types.Resources{Metal: 10000, Crystal: 6000, Deuterium: 2000}, Attack: 1, Shield: 10, Hull: 1600, Cargo: 20000, Speed: 2000, FuelRate: 300, Requires: map[string]int{"shipyard": 4}},
	"espionage_probe": {Cost: types.Resources{Crystal: 1000}, Attack: 0, Shield: 0, Hull: 100, Cargo: 5, Speed: 100000000, FuelRate: 1, Requires: map[string]int{"shipyard": 3}},
	"solar_satellite": {Cost: types.Resources{Crystal: 2000, Deuterium: 500}, Attack: 1, Shield: 1, Hull: 200, Requires: map[string]int{"shipyard": 1}},
}

var Defenses = map[string]UnitSpec{
	"rocket_launcher": {Cost: types.Resources{Metal: 2000}, Attack: 80, Shield: 20, Hull: 200, Requires: map[string]int{"shipyard": 1}},
	"light_laser":     {Cost: types.Resources{Metal: 1500, Crystal: 500}, Attack: 100, Shield: 25, Hull: 200, Requires: map[string]int{"shipyard": 2}},
	"heavy_laser":     {Cost: types.Resources{Metal: 6000, Crystal: 2000}, Attack: 250, Shield: 100, Hull: 800, Requires: map[string]int{"shipyard": 4}},
	"ion_cannon":      {Cost: types.Resources{Metal: 5000, Crystal: 3000}, Attack: 150, Shield: 500, Hull: 800, Requires: map[string]int{"shipyard": 4}},
	"plasma_turret":   {Cost: types.Resources{Metal: 50000, Crystal: 50000, Deuterium: 30000}, Attack: 3000, Shield: 300, Hull: 10000, Requires: map[string]int{"shipyard": 8}},
}

// --- Cost & Duration Helpers ---

func BuildingCost(id string, level int) types.Resources {
	spec := Buildings[id]
	f := math.Pow(spec.Factor, float64(level-1))
	return spec.Base.Scale(f)
}

func ResearchCost(id string, level int) types.Resources {
	spec := Research[id]
	f := math.Pow(spec.Factor, float64(level-1))
	return spec.Base.Scale(f)
}

// UpgradeCost prices one retrofit level for a ship class: the base hull cost
// doubled per level already owned.
func UpgradeCost(shipID string, level int) types.Resources {
	spec := Ships[shipID]
	return spec.Cost.Scale(math.Pow(2, float64(level-1)))
}

// UnitValue is the cost-weighted score of one unit, used for sleeper points.
func UnitValue(cost types.Resources) float64 {
	return cost.Total()
}

const minQueueDuration = time.Second

// buildDuration follows the classic (metal+crystal) over infrastructure rule.
func buildDuration(cost types.Resources, robotLevel int) time.Duration {
	hours := (cost.Metal + cost.Crystal) / (2500 * float64(1+robotLevel))
	return clampDuration(hours)
}

func researchDuration(cost types.Resources, labLevel int) time.Duration {
	hours := (cost.Metal + cost.Crystal) / (1000 * float64(1+labLevel))
	return clampDuration(hours)
}

func yardDuration(cost types.Resources, yardLevel int, amount int) time.Duration {
	hours := (cost.Metal + cost.Crystal) * float64(amount) / (5000 * float64(1+yardLevel))
	return clampDuration(hours)
}

func clampDuration(hours float64) time.Duration {
	d := time.Duration(hours * float64(time.Hour))
	if d < minQueueDuration {
		return minQueueDuration
	}
	return d
}
