package types

import "time"

// --- Coordinates & Resources ---

// Coord is a "galaxy:system:position" string, e.g. "2:148:7".
type Coord string

type Resources struct {
	Metal     float64 `json:"metal"`
	Crystal   float64 `json:"crystal"`
	Deuterium float64 `json:"deuterium"`
	Energy    float64 `json:"energy"`
}

func (r *Resources) Add(o Resources) {
	r.Metal += o.Metal
	r.Crystal += o.Crystal
	r.Deuterium += o.Deuterium
	r.Energy += o.Energy
}

func (r Resources) Total() float64 {
	return r.Metal + r.Crystal + r.Deuterium
}

// CanAfford ignores energy: energy is a flow, never a price.
func (r Resources) CanAfford(cost Resources) bool {
	return r.Metal >= cost.Metal && r.Crystal >= cost.Crystal && r.Deuterium >= cost.Deuterium
}

func (r *Resources) Spend(cost Resources) {
	r.Metal -= cost.Metal
	r.Crystal -= cost.Crystal
	r.Deuterium -= cost.Deuterium
}

func (r Resources) Scale(f float64) Resources {
	return Resources{Metal: r.Metal * f, Crystal: r.Crystal * f, Deuterium: r.Deuterium * f, Energy: r.Energy * f}
}

// --- Build Queues ---

type QueueKind string

const (
	QueueBuilding    QueueKind = "building"
	QueueResearch    QueueKind = "research"
	QueueShip        QueueKind = "ship"
	QueueDefense     QueueKind = "defense"
	QueueShipUpgrade QueueKind = "ship_upgrade"
)

// QueueItem is one pending completion. Within a queue, Start of item i+1
// equals End of item i; only the head can complete on a tick.
type QueueItem struct {
	Kind     QueueKind     `json:"kind"`
	TargetID string        `json:"target_id"`
	Level    int           `json:"level,omitempty"`  // buildings / research / upgrades
	Amount   int           `json:"amount,omitempty"` // ships / defenses
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// --- Colonies ---

type Colony struct {
	Coord          Coord          `json:"coord"`
	Name           string         `json:"name"`
	Moon           bool           `json:"moon"`
	Home           bool           `json:"home"`
	Specialization string         `json:"specialization,omitempty"` // "" or "deuterium"
	Buildings      map[string]int `json:"buildings"`
	Defenses       map[string]int `json:"defenses"`
	Fleet          map[string]int `json:"fleet"`
	Resources      Resources      `json:"resources"`
	BuildQueue     []QueueItem    `json:"build_queue"` // buildings + research
	YardQueue      []QueueItem    `json:"yard_queue"`  // ships, defenses, upgrades
	FieldsMax      int            `json:"fields_max"`
}

// UsedFields is derived: one field per building level.
func (c *Colony) UsedFields() int {
	used := 0
	for _, lvl := range c.Buildings {
		used += lvl
	}
	return used
}

// --- Fleet Missions ---

type MissionKind string

const (
	MissionAttack     MissionKind = "attack"
	MissionSpy        MissionKind = "spy"
	MissionHarvest    MissionKind = "harvest"
	MissionColonize   MissionKind = "colonize"
	MissionExpedition MissionKind = "expedition"
	MissionExplore    MissionKind = "explore"
)

// FleetMission invariant: Send <= Arrival <= Return. A mission leaves the
// active list exactly when now >= Return.
type FleetMission struct {
	ID        string         `json:"id"`
	Owner     string         `json:"owner"` // player UUID, or "npc:<coord>"
	Origin    Coord          `json:"origin"`
	Target    Coord          `json:"target"`
	Kind      MissionKind    `json:"kind"`
	Ships     map[string]int `json:"ships"`
	Send      time.Time      `json:"send"`
	Arrival   time.Time      `json:"arrival"`
	Return    time.Time      `json:"return"`
	Processed bool           `json:"processed"`
	Recalled  bool           `json:"recalled,omitempty"`
	Loot      Resources      `json:"loot,omitempty"`
}

// --- Transient Events ---

type EventKind string

const (
	EventSolarFlare    EventKind = "solar_flare"
	EventResourceVein  EventKind = "resource_vein"
	EventSpacePlague   EventKind = "space_plague"
	EventContraband    EventKind = "contraband"
	EventGhostShip     EventKind = "ghost_ship"
	EventGoldRush      EventKind = "gold_rush"
	EventStellarAurora EventKind = "stellar_aurora"
)

var AllEvents = []EventKind{
	EventSolarFlare, EventResourceVein, EventSpacePlague, EventContraband,
	EventGhostShip, EventGoldRush, EventStellarAurora,
}

type EventState struct {
	Active  bool      `json:"active"`
	Expires time.Time `json:"expires,omitempty"`
}

// --- Messages ---

type MessageKind string

const (
	MsgInfo         MessageKind = "info"
	MsgSpyReport    MessageKind = "spy_report"
	MsgBattleReport MessageKind = "battle_report"
	MsgMerchant     MessageKind = "merchant_notice"
	MsgEventNotice  MessageKind = "event_notice"
	MsgExpedition   MessageKind = "expedition_outcome"
	MsgExploration  MessageKind = "exploration_outcome"
	MsgColonization MessageKind = "colonization_result"
	MsgPhalanxScan  MessageKind = "phalanx_scan"
)

type BattleReport struct {
	Attacker       string         `json:"attacker"`
	Defender       string         `json:"defender"`
	Coord          Coord          `json:"coord"`
	Rounds         int            `json:"rounds"`
	Winner         string         `json:"winner"` // attacker / defender / draw
	AttackerLosses map[string]int `json:"attacker_losses"`
	DefenderLosses map[string]int `json:"defender_losses"`
	DefenseLosses  map[string]int `json:"defense_losses"`
	Loot           Resources      `json:"loot"`
	Debris         Resources      `json:"debris"`
}

type SpyReport struct {
	Coord     Coord          `json:"coord"`
	Owner     string         `json:"owner"`
	Resources Resources      `json:"resources"`
	Buildings map[string]int `json:"buildings"`
	Fleet     map[string]int `json:"fleet"`
	Defenses  map[string]int `json:"defenses"`
}

type ExpeditionOutcome struct {
	Coord      Coord          `json:"coord"`
	Result     string         `json:"result"` // resources / ships / nothing / losses
	Found      Resources      `json:"found,omitempty"`
	FoundShips map[string]int `json:"found_ships,omitempty"`
	LostShips  map[string]int `json:"lost_ships,omitempty"`
}

type ExplorationOutcome struct {
	Coord     Coord   `json:"coord"`
	HasSystem bool    `json:"has_system"`
	StarType  string  `json:"star_type,omitempty"`
	Richness  float64 `json:"richness,omitempty"`
	Hazards   float64 `json:"hazards,omitempty"`
}

type PhalanxScan struct {
	Coord    Coord          `json:"coord"`
	Missions []FleetMission `json:"missions"`
}

// Message is a closed tagged union: Kind selects which payload pointer is set.
type Message struct {
	ID          string              `json:"id"`
	Kind        MessageKind         `json:"kind"`
	CreatedAt   time.Time           `json:"created_at"`
	Subject     string              `json:"subject"`
	Body        string              `json:"body,omitempty"`
	Battle      *BattleReport       `json:"battle,omitempty"`
	Spy         *SpyReport          `json:"spy,omitempty"`
	Expedition  *ExpeditionOutcome  `json:"expedition,omitempty"`
	Exploration *ExplorationOutcome `json:"exploration,omitempty"`
	Phalanx     *PhalanxScan        `json:"phalanx,omitempty"`
}

// --- Player Record ---

type PlayerRecord struct {
	UUID          string                    `json:"uuid"`
	Username      string                    `json:"username"`
	HomeCoord     Coord                     `json:"home_coord"`
	Colonies      map[Coord]*Colony         `json:"colonies"`
	Research      map[string]int            `json:"research"`
	ShipUpgrades  map[string]int            `json:"ship_upgrades"`
	Missions      []*FleetMission           `json:"missions"`
	Inbox         []Message                 `json:"inbox"`
	Events        map[EventKind]*EventState `json:"events"`
	LastTick      time.Time                 `json:"last_tick"`
	LastEventRoll time.Time                 `json:"last_event_roll"`
	LastBonus     time.Time                 `json:"last_bonus"`
	BonusPending  bool                      `json:"bonus_pending"`
	LastSave      time.Time                 `json:"last_save"`
}

func (p *PlayerRecord) Home() *Colony {
	return p.Colonies[p.HomeCoord]
}

// EventActive reports whether an event is running at the given instant.
func (p *PlayerRecord) EventActive(kind EventKind, now time.Time) bool {
	st, ok := p.Events[kind]
	return ok && st.Active && now.Before(st.Expires)
}

// --- NPC Population ---

type Personality string

const (
	PersonalityEconomic   Personality = "economic"
	PersonalityAggressive Personality = "aggressive"
	PersonalityBalanced   Personality = "balanced"
)

// NPCState is the fully simulated representation of a non-player faction.
type NPCState struct {
	Coord       Coord          `json:"coord"`
	Name        string         `json:"name"`
	Personality Personality    `json:"personality"`
	DevSpeed    float64        `json:"dev_speed"`
	Resources   Resources      `json:"resources"`
	Buildings   map[string]int `json:"buildings"`
	Research    map[string]int `json:"research"`
	Fleet       map[string]int `json:"fleet"`
	Defenses    map[string]int `json:"defenses"`
	LastUpdate  time.Time      `json:"last_update"`
}

// SleeperNPC is the hibernated form: a single cost-weighted point score
// instead of structural detail.
type SleeperNPC struct {
	Coord       Coord       `json:"coord"`
	Name        string      `json:"name"`
	Image       string      `json:"image"`
	Personality Personality `json:"personality"`
	DevSpeed    float64     `json:"dev_speed"`
	Points      float64     `json:"points"`
	Resources   Resources   `json:"resources"`
	LastUpdate  time.Time   `json:"last_update"`
}

type Debris struct {
	Metal   float64 `json:"metal"`
	Crystal float64 `json:"crystal"`
}

// --- World Record ---

type WorldRecord struct {
	Seed         string                `json:"seed"`
	NPCs         map[Coord]*NPCState   `json:"npcs"`
	Sleepers     map[Coord]*SleeperNPC `json:"sleepers"`
	NPCMissions  []*FleetMission       `json:"npc_missions"`
	Debris       map[Coord]*Debris     `json:"debris"`
	Claims       map[Coord]string      `json:"claims"` // colony coordinate -> owner UUID
	LastNPCCheck time.Time             `json:"last_npc_check"`
	LastPurge    time.Time             `json:"last_purge"`
	LastSleeper  time.Time             `json:"last_sleeper"`
}

// Claim records a colony coordinate as owned by a player, so world-level
// actors (NPC spawns, foreign colonization, inbound raids) can see ownership
// without access to every player record.
func (w *WorldRecord) Claim(coord Coord, playerUUID string) {
	if w.Claims == nil {
		w.Claims = make(map[Coord]string)
	}
	w.Claims[coord] = playerUUID
}

func NewWorld(seed string) *WorldRecord {
	return &WorldRecord{
		Seed:     seed,
		NPCs:     make(map[Coord]*NPCState),
		Sleepers: make(map[Coord]*SleeperNPC),
		Debris:   make(map[Coord]*Debris),
		Claims:   make(map[Coord]string),
	}
}
