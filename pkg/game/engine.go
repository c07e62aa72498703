package game

import (
	"fmt"
	"log"
	"math/rand"
	"time"
)

// Cadences and population tuning. Values are wall-clock; the orchestrator
// compares them against timestamps stored on the records, so a single large
// catch-up advance still honors them.
const (
	eventRollInterval = 30 * time.Minute
	bonusCooldown     = 24 * time.Hour

	npcEvolveInterval   = 15 * time.Minute
	sleeperInterval     = 6 * time.Hour
	purgeInterval       = 24 * time.Hour
	hibernateAfter      = 48 * time.Hour
	purgeSleepersAfter  = 30 * 24 * time.Hour
	npcActiveSoftCap    = 40
	npcPopulationTarget = 120
	npcRespawnPerCycle  = 8
	npcSpendAttempts    = 12

	inboxLimit = 200
)

// Engine runs the simulation. Rand and Now are injected so tests can pin
// both the dice and the clock.
type Engine struct {
	Rand *rand.Rand
	Now  func() time.Time
	Log  *log.Logger // warning channel for skip-and-log recovery; may be nil
}

func New(rng *rand.Rand, now func() time.Time, warnLog *log.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{Rand: rng, Now: now, Log: warnLog}
}

func (e *Engine) warnf(format string, args ...interface{}) {
	if e.Log != nil {
		e.Log.Printf("WARN: "+format, args...)
	}
}

// Reject is a validation failure: a player-facing reason, no state mutated.
type Reject struct {
	Reason string
}

func (r Reject) Error() string { return r.Reason }

func rejectf(format string, args ...interface{}) error {
	return Reject{Reason: fmt.Sprintf(format, args...)}
}

// IsReject tells handlers whether an error maps to a 4xx or a 500.
func IsReject(err error) bool {
	_, ok := err.(Reject)
	return ok
}
