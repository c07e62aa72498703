package main

import (
	"database/sql"
	"log"
	"sync"

	"golang.org/x/time/rate"

	"starhold/pkg/game"
	"starhold/pkg/types"
)

var (
	// Infrastructure
	db       *sql.DB
	InfoLog  *log.Logger
	ErrorLog *log.Logger

	// Simulation
	engine *game.Engine

	// World state. Loaded once at boot, mutated only under worldLock.
	world     *types.WorldRecord
	worldLock sync.Mutex

	// Per-player locking. Every handler that touches a player record takes
	// that player's mutex for the whole load-advance-act-save span.
	playerLocks map[string]*sync.Mutex
	lockTable   sync.Mutex

	// Rate Limiting
	ipLimiters = make(map[string]*rate.Limiter)
	ipLock     sync.Mutex
)

func playerLock(uuid string) *sync.Mutex {
	lockTable.Lock()
	defer lockTable.Unlock()
	if playerLocks == nil {
		playerLocks = make(map[string]*sync.Mutex)
	}
	mu, ok := playerLocks[uuid]
	if !ok {
		mu = &sync.Mutex{}
		playerLocks[uuid] = mu
	}
	return mu
}
