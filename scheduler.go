package main

import (
	"time"
)

// runGameLoop is the server's own heartbeat: even with no requests coming
// in, the world keeps moving. Each pass advances every player against the
// shared world and periodically snapshots it.
func runGameLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Duration(Config.TickSeconds) * time.Second)
	defer ticker.Stop()

	tickCount := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		tickCount++
		advanceAllPlayers()

		if tickCount%Config.SnapshotTicks == 0 {
			worldLock.Lock()
			snapshotWorld(world)
			worldLock.Unlock()
		}
	}
}

func advanceAllPlayers() {
	for _, playerUUID := range allPlayerUUIDs() {
		mu := playerLock(playerUUID)
		mu.Lock()
		worldLock.Lock()

		p, err := loadPlayer(playerUUID)
		if err != nil {
			// Skip the broken record, keep the loop alive.
			ErrorLog.Printf("tick: player %s unreadable: %v", playerUUID, err)
			worldLock.Unlock()
			mu.Unlock()
			continue
		}
		engine.Advance(p, world)
		savePlayer(p)
		saveWorld(world)

		worldLock.Unlock()
		mu.Unlock()
	}
}
