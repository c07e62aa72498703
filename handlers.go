package main

import (
	"encoding/json"
	"net/http"
	"time"

	"starhold/pkg/game"
	"starhold/pkg/types"
)

// withPlayer is the access pattern every authenticated handler shares: take
// the player's lock and the world lock, load both records, bring the player
// up to date, run the action, persist. The world lock is always taken second
// and released with the player's.
func withPlayer(w http.ResponseWriter, r *http.Request, fn func(p *types.PlayerRecord, wr *types.WorldRecord) error) {
	playerUUID := r.Header.Get("X-User-ID")
	if playerUUID == "" {
		http.Error(w, "Missing X-User-ID", 401)
		return
	}

	mu := playerLock(playerUUID)
	mu.Lock()
	defer mu.Unlock()
	worldLock.Lock()
	defer worldLock.Unlock()

	p, err := loadPlayer(playerUUID)
	if err != nil {
		http.Error(w, "Unknown Player", 403)
		return
	}

	engine.Advance(p, world)

	if err := fn(p, world); err != nil {
		gameError(w, err)
		savePlayer(p)
		saveWorld(world)
		return
	}
	savePlayer(p)
	saveWorld(world)
}

// --- Auth ---

func handleRegister(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	json.NewDecoder(r.Body).Decode(&req)
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password required", 400)
		return
	}
	p, err := createPlayer(req.Username, req.Password, time.Now())
	if err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	worldLock.Lock()
	world.Claim(p.HomeCoord, p.UUID)
	saveWorld(world)
	worldLock.Unlock()
	InfoLog.Printf("REGISTER: %s at %s", p.Username, p.HomeCoord)
	writeJSON(w, AuthResponse{Status: "registered", UUID: p.UUID, Home: p.HomeCoord})
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	json.NewDecoder(r.Body).Decode(&req)
	playerUUID, ok := authenticate(req.Username, req.Password)
	if !ok {
		http.Error(w, "Bad Credentials", 401)
		return
	}
	p, err := loadPlayer(playerUUID)
	if err != nil {
		http.Error(w, "Corrupt Record", 500)
		return
	}
	writeJSON(w, AuthResponse{Status: "ok", UUID: playerUUID, Home: p.HomeCoord})
}

// --- State ---

func handleState(w http.ResponseWriter, r *http.Request) {
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		now := engine.Now()
		resp := StateResponse{
			Player: p,
			Rates:  make(map[types.Coord]types.Resources),
			Caps:   make(map[types.Coord]types.Resources),
		}
		for coord, c := range p.Colonies {
			resp.Rates[coord] = game.ProductionRates(p, c, now)
			resp.Caps[coord] = game.Capacity(c)
		}
		writeJSON(w, resp)
		return nil
	})
}

func handleMessages(w http.ResponseWriter, r *http.Request) {
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		writeJSON(w, p.Inbox)
		return nil
	})
}

// handleSurvey exposes the procedural galaxy math: what a telescope can tell
// about a coordinate without flying there.
func handleSurvey(w http.ResponseWriter, r *http.Request) {
	var req SurveyRequest
	json.NewDecoder(r.Body).Decode(&req)
	writeJSON(w, game.SectorData(Config.WorldSeed, req.Coord))
}

// --- Construction ---

func colonyOf(p *types.PlayerRecord, coord types.Coord) (*types.Colony, error) {
	c, ok := p.Colonies[coord]
	if !ok {
		return nil, game.Reject{Reason: "no colony at " + string(coord)}
	}
	return c, nil
}

func handleBuild(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	json.NewDecoder(r.Body).Decode(&req)
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		c, err := colonyOf(p, req.Colony)
		if err != nil {
			return err
		}
		if err := game.EnqueueBuilding(p, c, req.Structure, engine.Now()); err != nil {
			return err
		}
		writeJSON(w, c.BuildQueue)
		return nil
	})
}

func handleResearch(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest
	json.NewDecoder(r.Body).Decode(&req)
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		c, err := colonyOf(p, req.Colony)
		if err != nil {
			return err
		}
		if err := game.EnqueueResearch(p, c, req.Technology, engine.Now()); err != nil {
			return err
		}
		writeJSON(w, c.BuildQueue)
		return nil
	})
}

func handleShipyard(w http.ResponseWriter, r *http.Request) {
	var req UnitsRequest
	json.NewDecoder(r.Body).Decode(&req)
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		c, err := colonyOf(p, req.Colony)
		if err != nil {
			return err
		}
		if err := game.EnqueueShips(c, req.Unit, req.Amount, engine.Now()); err != nil {
			return err
		}
		writeJSON(w, c.YardQueue)
		return nil
	})
}

func handleDefense(w http.ResponseWriter, r *http.Request) {
	var req UnitsRequest
	json.NewDecoder(r.Body).Decode(&req)
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		c, err := colonyOf(p, req.Colony)
		if err != nil {
			return err
		}
		if err := game.EnqueueDefense(c, req.Unit, req.Amount, engine.Now()); err != nil {
			return err
		}
		writeJSON(w, c.YardQueue)
		return nil
	})
}

func handleUpgrade(w http.ResponseWriter, r *http.Request) {
	var req UpgradeRequest
	json.NewDecoder(r.Body).Decode(&req)
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		c, err := colonyOf(p, req.Colony)
		if err != nil {
			return err
		}
		if err := game.EnqueueShipUpgrade(p, c, req.Ship, engine.Now()); err != nil {
			return err
		}
		writeJSON(w, c.YardQueue)
		return nil
	})
}

// --- Fleet ---

func handleFleetSend(w http.ResponseWriter, r *http.Request) {
	var req FleetSendRequest
	json.NewDecoder(r.Body).Decode(&req)
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		m, err := engine.SendFleet(p, req.Origin, req.Kind, req.Target, req.Ships, engine.Now())
		if err != nil {
			return err
		}
		InfoLog.Printf("FLEET: %s sends %s to %s", p.Username, m.Kind, m.Target)
		writeJSON(w, m)
		return nil
	})
}

func handleFleetRecall(w http.ResponseWriter, r *http.Request) {
	var req FleetRecallRequest
	json.NewDecoder(r.Body).Decode(&req)
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		if err := engine.RecallFleet(p, req.MissionID, engine.Now()); err != nil {
			return err
		}
		writeJSON(w, p.Missions)
		return nil
	})
}

// --- Bonus & Sensors ---

func handleBonusClaim(w http.ResponseWriter, r *http.Request) {
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		grant, err := engine.ClaimBonus(p, engine.Now())
		if err != nil {
			return err
		}
		writeJSON(w, grant)
		return nil
	})
}

func handlePhalanx(w http.ResponseWriter, r *http.Request) {
	var req PhalanxRequest
	json.NewDecoder(r.Body).Decode(&req)
	withPlayer(w, r, func(p *types.PlayerRecord, wr *types.WorldRecord) error {
		scan, err := engine.PhalanxScan(p, wr, req.Colony, engine.Now())
		if err != nil {
			return err
		}
		writeJSON(w, scan)
		return nil
	})
}
