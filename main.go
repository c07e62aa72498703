package main

import (
	"encoding/json"
	"net/http"
	"time"

	"starhold/pkg/game"
)

func main() {
	initConfig()
	setupLogging()
	initDB()

	engine = game.New(nil, nil, ErrorLog)
	world = loadWorld()

	InfoLog.Println("STARHOLD BOOT SEQUENCE")
	InfoLog.Printf("Seed: %s | Tick: %ds", Config.WorldSeed, Config.TickSeconds)

	stop := make(chan struct{})
	go runGameLoop(stop)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/register", handleRegister)
	mux.HandleFunc("/api/login", handleLogin)
	mux.HandleFunc("/api/state", handleState)
	mux.HandleFunc("/api/messages", handleMessages)
	mux.HandleFunc("/api/survey", handleSurvey)
	mux.HandleFunc("/api/build", handleBuild)
	mux.HandleFunc("/api/research", handleResearch)
	mux.HandleFunc("/api/shipyard", handleShipyard)
	mux.HandleFunc("/api/defense", handleDefense)
	mux.HandleFunc("/api/upgrade", handleUpgrade)
	mux.HandleFunc("/api/fleet/send", handleFleetSend)
	mux.HandleFunc("/api/fleet/recall", handleFleetRecall)
	mux.HandleFunc("/api/bonus/claim", handleBonusClaim)
	mux.HandleFunc("/api/phalanx", handlePhalanx)

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"seed": Config.WorldSeed, "time": time.Now().Unix(),
		})
	})

	handler := middlewareSecurity(mux)
	handler = middlewareCORS(handler)

	server := &http.Server{
		Addr:         Config.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	InfoLog.Printf("Listening on %s", Config.Addr)
	if err := server.ListenAndServe(); err != nil {
		ErrorLog.Fatal(err)
	}
}
