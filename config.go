package main

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is loaded once at boot: defaults, then starhold.yaml if present,
// then STARHOLD_* environment overrides.
var Config struct {
	Addr          string `yaml:"addr"`
	DBPath        string `yaml:"db_path"`
	LogDir        string `yaml:"log_dir"`
	WorldSeed     string `yaml:"world_seed"`
	TickSeconds   int    `yaml:"tick_seconds"`
	SnapshotTicks int    `yaml:"snapshot_ticks"`
}

func initConfig() {
	Config.Addr = ":8080"
	Config.DBPath = "./data/starhold.db"
	Config.LogDir = "./logs"
	Config.WorldSeed = ""
	Config.TickSeconds = 5
	Config.SnapshotTicks = 720

	if raw, err := os.ReadFile("starhold.yaml"); err == nil {
		if err := yaml.Unmarshal(raw, &Config); err != nil {
			panic("starhold.yaml: " + err.Error())
		}
	}

	if v := os.Getenv("STARHOLD_ADDR"); v != "" {
		Config.Addr = v
	}
	if v := os.Getenv("STARHOLD_DB_PATH"); v != "" {
		Config.DBPath = v
	}
	if v := os.Getenv("STARHOLD_LOG_DIR"); v != "" {
		Config.LogDir = v
	}
	if v := os.Getenv("STARHOLD_WORLD_SEED"); v != "" {
		Config.WorldSeed = v
	}
	if v := os.Getenv("STARHOLD_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			Config.TickSeconds = n
		}
	}
	if v := os.Getenv("STARHOLD_SNAPSHOT_TICKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			Config.SnapshotTicks = n
		}
	}
}
