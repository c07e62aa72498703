package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"starhold/pkg/core"
	"starhold/pkg/types"
)

// recordVersion tags every stored blob. Bump it together with a new case in
// migrateRecord when the record layout changes incompatibly.
const recordVersion = 1

func initDB() {
	os.MkdirAll("./data", 0755)

	var err error
	db, err = sql.Open("sqlite", Config.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		panic(err)
	}
	db.Exec("PRAGMA journal_mode=WAL;")

	schema := `
	CREATE TABLE IF NOT EXISTS system_meta (key TEXT PRIMARY KEY, value TEXT);

	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT UNIQUE,
		username TEXT UNIQUE,
		password_hash TEXT,
		version INTEGER DEFAULT 1,
		record BLOB,
		record_hash TEXT,
		updated_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS world (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER DEFAULT 1,
		record BLOB,
		record_hash TEXT,
		updated_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken_at INTEGER,
		state_blob BLOB,
		final_hash TEXT
	);

	CREATE TABLE IF NOT EXISTS message_archive (
		msg_id TEXT PRIMARY KEY,
		player_uuid TEXT,
		kind TEXT,
		created_at INTEGER,
		payload BLOB
	);
	`
	if _, err := db.Exec(schema); err != nil {
		panic(err)
	}

	initWorldSeed()
}

// initWorldSeed pins the procedural seed on first boot. Config may supply
// one; otherwise it is random and persisted so the galaxy never reshuffles.
func initWorldSeed() {
	var seed string
	err := db.QueryRow("SELECT value FROM system_meta WHERE key='world_seed'").Scan(&seed)
	if err == sql.ErrNoRows {
		seed = Config.WorldSeed
		if seed == "" {
			raw := make([]byte, 16)
			rand.Read(raw)
			seed = hex.EncodeToString(raw)
		}
		db.Exec("INSERT INTO system_meta (key, value) VALUES ('world_seed', ?)", seed)
		InfoLog.Printf("FIRST BOOT: world seed %s", seed)
	}
	Config.WorldSeed = seed
}

// --- Record codec ---

func encodeRecord(v interface{}) ([]byte, string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	blob := core.Compress(raw)
	return blob, core.Hash(blob), nil
}

func decodeRecord(blob []byte, version int, v interface{}) error {
	raw := core.Decompress(blob)
	raw, err := migrateRecord(raw, version)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// migrateRecord upgrades an old blob layout to the current one. Each case
// rewrites version N json into version N+1 json and falls through.
func migrateRecord(raw []byte, version int) ([]byte, error) {
	switch {
	case version == recordVersion:
		return raw, nil
	case version > recordVersion:
		return nil, fmt.Errorf("record version %d is newer than this binary (%d)", version, recordVersion)
	default:
		return nil, fmt.Errorf("no migration path from record version %d", version)
	}
}

// --- World persistence ---

func loadWorld() *types.WorldRecord {
	var blob []byte
	var version int
	err := db.QueryRow("SELECT version, record FROM world WHERE id=1").Scan(&version, &blob)
	if err == sql.ErrNoRows {
		w := types.NewWorld(Config.WorldSeed)
		saveWorld(w)
		return w
	}
	if err != nil {
		panic(err)
	}
	w := &types.WorldRecord{}
	if err := decodeRecord(blob, version, w); err != nil {
		panic(err)
	}
	return w
}

func saveWorld(w *types.WorldRecord) {
	blob, hash, err := encodeRecord(w)
	if err != nil {
		ErrorLog.Printf("world encode: %v", err)
		return
	}
	db.Exec(`INSERT INTO world (id, version, record, record_hash, updated_at) VALUES (1, ?, ?, ?, ?)
	         ON CONFLICT(id) DO UPDATE SET version=excluded.version, record=excluded.record,
	         record_hash=excluded.record_hash, updated_at=excluded.updated_at`,
		recordVersion, blob, hash, time.Now().Unix())
}

// --- Player persistence ---

func createPlayer(username, password string, now time.Time) (*types.PlayerRecord, error) {
	var count int
	db.QueryRow("SELECT count(*) FROM players WHERE username=?", username).Scan(&count)
	if count > 0 {
		return nil, fmt.Errorf("username taken")
	}

	// Spread home systems out deterministically by join order.
	var n int
	db.QueryRow("SELECT count(*) FROM players").Scan(&n)
	home := types.Coord(fmt.Sprintf("%d:%d:%d", 1+n%9, 1+(n*37)%499, 4+n%9))

	p := &types.PlayerRecord{
		UUID:      uuid.New().String(),
		Username:  username,
		HomeCoord: home,
		Colonies: map[types.Coord]*types.Colony{
			home: {
				Coord:     home,
				Name:      username + " Prime",
				Home:      true,
				Buildings: map[string]int{"metal_mine": 1, "solar_plant": 1},
				Defenses:  make(map[string]int),
				Fleet:     make(map[string]int),
				Resources: types.Resources{Metal: 500, Crystal: 300, Deuterium: 100},
				FieldsMax: 163,
			},
		},
		Research:     make(map[string]int),
		ShipUpgrades: make(map[string]int),
		Events:       make(map[types.EventKind]*types.EventState),
		LastTick:     now,
	}

	blob, hash, err := encodeRecord(p)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`INSERT INTO players (uuid, username, password_hash, version, record, record_hash, updated_at)
	                  VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UUID, username, core.HashPassword(password), recordVersion, blob, hash, now.Unix())
	if err != nil {
		return nil, err
	}
	return p, nil
}

func loadPlayer(playerUUID string) (*types.PlayerRecord, error) {
	var blob []byte
	var version int
	err := db.QueryRow("SELECT version, record FROM players WHERE uuid=?", playerUUID).Scan(&version, &blob)
	if err != nil {
		return nil, err
	}
	p := &types.PlayerRecord{}
	if err := decodeRecord(blob, version, p); err != nil {
		return nil, err
	}
	return p, nil
}

func savePlayer(p *types.PlayerRecord) {
	p.LastSave = time.Now()
	blob, hash, err := encodeRecord(p)
	if err != nil {
		ErrorLog.Printf("player %s encode: %v", p.UUID, err)
		return
	}
	db.Exec("UPDATE players SET version=?, record=?, record_hash=?, updated_at=? WHERE uuid=?",
		recordVersion, blob, hash, time.Now().Unix(), p.UUID)
	archiveMessages(p)
}

// archiveMessages copies the inbox into the archive table. The inbox drops
// its oldest entries past the cap; the archive keeps everything. Message IDs
// are UUIDs, so re-inserting an already archived message is a no-op.
func archiveMessages(p *types.PlayerRecord) {
	for i := range p.Inbox {
		msg := &p.Inbox[i]
		raw, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		db.Exec(`INSERT OR IGNORE INTO message_archive (msg_id, player_uuid, kind, created_at, payload)
		         VALUES (?, ?, ?, ?, ?)`,
			msg.ID, p.UUID, string(msg.Kind), msg.CreatedAt.Unix(), core.Compress(raw))
	}
}

func authenticate(username, password string) (string, bool) {
	var playerUUID, hash string
	err := db.QueryRow("SELECT uuid, password_hash FROM players WHERE username=?", username).Scan(&playerUUID, &hash)
	if err != nil || hash != core.HashPassword(password) {
		return "", false
	}
	return playerUUID, true
}

func allPlayerUUIDs() []string {
	rows, err := db.Query("SELECT uuid FROM players")
	if err != nil {
		ErrorLog.Printf("player scan: %v", err)
		return nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var u string
		if rows.Scan(&u) == nil {
			out = append(out, u)
		}
	}
	return out
}

// snapshotWorld stores a compressed copy of the world chained onto the
// previous snapshot's hash, so tampering with history is detectable.
func snapshotWorld(w *types.WorldRecord) {
	blob, _, err := encodeRecord(w)
	if err != nil {
		ErrorLog.Printf("snapshot encode: %v", err)
		return
	}

	prevHash := "GENESIS-" + Config.WorldSeed
	db.QueryRow("SELECT final_hash FROM snapshots ORDER BY id DESC LIMIT 1").Scan(&prevHash)

	finalHash := core.Hash(append(blob, []byte(prevHash)...))
	db.Exec("INSERT INTO snapshots (taken_at, state_blob, final_hash) VALUES (?, ?, ?)",
		time.Now().Unix(), blob, finalHash)
	InfoLog.Printf("Snapshot stored. Size: %d bytes. Hash: %s", len(blob), finalHash)
}
