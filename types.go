package main

import (
	"starhold/pkg/types"
)

// --- API request/response shapes ---

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Status string      `json:"status"`
	UUID   string      `json:"uuid"`
	Home   types.Coord `json:"home"`
}

type BuildRequest struct {
	Colony    types.Coord `json:"colony"`
	Structure string      `json:"structure"`
}

type ResearchRequest struct {
	Colony     types.Coord `json:"colony"`
	Technology string      `json:"technology"`
}

type UnitsRequest struct {
	Colony types.Coord `json:"colony"`
	Unit   string      `json:"unit"`
	Amount int         `json:"amount"`
}

type UpgradeRequest struct {
	Colony types.Coord `json:"colony"`
	Ship   string      `json:"ship"`
}

type FleetSendRequest struct {
	Origin types.Coord       `json:"origin"`
	Kind   types.MissionKind `json:"kind"`
	Target types.Coord       `json:"target"`
	Ships  map[string]int    `json:"ships"`
}

type FleetRecallRequest struct {
	MissionID string `json:"mission_id"`
}

type PhalanxRequest struct {
	Colony types.Coord `json:"colony"`
}

type SurveyRequest struct {
	Coord types.Coord `json:"coord"`
}

// StateResponse is the full player view plus derived numbers the client
// would otherwise recompute.
type StateResponse struct {
	Player *types.PlayerRecord             `json:"player"`
	Rates  map[types.Coord]types.Resources `json:"rates"`
	Caps   map[types.Coord]types.Resources `json:"caps"`
}
