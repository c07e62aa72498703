package game

import (
	"fmt"
	"time"

	"starhold/pkg/types"
)

type eventSpec struct {
	Prob     float64 // chance per roll while inactive
	Duration time.Duration
	Label    string
	Detail   string
}

var eventCatalog = map[types.EventKind]eventSpec{
	types.EventSolarFlare:    {Prob: 0.04, Duration: 2 * time.Hour, Label: "Solar flare", Detail: "Energy output surges by 50%."},
	types.EventResourceVein:  {Prob: 0.05, Duration: 4 * time.Hour, Label: "Resource vein", Detail: "Mines run 30% hotter."},
	types.EventSpacePlague:   {Prob: 0.02, Duration: 3 * time.Hour, Label: "Space plague", Detail: "Shield systems are disrupted fleet-wide."},
	types.EventContraband:    {Prob: 0.04, Duration: 6 * time.Hour, Label: "Contraband", Detail: "Smuggled deuterium cuts mission fuel costs by 30%."},
	types.EventGhostShip:     {Prob: 0.03, Duration: 8 * time.Hour, Label: "Ghost ship", Detail: "Expeditions report derelict hulls adrift."},
	types.EventGoldRush:      {Prob: 0.03, Duration: 2 * time.Hour, Label: "Gold rush", Detail: "Production up 20%, and the merchant pays double."},
	types.EventStellarAurora: {Prob: 0.05, Duration: 3 * time.Hour, Label: "Stellar aurora", Detail: "Solar plants gain 30% output."},
}

// RollEvents expires finished events and rolls each inactive type once.
// An active event is never re-rolled until it expires.
func (e *Engine) RollEvents(p *types.PlayerRecord, now time.Time) {
	if p.Events == nil {
		p.Events = make(map[types.EventKind]*types.EventState)
	}
	for _, kind := range types.AllEvents {
		spec := eventCatalog[kind]
		st := p.Events[kind]
		if st == nil {
			st = &types.EventState{}
			p.Events[kind] = st
		}
		if st.Active {
			if now.Before(st.Expires) {
				continue
			}
			st.Active = false
			e.eventNotice(p, now, fmt.Sprintf("%s subsides", spec.Label), "Conditions have returned to normal.")
		}
		if e.Rand.Float64() < spec.Prob {
			st.Active = true
			st.Expires = now.Add(spec.Duration)
			e.eventNotice(p, now, spec.Label, spec.Detail)
		}
	}
}
