package shard

import (
	"github.com/tidwall/gjson"

	"exusiai.dev/bgstats/internal/core/mergealg"
)

type Trinket struct {
	TrinketCardID string
	MmrPercentile int
	// Picked is the number of lobbies where the trinket was chosen.
	Picked       int
	TotalOffered int
	Placement    mergealg.Scalar

	Heroes []TrinketHero
}

func (t Trinket) EntityKey() string { return t.TrinketCardID }
func (t Trinket) Percentile() int   { return t.MmrPercentile }
func (t Trinket) Samples() int      { return t.Picked }

type TrinketHero struct {
	HeroCardID string
	DataPoints int
	Placement  mergealg.Scalar
}

type trinketV1 struct {
	TrinketCardID string `json:"trinketCardId"`
	MmrPercentile int    `json:"mmrPercentile"`
	TotalOffered  int    `json:"totalOffered"`
	placementWire
	HeroStats []struct {
		HeroCardID string `json:"heroCardId"`
		placementWire
	} `json:"heroStats"`
}

func NewTrinketAdapter() *Adapter[Trinket] {
	return &Adapter[Trinket]{
		entity:   EntityTrinket,
		listPath: "trinketStats",
		versions: []version[Trinket]{
			{
				name: VersionDerived,
				detect: func(e gjson.Result) bool {
					return hasString(e, "trinketCardId") && e.Get("dataPoints").Exists()
				},
				decode: decodeWith(trinketFromV1),
			},
		},
	}
}

func trinketFromV1(w trinketV1) Trinket {
	t := Trinket{
		TrinketCardID: w.TrinketCardID,
		MmrPercentile: w.MmrPercentile,
		Picked:        w.DataPoints,
		TotalOffered:  w.TotalOffered,
		Placement:     w.scalar(),
	}
	for _, h := range w.HeroStats {
		t.Heroes = append(t.Heroes, TrinketHero{
			HeroCardID: NormalizeHeroID(h.HeroCardID),
			DataPoints: h.DataPoints,
			Placement:  h.scalar(),
		})
	}
	return t
}
