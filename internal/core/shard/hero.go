package shard

import (
	"github.com/tidwall/gjson"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/bgstats/internal/core/mergealg"
)

type Hero struct {
	HeroCardID    string
	MmrPercentile int
	DataPoints    int
	TotalOffered  int
	TotalPicked   int

	Position  mergealg.Scalar
	Spread    mergealg.Variance
	Placement mergealg.Distribution
	Warband   mergealg.Curve
	Combat    mergealg.Curve

	Tribes []HeroTribe
}

func (h Hero) EntityKey() string { return h.HeroCardID }
func (h Hero) Percentile() int   { return h.MmrPercentile }
func (h Hero) Samples() int      { return h.DataPoints }

type HeroTribe struct {
	Tribe                    int
	DataPoints               int
	DataPointsOnMissingTribe int
	TotalOffered             int
	TotalPicked              int

	Position             mergealg.Scalar
	PositionWithoutTribe mergealg.Scalar
}

type heroTribeWire struct {
	Tribe                       int        `json:"tribe"`
	DataPoints                  int        `json:"dataPoints"`
	DataPointsOnMissingTribe    int        `json:"dataPointsOnMissingTribe"`
	TotalOffered                int        `json:"totalOffered"`
	TotalPicked                 int        `json:"totalPicked"`
	AveragePosition             null.Float `json:"averagePosition"`
	AveragePositionWithoutTribe null.Float `json:"averagePositionWithoutTribe"`
}

type heroWireBase struct {
	HeroCardID        string          `json:"heroCardId"`
	MmrPercentile     int             `json:"mmrPercentile"`
	DataPoints        int             `json:"dataPoints"`
	TotalOffered      int             `json:"totalOffered"`
	TotalPicked       int             `json:"totalPicked"`
	AveragePosition   null.Float      `json:"averagePosition"`
	StandardDeviation null.Float      `json:"standardDeviation"`
	TribeStats        []heroTribeWire `json:"tribeStats"`
}

// heroV1 carries only derived values: placement percentages and per-turn
// averages.
type heroV1 struct {
	heroWireBase
	PlacementDistribution []struct {
		Rank       int        `json:"rank"`
		Percentage null.Float `json:"percentage"`
	} `json:"placementDistribution"`
	WarbandStats []struct {
		Turn         int        `json:"turn"`
		AverageStats null.Float `json:"averageStats"`
	} `json:"warbandStats"`
	CombatWinrate []struct {
		Turn    int        `json:"turn"`
		Winrate null.Float `json:"winrate"`
	} `json:"combatWinrate"`
}

// heroV2 carries raw per-rank and per-turn totals next to the derived
// position and deviation.
type heroV2 struct {
	heroWireBase
	PlacementDistributionRaw []struct {
		Rank         int     `json:"rank"`
		TotalMatches float64 `json:"totalMatches"`
	} `json:"placementDistributionRaw"`
	WarbandStatsRaw []struct {
		Turn       int     `json:"turn"`
		DataPoints float64 `json:"dataPoints"`
		TotalStats float64 `json:"totalStats"`
	} `json:"warbandStatsRaw"`
	CombatWinrateRaw []struct {
		Turn         int     `json:"turn"`
		DataPoints   float64 `json:"dataPoints"`
		TotalWinrate float64 `json:"totalWinrate"`
	} `json:"combatWinrateRaw"`
}

// heroV3 stores the merge accumulators themselves.
type heroV3 struct {
	HeroCardID    string `json:"heroCardId"`
	MmrPercentile int    `json:"mmrPercentile"`
	DataPoints    int    `json:"dataPoints"`
	TotalOffered  int    `json:"totalOffered"`
	TotalPicked   int    `json:"totalPicked"`
	Accumulators  struct {
		Position  mergealg.Scalar       `json:"position"`
		Spread    mergealg.Variance     `json:"spread"`
		Placement mergealg.Distribution `json:"placement"`
		Warband   mergealg.Curve        `json:"warband"`
		Combat    mergealg.Curve        `json:"combat"`
	} `json:"accumulators"`
	TribeStats []heroTribeWire `json:"tribeStats"`
}

func NewHeroAdapter() *Adapter[Hero] {
	return &Adapter[Hero]{
		entity:   EntityHero,
		listPath: "heroStats",
		versions: []version[Hero]{
			{
				name: VersionAccumulators,
				detect: func(e gjson.Result) bool {
					return hasString(e, "heroCardId") && e.Get("accumulators").IsObject()
				},
				decode: decodeWith(heroFromV3),
			},
			{
				name: VersionRawCurves,
				detect: func(e gjson.Result) bool {
					return hasString(e, "heroCardId") &&
						hasAny(e, "placementDistributionRaw", "warbandStatsRaw", "combatWinrateRaw")
				},
				decode: decodeWith(heroFromV2),
			},
			{
				name: VersionDerived,
				detect: func(e gjson.Result) bool {
					return hasString(e, "heroCardId") &&
						hasAny(e, "averagePosition", "placementDistribution")
				},
				decode: decodeWith(heroFromV1),
			},
		},
	}
}

func (b heroWireBase) hero() Hero {
	n := float64(b.DataPoints)
	h := Hero{
		HeroCardID:    NormalizeHeroID(b.HeroCardID),
		MmrPercentile: b.MmrPercentile,
		DataPoints:    b.DataPoints,
		TotalOffered:  b.TotalOffered,
		TotalPicked:   b.TotalPicked,
		Placement:     mergealg.Distribution{},
		Warband:       mergealg.Curve{},
		Combat:        mergealg.Curve{},
		Tribes:        heroTribes(b.TribeStats),
	}
	if b.AveragePosition.Valid {
		h.Position = mergealg.ScalarFromMean(b.AveragePosition.Float64, n)
	}
	if b.StandardDeviation.Valid {
		h.Spread = mergealg.VarianceFromStdDev(b.StandardDeviation.Float64, n)
	}
	return h
}

func heroFromV1(w heroV1) Hero {
	h := w.hero()
	n := float64(w.DataPoints)
	for _, p := range w.PlacementDistribution {
		if p.Percentage.Valid {
			h.Placement[p.Rank] += p.Percentage.Float64 / 100 * n
		}
	}
	for _, s := range w.WarbandStats {
		if s.AverageStats.Valid {
			h.Warband[s.Turn] = mergealg.CurvePoint{Count: n, Sum: s.AverageStats.Float64 * n}
		}
	}
	for _, s := range w.CombatWinrate {
		if s.Winrate.Valid {
			h.Combat[s.Turn] = mergealg.CurvePoint{Count: n, Sum: s.Winrate.Float64 * n}
		}
	}
	return h
}

func heroFromV2(w heroV2) Hero {
	h := w.hero()
	for _, p := range w.PlacementDistributionRaw {
		h.Placement[p.Rank] += p.TotalMatches
	}
	for _, s := range w.WarbandStatsRaw {
		cur := h.Warband[s.Turn]
		h.Warband[s.Turn] = mergealg.CurvePoint{Count: cur.Count + s.DataPoints, Sum: cur.Sum + s.TotalStats}
	}
	for _, s := range w.CombatWinrateRaw {
		cur := h.Combat[s.Turn]
		h.Combat[s.Turn] = mergealg.CurvePoint{Count: cur.Count + s.DataPoints, Sum: cur.Sum + s.TotalWinrate}
	}
	return h
}

func heroFromV3(w heroV3) Hero {
	h := Hero{
		HeroCardID:    NormalizeHeroID(w.HeroCardID),
		MmrPercentile: w.MmrPercentile,
		DataPoints:    w.DataPoints,
		TotalOffered:  w.TotalOffered,
		TotalPicked:   w.TotalPicked,
		Position:      w.Accumulators.Position,
		Spread:        w.Accumulators.Spread,
		Placement:     w.Accumulators.Placement,
		Warband:       w.Accumulators.Warband,
		Combat:        w.Accumulators.Combat,
		Tribes:        heroTribes(w.TribeStats),
	}
	if h.Placement == nil {
		h.Placement = mergealg.Distribution{}
	}
	if h.Warband == nil {
		h.Warband = mergealg.Curve{}
	}
	if h.Combat == nil {
		h.Combat = mergealg.Curve{}
	}
	return h
}

func heroTribes(wire []heroTribeWire) []HeroTribe {
	tribes := make([]HeroTribe, 0, len(wire))
	for _, t := range wire {
		tribe := HeroTribe{
			Tribe:                    t.Tribe,
			DataPoints:               t.DataPoints,
			DataPointsOnMissingTribe: t.DataPointsOnMissingTribe,
			TotalOffered:             t.TotalOffered,
			TotalPicked:              t.TotalPicked,
		}
		if t.AveragePosition.Valid {
			tribe.Position = mergealg.ScalarFromMean(t.AveragePosition.Float64, float64(t.DataPoints))
		}
		if t.AveragePositionWithoutTribe.Valid {
			tribe.PositionWithoutTribe = mergealg.ScalarFromMean(
				t.AveragePositionWithoutTribe.Float64, float64(t.DataPointsOnMissingTribe))
		}
		tribes = append(tribes, tribe)
	}
	return tribes
}
