package shard

import (
	"github.com/tidwall/gjson"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/bgstats/internal/core/mergealg"
)

// Quest and reward entries share a file: questStats and rewardStats.

type Quest struct {
	QuestCardID   string
	MmrPercentile int
	DataPoints    int

	TurnsToComplete mergealg.Scalar
	Completion      mergealg.Scalar

	Difficulties []QuestBreakdown[int]
	Heroes       []QuestBreakdown[string]
	Tribes       []QuestBreakdown[int]
}

func (q Quest) EntityKey() string { return q.QuestCardID }
func (q Quest) Percentile() int   { return q.MmrPercentile }
func (q Quest) Samples() int      { return q.DataPoints }

type QuestBreakdown[K comparable] struct {
	Key             K
	DataPoints      int
	TurnsToComplete mergealg.Scalar
	Completion      mergealg.Scalar
}

type questMetricsWire struct {
	DataPoints            int        `json:"dataPoints"`
	AverageTurnToComplete null.Float `json:"averageTurnToComplete"`
	CompletionRate        null.Float `json:"completionRate"`
}

func (w questMetricsWire) scalars() (turns, completion mergealg.Scalar) {
	return weighted(w.AverageTurnToComplete, w.DataPoints), weighted(w.CompletionRate, w.DataPoints)
}

type questV1 struct {
	QuestCardID   string `json:"questCardId"`
	MmrPercentile int    `json:"mmrPercentile"`
	questMetricsWire
	DifficultyStats []struct {
		Difficulty int `json:"difficulty"`
		questMetricsWire
	} `json:"difficultyStats"`
	HeroStats []struct {
		HeroCardID string `json:"heroCardId"`
		questMetricsWire
	} `json:"heroStats"`
	TribeStats []struct {
		Tribe int `json:"tribe"`
		questMetricsWire
	} `json:"tribeStats"`
}

func NewQuestAdapter() *Adapter[Quest] {
	return &Adapter[Quest]{
		entity:   EntityQuest,
		listPath: "questStats",
		versions: []version[Quest]{
			{
				name: VersionDerived,
				detect: func(e gjson.Result) bool {
					return hasString(e, "questCardId") && e.Get("dataPoints").Exists()
				},
				decode: decodeWith(questFromV1),
			},
		},
	}
}

func questFromV1(w questV1) Quest {
	q := Quest{
		QuestCardID:   w.QuestCardID,
		MmrPercentile: w.MmrPercentile,
		DataPoints:    w.DataPoints,
	}
	q.TurnsToComplete, q.Completion = w.scalars()
	for _, d := range w.DifficultyStats {
		q.Difficulties = append(q.Difficulties, questBreakdown(d.Difficulty, d.questMetricsWire))
	}
	for _, h := range w.HeroStats {
		q.Heroes = append(q.Heroes, questBreakdown(NormalizeHeroID(h.HeroCardID), h.questMetricsWire))
	}
	for _, t := range w.TribeStats {
		q.Tribes = append(q.Tribes, questBreakdown(t.Tribe, t.questMetricsWire))
	}
	return q
}

func questBreakdown[K comparable](key K, w questMetricsWire) QuestBreakdown[K] {
	turns, completion := w.scalars()
	return QuestBreakdown[K]{
		Key:             key,
		DataPoints:      w.DataPoints,
		TurnsToComplete: turns,
		Completion:      completion,
	}
}

type Reward struct {
	RewardCardID  string
	MmrPercentile int
	DataPoints    int
	Placement     mergealg.Scalar

	Heroes []RewardBreakdown[string]
	Tribes []RewardBreakdown[int]
}

func (r Reward) EntityKey() string { return r.RewardCardID }
func (r Reward) Percentile() int   { return r.MmrPercentile }
func (r Reward) Samples() int      { return r.DataPoints }

type RewardBreakdown[K comparable] struct {
	Key        K
	DataPoints int
	Placement  mergealg.Scalar
}

type placementWire struct {
	DataPoints       int        `json:"dataPoints"`
	AveragePlacement null.Float `json:"averagePlacement"`
}

func (w placementWire) scalar() mergealg.Scalar {
	return weighted(w.AveragePlacement, w.DataPoints)
}

type rewardV1 struct {
	RewardCardID  string `json:"rewardCardId"`
	MmrPercentile int    `json:"mmrPercentile"`
	placementWire
	HeroStats []struct {
		HeroCardID string `json:"heroCardId"`
		placementWire
	} `json:"heroStats"`
	TribeStats []struct {
		Tribe int `json:"tribe"`
		placementWire
	} `json:"tribeStats"`
}

func NewRewardAdapter() *Adapter[Reward] {
	return &Adapter[Reward]{
		entity:   EntityReward,
		listPath: "rewardStats",
		versions: []version[Reward]{
			{
				name: VersionDerived,
				detect: func(e gjson.Result) bool {
					return hasString(e, "rewardCardId") && e.Get("dataPoints").Exists()
				},
				decode: decodeWith(rewardFromV1),
			},
		},
	}
}

func rewardFromV1(w rewardV1) Reward {
	r := Reward{
		RewardCardID:  w.RewardCardID,
		MmrPercentile: w.MmrPercentile,
		DataPoints:    w.DataPoints,
		Placement:     w.scalar(),
	}
	for _, h := range w.HeroStats {
		r.Heroes = append(r.Heroes, RewardBreakdown[string]{
			Key:        NormalizeHeroID(h.HeroCardID),
			DataPoints: h.DataPoints,
			Placement:  h.scalar(),
		})
	}
	for _, t := range w.TribeStats {
		r.Tribes = append(r.Tribes, RewardBreakdown[int]{
			Key:        t.Tribe,
			DataPoints: t.DataPoints,
			Placement:  t.scalar(),
		})
	}
	return r
}
