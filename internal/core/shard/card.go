package shard

import (
	"github.com/tidwall/gjson"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/bgstats/internal/core/mergealg"
)

// Card compares lobbies where the card was played against the "other"
// lobbies of the same hour where it was not.
type Card struct {
	CardID         string
	MmrPercentile  int
	TotalPlayed    int
	Placement      mergealg.Scalar
	TotalOther     int
	PlacementOther mergealg.Scalar

	Turns  []CardTurn
	Heroes []CardHero
}

func (c Card) EntityKey() string { return c.CardID }
func (c Card) Percentile() int   { return c.MmrPercentile }
func (c Card) Samples() int      { return c.TotalPlayed }

type CardTurn struct {
	Turn           int
	Played         int
	Placement      mergealg.Scalar
	PlayedOther    int
	PlacementOther mergealg.Scalar
}

type CardHero struct {
	HeroCardID string
	Played     int
	Placement  mergealg.Scalar
	Turns      []CardTurn
}

type cardTurnWire struct {
	Turn                   int        `json:"turn"`
	TotalPlayedAtTurn      int        `json:"totalPlayedAtTurn"`
	AveragePlacement       null.Float `json:"averagePlacement"`
	TotalPlayedAtTurnOther int        `json:"totalPlayedAtTurnOther"`
	AveragePlacementOther  null.Float `json:"averagePlacementOther"`
}

type cardV1 struct {
	CardID                string         `json:"cardId"`
	MmrPercentile         int            `json:"mmrPercentile"`
	TotalPlayed           int            `json:"totalPlayed"`
	AveragePlacement      null.Float     `json:"averagePlacement"`
	TotalOther            int            `json:"totalOther"`
	AveragePlacementOther null.Float     `json:"averagePlacementOther"`
	TurnStats             []cardTurnWire `json:"turnStats"`
	HeroStats             []struct {
		HeroCardID          string         `json:"heroCardId"`
		TotalPlayedWithHero int            `json:"totalPlayedWithHero"`
		AveragePlacement    null.Float     `json:"averagePlacement"`
		TurnStats           []cardTurnWire `json:"turnStats"`
	} `json:"heroStats"`
}

func NewCardAdapter() *Adapter[Card] {
	return &Adapter[Card]{
		entity:   EntityCard,
		listPath: "cardStats",
		versions: []version[Card]{
			{
				name: VersionDerived,
				detect: func(e gjson.Result) bool {
					return hasString(e, "cardId") && e.Get("totalPlayed").Exists()
				},
				decode: decodeWith(cardFromV1),
			},
		},
	}
}

func weighted(mean null.Float, n int) mergealg.Scalar {
	if !mean.Valid {
		return mergealg.Scalar{}
	}
	return mergealg.ScalarFromMean(mean.Float64, float64(n))
}

func cardFromV1(w cardV1) Card {
	c := Card{
		CardID:         w.CardID,
		MmrPercentile:  w.MmrPercentile,
		TotalPlayed:    w.TotalPlayed,
		Placement:      weighted(w.AveragePlacement, w.TotalPlayed),
		TotalOther:     w.TotalOther,
		PlacementOther: weighted(w.AveragePlacementOther, w.TotalOther),
		Turns:          cardTurns(w.TurnStats),
	}
	for _, h := range w.HeroStats {
		c.Heroes = append(c.Heroes, CardHero{
			HeroCardID: NormalizeHeroID(h.HeroCardID),
			Played:     h.TotalPlayedWithHero,
			Placement:  weighted(h.AveragePlacement, h.TotalPlayedWithHero),
			Turns:      cardTurns(h.TurnStats),
		})
	}
	return c
}

func cardTurns(wire []cardTurnWire) []CardTurn {
	turns := make([]CardTurn, 0, len(wire))
	for _, t := range wire {
		turns = append(turns, CardTurn{
			Turn:           t.Turn,
			Played:         t.TotalPlayedAtTurn,
			Placement:      weighted(t.AveragePlacement, t.TotalPlayedAtTurn),
			PlayedOther:    t.TotalPlayedAtTurnOther,
			PlacementOther: weighted(t.AveragePlacementOther, t.TotalPlayedAtTurnOther),
		})
	}
	return turns
}
