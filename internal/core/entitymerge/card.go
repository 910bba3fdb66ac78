package entitymerge

import (
	"github.com/samber/lo"

	"exusiai.dev/bgstats/internal/core/mergealg"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/model"
)

func Cards(entries []shard.Card, opts Options) Result[model.CardStat] {
	return mergeEntities(entries, opts, 0,
		mergeCard,
		func(s model.CardStat) int { return s.TotalPlayed },
	)
}

func mergeCard(cardID string, group []shard.Card) model.CardStat {
	placement := mean(group, func(c shard.Card) mergealg.Scalar { return c.Placement })
	other := mean(group, func(c shard.Card) mergealg.Scalar { return c.PlacementOther })

	var (
		turns  []shard.CardTurn
		heroes []shard.CardHero
	)
	for _, c := range group {
		turns = append(turns, c.Turns...)
		heroes = append(heroes, c.Heroes...)
	}
	keys, byHero := groupSorted(heroes, func(h shard.CardHero) string { return h.HeroCardID })

	return model.CardStat{
		CardID:                cardID,
		TotalPlayed:           lo.SumBy(group, func(c shard.Card) int { return c.TotalPlayed }),
		AveragePlacement:      round(placement),
		TotalOther:            lo.SumBy(group, func(c shard.Card) int { return c.TotalOther }),
		AveragePlacementOther: round(other),
		ImpactPlacement:       round(mergealg.Impact(placement, other)),
		TurnStats:             mergeCardTurns(turns),
		HeroStats: lo.Map(keys, func(heroCardID string, _ int) model.CardHeroStat {
			members := byHero[heroCardID]
			var heroTurns []shard.CardTurn
			for _, m := range members {
				heroTurns = append(heroTurns, m.Turns...)
			}
			return model.CardHeroStat{
				HeroCardID:          heroCardID,
				TotalPlayedWithHero: lo.SumBy(members, func(h shard.CardHero) int { return h.Played }),
				AveragePlacement:    round(mean(members, func(h shard.CardHero) mergealg.Scalar { return h.Placement })),
				TurnStats:           mergeCardTurns(heroTurns),
			}
		}),
	}
}

func mergeCardTurns(turns []shard.CardTurn) []model.CardTurnStat {
	keys, byTurn := groupSorted(turns, func(t shard.CardTurn) int { return t.Turn })
	return lo.Map(keys, func(turn int, _ int) model.CardTurnStat {
		members := byTurn[turn]
		placement := mean(members, func(t shard.CardTurn) mergealg.Scalar { return t.Placement })
		other := mean(members, func(t shard.CardTurn) mergealg.Scalar { return t.PlacementOther })
		return model.CardTurnStat{
			Turn:                   turn,
			TotalPlayedAtTurn:      lo.SumBy(members, func(t shard.CardTurn) int { return t.Played }),
			AveragePlacement:       round(placement),
			TotalPlayedAtTurnOther: lo.SumBy(members, func(t shard.CardTurn) int { return t.PlayedOther }),
			AveragePlacementOther:  round(other),
			ImpactPlacement:        round(mergealg.Impact(placement, other)),
		}
	})
}
