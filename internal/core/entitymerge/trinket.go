package entitymerge

import (
	"github.com/samber/lo"

	"exusiai.dev/bgstats/internal/core/mergealg"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/model"
)

func Trinkets(entries []shard.Trinket, opts Options) Result[model.TrinketStat] {
	return mergeEntities(entries, opts, 0,
		mergeTrinket,
		func(s model.TrinketStat) int { return s.DataPoints },
	)
}

func mergeTrinket(trinketCardID string, group []shard.Trinket) model.TrinketStat {
	picked := lo.SumBy(group, func(t shard.Trinket) int { return t.Picked })
	offered := lo.SumBy(group, func(t shard.Trinket) int { return t.TotalOffered })

	var heroes []shard.TrinketHero
	for _, t := range group {
		heroes = append(heroes, t.Heroes...)
	}
	keys, byHero := groupSorted(heroes, func(h shard.TrinketHero) string { return h.HeroCardID })

	return model.TrinketStat{
		TrinketCardID:    trinketCardID,
		DataPoints:       picked,
		TotalOffered:     offered,
		PickRate:         round(mergealg.Ratio(float64(picked), float64(offered))),
		AveragePlacement: round(mean(group, func(t shard.Trinket) mergealg.Scalar { return t.Placement })),
		HeroStats: lo.Map(keys, func(heroCardID string, _ int) model.TrinketHeroStat {
			members := byHero[heroCardID]
			return model.TrinketHeroStat{
				HeroCardID:       heroCardID,
				DataPoints:       lo.SumBy(members, func(h shard.TrinketHero) int { return h.DataPoints }),
				AveragePlacement: round(mean(members, func(h shard.TrinketHero) mergealg.Scalar { return h.Placement })),
			}
		}),
	}
}
