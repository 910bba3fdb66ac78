package entitymerge

import (
	"github.com/ahmetb/go-linq/v3"
	"github.com/samber/lo"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/bgstats/internal/core/mergealg"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/model"
)

func Heroes(entries []shard.Hero, opts Options) Result[model.HeroStat] {
	return mergeEntities(entries, opts, opts.MinSupportRatio,
		func(key string, group []shard.Hero) model.HeroStat {
			return mergeHero(key, group, opts)
		},
		func(s model.HeroStat) int { return s.DataPoints },
	)
}

func mergeHero(heroCardID string, group []shard.Hero, opts Options) model.HeroStat {
	avg := mean(group, func(h shard.Hero) mergealg.Scalar { return h.Position })
	_, pooled := mergealg.MergePooledVariance(lo.Map(group, func(h shard.Hero, _ int) mergealg.Variance { return h.Spread }))
	_, shares := mergealg.MergeDistribution(lo.Map(group, func(h shard.Hero, _ int) mergealg.Distribution { return h.Placement }), mergealg.PlacementDomain)
	_, warband := mergealg.MergeCurve(lo.Map(group, func(h shard.Hero, _ int) mergealg.Curve { return h.Warband }), mergealg.FirstWarbandTurn, mergealg.MaxTurn)
	_, combat := mergealg.MergeCurve(lo.Map(group, func(h shard.Hero, _ int) mergealg.Curve { return h.Combat }), mergealg.FirstCombatTurn, mergealg.MaxTurn)

	conservative := null.Float{}
	if avg.Valid && pooled.StdErr.Valid {
		conservative = null.FloatFrom(avg.Float64 + 3*pooled.StdErr.Float64)
	}

	stat := model.HeroStat{
		HeroCardID:                   heroCardID,
		DataPoints:                   lo.SumBy(group, func(h shard.Hero) int { return h.DataPoints }),
		TotalOffered:                 lo.SumBy(group, func(h shard.Hero) int { return h.TotalOffered }),
		TotalPicked:                  lo.SumBy(group, func(h shard.Hero) int { return h.TotalPicked }),
		AveragePosition:              round(avg),
		StandardDeviation:            round(pooled.StdDev),
		StandardDeviationOfTheMean:   round(pooled.StdErr),
		ConservativePositionEstimate: round(conservative),
		PlacementDistribution: lo.Map(shares, func(s mergealg.Share, _ int) model.PlacementShare {
			return model.PlacementShare{Rank: s.Bucket, Percentage: round(s.Percentage)}
		}),
		WarbandStats: lo.Map(warband, func(v mergealg.CurveValue, _ int) model.WarbandPoint {
			return model.WarbandPoint{Turn: v.Index, AverageStats: round(v.Average)}
		}),
		CombatWinrate: lo.Map(combat, func(v mergealg.CurveValue, _ int) model.WinratePoint {
			return model.WinratePoint{Turn: v.Index, Winrate: round(v.Average)}
		}),
		TribeStats: mergeHeroTribes(group, avg, opts.MissingRatio),
	}
	stat.PickRate = round(mergealg.Ratio(float64(stat.TotalPicked), float64(stat.TotalOffered)))
	return stat
}

func mergeHeroTribes(group []shard.Hero, ref null.Float, missingRatio float64) []model.HeroTribeStat {
	var tribes []shard.HeroTribe
	for _, h := range group {
		tribes = append(tribes, h.Tribes...)
	}

	var groups []linq.Group
	linq.From(tribes).
		GroupByT(
			func(t shard.HeroTribe) int { return t.Tribe },
			func(t shard.HeroTribe) shard.HeroTribe { return t },
		).
		OrderByT(func(g linq.Group) int { return g.Key.(int) }).
		ToSlice(&groups)

	result := make([]model.HeroTribeStat, 0, len(groups))
	for _, g := range groups {
		members := make([]shard.HeroTribe, 0, len(g.Group))
		for _, m := range g.Group {
			members = append(members, m.(shard.HeroTribe))
		}
		stat := mergeHeroTribe(g.Key.(int), members, ref)
		if missingRatio > 0 && float64(stat.DataPointsOnMissingTribe) <= float64(stat.DataPoints)/missingRatio {
			continue
		}
		result = append(result, stat)
	}
	return result
}

func mergeHeroTribe(tribe int, members []shard.HeroTribe, ref null.Float) model.HeroTribeStat {
	avg := mean(members, func(t shard.HeroTribe) mergealg.Scalar { return t.Position })
	without := mean(members, func(t shard.HeroTribe) mergealg.Scalar { return t.PositionWithoutTribe })
	return model.HeroTribeStat{
		Tribe:                               tribe,
		DataPoints:                          lo.SumBy(members, func(t shard.HeroTribe) int { return t.DataPoints }),
		DataPointsOnMissingTribe:            lo.SumBy(members, func(t shard.HeroTribe) int { return t.DataPointsOnMissingTribe }),
		TotalOffered:                        lo.SumBy(members, func(t shard.HeroTribe) int { return t.TotalOffered }),
		TotalPicked:                         lo.SumBy(members, func(t shard.HeroTribe) int { return t.TotalPicked }),
		AveragePosition:                     round(avg),
		AveragePositionWithoutTribe:         round(without),
		ImpactAveragePosition:               round(mergealg.Impact(avg, ref)),
		ImpactAveragePositionVsMissingTribe: round(mergealg.Impact(avg, without)),
	}
}
