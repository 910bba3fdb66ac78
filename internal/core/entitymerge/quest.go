package entitymerge

import (
	"github.com/samber/lo"
	"golang.org/x/exp/constraints"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/bgstats/internal/core/mergealg"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/model"
)

func Quests(entries []shard.Quest, opts Options) Result[model.QuestStat] {
	return mergeEntities(entries, opts, 0,
		mergeQuest,
		func(s model.QuestStat) int { return s.DataPoints },
	)
}

func mergeQuest(questCardID string, group []shard.Quest) model.QuestStat {
	turns := mean(group, func(q shard.Quest) mergealg.Scalar { return q.TurnsToComplete })
	completion := mean(group, func(q shard.Quest) mergealg.Scalar { return q.Completion })

	var (
		difficulties []shard.QuestBreakdown[int]
		heroes       []shard.QuestBreakdown[string]
		tribes       []shard.QuestBreakdown[int]
	)
	for _, q := range group {
		difficulties = append(difficulties, q.Difficulties...)
		heroes = append(heroes, q.Heroes...)
		tribes = append(tribes, q.Tribes...)
	}

	return model.QuestStat{
		QuestCardID:           questCardID,
		DataPoints:            lo.SumBy(group, func(q shard.Quest) int { return q.DataPoints }),
		AverageTurnToComplete: round(turns),
		CompletionRate:        round(completion),
		DifficultyStats: lo.Map(questImpacts(difficulties, turns, completion), func(k keyed[int, model.QuestImpact], _ int) model.QuestDifficultyStat {
			return model.QuestDifficultyStat{Difficulty: k.Key, QuestImpact: k.Value}
		}),
		TribeStats: lo.Map(questImpacts(tribes, turns, completion), func(k keyed[int, model.QuestImpact], _ int) model.QuestTribeStat {
			return model.QuestTribeStat{Tribe: k.Key, QuestImpact: k.Value}
		}),
		HeroStats: lo.Map(questImpacts(heroes, turns, completion), func(k keyed[string, model.QuestImpact], _ int) model.QuestHeroStat {
			return model.QuestHeroStat{
				HeroCardID:            k.Key,
				DataPoints:            k.Value.DataPoints,
				AverageTurnToComplete: k.Value.AverageTurnToComplete,
				CompletionRate:        k.Value.CompletionRate,
			}
		}),
	}
}

type keyed[K any, V any] struct {
	Key   K
	Value V
}

// questImpacts merges breakdowns sharing a key and scores them against the
// quest-wide reference values.
func questImpacts[K constraints.Ordered](list []shard.QuestBreakdown[K], refTurns, refCompletion null.Float) []keyed[K, model.QuestImpact] {
	keys, groups := groupSorted(list, func(b shard.QuestBreakdown[K]) K { return b.Key })
	res := make([]keyed[K, model.QuestImpact], 0, len(keys))
	for _, k := range keys {
		members := groups[k]
		turns := mean(members, func(b shard.QuestBreakdown[K]) mergealg.Scalar { return b.TurnsToComplete })
		completion := mean(members, func(b shard.QuestBreakdown[K]) mergealg.Scalar { return b.Completion })
		res = append(res, keyed[K, model.QuestImpact]{
			Key: k,
			Value: model.QuestImpact{
				DataPoints:            lo.SumBy(members, func(b shard.QuestBreakdown[K]) int { return b.DataPoints }),
				AverageTurnToComplete: round(turns),
				CompletionRate:        round(completion),
				ImpactTurnToComplete:  round(mergealg.Impact(turns, refTurns)),
				ImpactCompletionRate:  round(mergealg.Impact(completion, refCompletion)),
			},
		})
	}
	return res
}

func Rewards(entries []shard.Reward, opts Options) Result[model.RewardStat] {
	return mergeEntities(entries, opts, 0,
		mergeReward,
		func(s model.RewardStat) int { return s.DataPoints },
	)
}

func mergeReward(rewardCardID string, group []shard.Reward) model.RewardStat {
	placement := mean(group, func(r shard.Reward) mergealg.Scalar { return r.Placement })

	var (
		heroes []shard.RewardBreakdown[string]
		tribes []shard.RewardBreakdown[int]
	)
	for _, r := range group {
		heroes = append(heroes, r.Heroes...)
		tribes = append(tribes, r.Tribes...)
	}

	return model.RewardStat{
		RewardCardID:     rewardCardID,
		DataPoints:       lo.SumBy(group, func(r shard.Reward) int { return r.DataPoints }),
		AveragePlacement: round(placement),
		HeroStats: lo.Map(placements(heroes), func(k keyed[string, placementStat], _ int) model.RewardHeroStat {
			return model.RewardHeroStat{HeroCardID: k.Key, DataPoints: k.Value.dataPoints, AveragePlacement: round(k.Value.placement)}
		}),
		TribeStats: lo.Map(placements(tribes), func(k keyed[int, placementStat], _ int) model.RewardTribeStat {
			return model.RewardTribeStat{
				Tribe:            k.Key,
				DataPoints:       k.Value.dataPoints,
				AveragePlacement: round(k.Value.placement),
				ImpactPlacement:  round(mergealg.Impact(k.Value.placement, placement)),
			}
		}),
	}
}

type placementStat struct {
	dataPoints int
	placement  null.Float
}

func placements[K constraints.Ordered](list []shard.RewardBreakdown[K]) []keyed[K, placementStat] {
	keys, groups := groupSorted(list, func(b shard.RewardBreakdown[K]) K { return b.Key })
	return lo.Map(keys, func(k K, _ int) keyed[K, placementStat] {
		members := groups[k]
		return keyed[K, placementStat]{
			Key: k,
			Value: placementStat{
				dataPoints: lo.SumBy(members, func(b shard.RewardBreakdown[K]) int { return b.DataPoints }),
				placement:  mean(members, func(b shard.RewardBreakdown[K]) mergealg.Scalar { return b.Placement }),
			},
		}
	})
}
