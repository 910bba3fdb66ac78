package model

import (
	"time"

	"gopkg.in/guregu/null.v3"

	"exusiai.dev/bgstats/internal/core/percentile"
)

// GlobalStat is the merged artifact of one selector. Undefined ratios are
// serialized as null.
type GlobalStat[T any] struct {
	Entity         string           `json:"entity"`
	TimePeriod     TimePeriod       `json:"timePeriod"`
	MmrPercentile  int              `json:"mmrPercentile"`
	Filter         string           `json:"filter"`
	LastUpdateDate time.Time        `json:"lastUpdateDate"`
	DataPoints     int              `json:"dataPoints"`
	MmrPercentiles percentile.Table `json:"mmrPercentiles"`
	Stats          []T              `json:"stats"`
}

// PercentileArtifact is written once per (entity, time period) next to the
// merged statistics.
type PercentileArtifact struct {
	Entity         string           `json:"entity"`
	TimePeriod     TimePeriod       `json:"timePeriod"`
	LastUpdateDate time.Time        `json:"lastUpdateDate"`
	MmrPercentiles percentile.Table `json:"mmrPercentiles"`
}

type PlacementShare struct {
	Rank       int        `json:"rank"`
	Percentage null.Float `json:"percentage"`
}

type WarbandPoint struct {
	Turn         int        `json:"turn"`
	AverageStats null.Float `json:"averageStats"`
}

type WinratePoint struct {
	Turn    int        `json:"turn"`
	Winrate null.Float `json:"winrate"`
}

type HeroStat struct {
	HeroCardID                   string           `json:"heroCardId"`
	DataPoints                   int              `json:"dataPoints"`
	TotalOffered                 int              `json:"totalOffered"`
	TotalPicked                  int              `json:"totalPicked"`
	PickRate                     null.Float       `json:"pickRate"`
	AveragePosition              null.Float       `json:"averagePosition"`
	StandardDeviation            null.Float       `json:"standardDeviation"`
	StandardDeviationOfTheMean   null.Float       `json:"standardDeviationOfTheMean"`
	ConservativePositionEstimate null.Float       `json:"conservativePositionEstimate"`
	PlacementDistribution        []PlacementShare `json:"placementDistribution"`
	WarbandStats                 []WarbandPoint   `json:"warbandStats"`
	CombatWinrate                []WinratePoint   `json:"combatWinrate"`
	TribeStats                   []HeroTribeStat  `json:"tribeStats"`
}

type HeroTribeStat struct {
	Tribe                               int        `json:"tribe"`
	DataPoints                          int        `json:"dataPoints"`
	DataPointsOnMissingTribe            int        `json:"dataPointsOnMissingTribe"`
	TotalOffered                        int        `json:"totalOffered"`
	TotalPicked                         int        `json:"totalPicked"`
	AveragePosition                     null.Float `json:"averagePosition"`
	AveragePositionWithoutTribe         null.Float `json:"averagePositionWithoutTribe"`
	ImpactAveragePosition               null.Float `json:"impactAveragePosition"`
	ImpactAveragePositionVsMissingTribe null.Float `json:"impactAveragePositionVsMissingTribe"`
}

type QuestStat struct {
	QuestCardID           string                `json:"questCardId"`
	DataPoints            int                   `json:"dataPoints"`
	AverageTurnToComplete null.Float            `json:"averageTurnToComplete"`
	CompletionRate        null.Float            `json:"completionRate"`
	DifficultyStats       []QuestDifficultyStat `json:"difficultyStats"`
	HeroStats             []QuestHeroStat       `json:"heroStats"`
	TribeStats            []QuestTribeStat      `json:"tribeStats"`
}

type QuestDifficultyStat struct {
	Difficulty int `json:"difficulty"`
	QuestImpact
}

type QuestTribeStat struct {
	Tribe int `json:"tribe"`
	QuestImpact
}

type QuestImpact struct {
	DataPoints            int        `json:"dataPoints"`
	AverageTurnToComplete null.Float `json:"averageTurnToComplete"`
	CompletionRate        null.Float `json:"completionRate"`
	ImpactTurnToComplete  null.Float `json:"impactTurnToComplete"`
	ImpactCompletionRate  null.Float `json:"impactCompletionRate"`
}

type QuestHeroStat struct {
	HeroCardID            string     `json:"heroCardId"`
	DataPoints            int        `json:"dataPoints"`
	AverageTurnToComplete null.Float `json:"averageTurnToComplete"`
	CompletionRate        null.Float `json:"completionRate"`
}

type RewardStat struct {
	RewardCardID     string            `json:"rewardCardId"`
	DataPoints       int               `json:"dataPoints"`
	AveragePlacement null.Float        `json:"averagePlacement"`
	HeroStats        []RewardHeroStat  `json:"heroStats"`
	TribeStats       []RewardTribeStat `json:"tribeStats"`
}

type RewardHeroStat struct {
	HeroCardID       string     `json:"heroCardId"`
	DataPoints       int        `json:"dataPoints"`
	AveragePlacement null.Float `json:"averagePlacement"`
}

type RewardTribeStat struct {
	Tribe            int        `json:"tribe"`
	DataPoints       int        `json:"dataPoints"`
	AveragePlacement null.Float `json:"averagePlacement"`
	ImpactPlacement  null.Float `json:"impactPlacement"`
}

type TrinketStat struct {
	TrinketCardID    string            `json:"trinketCardId"`
	DataPoints       int               `json:"dataPoints"`
	TotalOffered     int               `json:"totalOffered"`
	PickRate         null.Float        `json:"pickRate"`
	AveragePlacement null.Float        `json:"averagePlacement"`
	HeroStats        []TrinketHeroStat `json:"heroStats"`
}

type TrinketHeroStat struct {
	HeroCardID       string     `json:"heroCardId"`
	DataPoints       int        `json:"dataPoints"`
	AveragePlacement null.Float `json:"averagePlacement"`
}

type CardStat struct {
	CardID                string         `json:"cardId"`
	TotalPlayed           int            `json:"totalPlayed"`
	AveragePlacement      null.Float     `json:"averagePlacement"`
	TotalOther            int            `json:"totalOther"`
	AveragePlacementOther null.Float     `json:"averagePlacementOther"`
	ImpactPlacement       null.Float     `json:"impactPlacement"`
	TurnStats             []CardTurnStat `json:"turnStats"`
	HeroStats             []CardHeroStat `json:"heroStats"`
}

type CardTurnStat struct {
	Turn                   int        `json:"turn"`
	TotalPlayedAtTurn      int        `json:"totalPlayedAtTurn"`
	AveragePlacement       null.Float `json:"averagePlacement"`
	TotalPlayedAtTurnOther int        `json:"totalPlayedAtTurnOther"`
	AveragePlacementOther  null.Float `json:"averagePlacementOther"`
	ImpactPlacement        null.Float `json:"impactPlacement"`
}

type CardHeroStat struct {
	HeroCardID          string         `json:"heroCardId"`
	TotalPlayedWithHero int            `json:"totalPlayedWithHero"`
	AveragePlacement    null.Float     `json:"averagePlacement"`
	TurnStats           []CardTurnStat `json:"turnStats"`
}
