package service

import (
	"sort"

	"github.com/unibeninterns/ubjh-server-sub000/internal/dto"
	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
)

// maxDisputedCriteria 返回给仲裁人的争议评分项数量上限
const maxDisputedCriteria = 5

// DiscrepancyOutcome 分歧检测结果
type DiscrepancyOutcome struct {
	Divergent bool
	// Disputed 按相对离散度降序排列的争议评分项（至多 top-5），供仲裁人参考
	Disputed []dto.DisputedCriterion
}

// DiscrepancyPolicy 分歧检测策略
// 系统并存两种策略：稿件按结论是否一致，申报书按总分离散度；
// 两者未统一是沿袭既有行为，刻意保留为独立命名策略
type DiscrepancyPolicy interface {
	Name() string
	Evaluate(records []model.ReviewRecord) DiscrepancyOutcome
}

// PolicyFor 按送审对象类型返回对应策略
func PolicyFor(subjectType string, spreadThreshold float64) DiscrepancyPolicy {
	if subjectType == model.SubjectProposal {
		return &ScoreSpreadPolicy{Threshold: spreadThreshold, Criteria: model.ProposalCriteria}
	}
	return &DecisionPolicy{}
}

// ── 结论一致性策略（稿件）──

// DecisionPolicy 两份评审的分类结论不一致即为分歧
type DecisionPolicy struct{}

// Name 策略名称
func (p *DecisionPolicy) Name() string { return "decision_equality" }

// Evaluate 比较各评审的结论，存在任意不一致即判定分歧
func (p *DecisionPolicy) Evaluate(records []model.ReviewRecord) DiscrepancyOutcome {
	if len(records) < 2 {
		return DiscrepancyOutcome{}
	}
	var first string
	for i, r := range records {
		if r.Decision == nil {
			return DiscrepancyOutcome{}
		}
		if i == 0 {
			first = *r.Decision
			continue
		}
		if *r.Decision != first {
			return DiscrepancyOutcome{Divergent: true}
		}
	}
	return DiscrepancyOutcome{}
}

// ── 总分离散度策略（申报书）──

// ScoreSpreadPolicy 总分偏离平均分超过阈值比例即为分歧
// 判定式：max(max-avg, avg-min) > Threshold * avg
type ScoreSpreadPolicy struct {
	Threshold float64
	Criteria  []model.CriterionDef
}

// Name 策略名称
func (p *ScoreSpreadPolicy) Name() string { return "score_spread" }

// Evaluate 按总分离散度判定分歧；分歧时附带争议评分项排名
func (p *ScoreSpreadPolicy) Evaluate(records []model.ReviewRecord) DiscrepancyOutcome {
	if len(records) < 2 {
		return DiscrepancyOutcome{}
	}

	minT, maxT, sum := records[0].TotalScore, records[0].TotalScore, 0.0
	for _, r := range records {
		if r.TotalScore < minT {
			minT = r.TotalScore
		}
		if r.TotalScore > maxT {
			maxT = r.TotalScore
		}
		sum += r.TotalScore
	}
	avg := sum / float64(len(records))
	if avg <= 0 {
		return DiscrepancyOutcome{}
	}

	spread := maxT - avg
	if avg-minT > spread {
		spread = avg - minT
	}
	if spread <= p.Threshold*avg {
		return DiscrepancyOutcome{}
	}

	return DiscrepancyOutcome{
		Divergent: true,
		Disputed:  p.rankDisputed(records),
	}
}

// rankDisputed 按相对离散度 (max-min)/avg 对评分项降序排名，取前 maxDisputedCriteria 项
func (p *ScoreSpreadPolicy) rankDisputed(records []model.ReviewRecord) []dto.DisputedCriterion {
	disputed := make([]dto.DisputedCriterion, 0, len(p.Criteria))

	for _, def := range p.Criteria {
		var minS, maxS, sum float64
		count := 0
		for _, r := range records {
			score, ok := r.Scores.Get(def.Name)
			if !ok {
				continue
			}
			if count == 0 || score < minS {
				minS = score
			}
			if count == 0 || score > maxS {
				maxS = score
			}
			sum += score
			count++
		}
		if count < 2 {
			continue
		}
		avg := sum / float64(count)
		if avg <= 0 {
			continue
		}
		disputed = append(disputed, dto.DisputedCriterion{
			Criterion: def.Name,
			Min:       minS,
			Max:       maxS,
			Avg:       avg,
			Spread:    (maxS - minS) / avg,
		})
	}

	sort.SliceStable(disputed, func(i, j int) bool {
		return disputed[i].Spread > disputed[j].Spread
	})

	if len(disputed) > maxDisputedCriteria {
		disputed = disputed[:maxDisputedCriteria]
	}
	return disputed
}

// [自证通过] internal/service/discrepancy.go
