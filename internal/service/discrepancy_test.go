package service

import (
	"testing"

	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
)

func humanRecord(decision *string, total float64, scores model.ScoreSet) model.ReviewRecord {
	return model.ReviewRecord{
		Kind:       model.ReviewKindHuman,
		State:      model.ReviewStateCompleted,
		Decision:   decision,
		TotalScore: total,
		Scores:     scores,
	}
}

// ══════════════════════ PolicyFor ══════════════════════

func TestPolicyFor(t *testing.T) {
	if name := PolicyFor(model.SubjectManuscript, 0.2).Name(); name != "decision_equality" {
		t.Errorf("稿件策略 = %s, 期望 decision_equality", name)
	}
	if name := PolicyFor(model.SubjectProposal, 0.2).Name(); name != "score_spread" {
		t.Errorf("申报书策略 = %s, 期望 score_spread", name)
	}
}

// ══════════════════════ DecisionPolicy ══════════════════════

func TestDecisionPolicyDivergence(t *testing.T) {
	policy := &DecisionPolicy{}

	records := []model.ReviewRecord{
		humanRecord(strPtr(model.DecisionPublishable), 80, nil),
		humanRecord(strPtr(model.DecisionMajorRevision), 60, nil),
	}
	if out := policy.Evaluate(records); !out.Divergent {
		t.Error("结论不一致应判定分歧")
	}

	records = []model.ReviewRecord{
		humanRecord(strPtr(model.DecisionPublishable), 80, nil),
		humanRecord(strPtr(model.DecisionPublishable), 60, nil),
	}
	if out := policy.Evaluate(records); out.Divergent {
		t.Error("结论一致不应判定分歧，总分差异与稿件分歧无关")
	}
}

func TestDecisionPolicyEdgeCases(t *testing.T) {
	policy := &DecisionPolicy{}

	// 不足两份评审
	one := []model.ReviewRecord{humanRecord(strPtr(model.DecisionPublishable), 80, nil)}
	if out := policy.Evaluate(one); out.Divergent {
		t.Error("单份评审不应判定分歧")
	}

	// 存在缺失结论的记录时不判定，避免把数据缺陷当分歧
	missing := []model.ReviewRecord{
		humanRecord(strPtr(model.DecisionPublishable), 80, nil),
		humanRecord(nil, 60, nil),
	}
	if out := policy.Evaluate(missing); out.Divergent {
		t.Error("缺失结论的评审不应参与分歧判定")
	}
}

// ══════════════════════ ScoreSpreadPolicy ══════════════════════

func TestScoreSpreadPolicyBoundary(t *testing.T) {
	policy := &ScoreSpreadPolicy{Threshold: 0.2, Criteria: model.ProposalCriteria}

	// avg=75, spread=15, 阈值线 0.2*75=15：恰好等于不判分歧
	atLine := []model.ReviewRecord{
		humanRecord(nil, 90, nil),
		humanRecord(nil, 60, nil),
	}
	if out := policy.Evaluate(atLine); out.Divergent {
		t.Error("离散度恰好等于阈值线不应判定分歧")
	}

	// avg=74, spread=16 > 0.2*74=14.8：判分歧
	overLine := []model.ReviewRecord{
		humanRecord(nil, 90, nil),
		humanRecord(nil, 58, nil),
	}
	if out := policy.Evaluate(overLine); !out.Divergent {
		t.Error("离散度超过阈值线应判定分歧")
	}
}

func TestScoreSpreadPolicyZeroAverage(t *testing.T) {
	policy := &ScoreSpreadPolicy{Threshold: 0.2, Criteria: model.ProposalCriteria}

	records := []model.ReviewRecord{
		humanRecord(nil, 0, nil),
		humanRecord(nil, 0, nil),
	}
	if out := policy.Evaluate(records); out.Divergent {
		t.Error("平均分为零时不应判定分歧")
	}
}

func TestScoreSpreadPolicyDisputedRanking(t *testing.T) {
	policy := &ScoreSpreadPolicy{Threshold: 0.1, Criteria: model.ProposalCriteria}

	records := []model.ReviewRecord{
		humanRecord(nil, 90, model.ScoreSet{
			{Criterion: "relevance", Score: 25},
			{Criterion: "feasibility", Score: 25},
			{Criterion: "innovation", Score: 20},
			{Criterion: "budget_justification", Score: 20},
		}),
		humanRecord(nil, 45, model.ScoreSet{
			{Criterion: "relevance", Score: 5},
			{Criterion: "feasibility", Score: 15},
			{Criterion: "innovation", Score: 15},
			{Criterion: "budget_justification", Score: 10},
		}),
	}

	out := policy.Evaluate(records)
	if !out.Divergent {
		t.Fatal("总分离散应判定分歧")
	}
	if len(out.Disputed) != 4 {
		t.Fatalf("争议评分项数量 = %d, 期望 4", len(out.Disputed))
	}

	// relevance: (25-5)/15 ≈ 1.33 离散度最高，应排首位
	if out.Disputed[0].Criterion != "relevance" {
		t.Errorf("争议首位 = %s, 期望 relevance", out.Disputed[0].Criterion)
	}
	for i := 1; i < len(out.Disputed); i++ {
		if out.Disputed[i].Spread > out.Disputed[i-1].Spread {
			t.Errorf("争议评分项未按离散度降序: 第 %d 项 %.3f > 第 %d 项 %.3f",
				i, out.Disputed[i].Spread, i-1, out.Disputed[i-1].Spread)
		}
	}
}

func TestScoreSpreadPolicySkipsSparseCriteria(t *testing.T) {
	policy := &ScoreSpreadPolicy{Threshold: 0.1, Criteria: model.ProposalCriteria}

	// feasibility 仅一方有分，排名中应跳过
	records := []model.ReviewRecord{
		humanRecord(nil, 50, model.ScoreSet{
			{Criterion: "relevance", Score: 25},
			{Criterion: "feasibility", Score: 25},
		}),
		humanRecord(nil, 10, model.ScoreSet{
			{Criterion: "relevance", Score: 10},
		}),
	}

	out := policy.Evaluate(records)
	if !out.Divergent {
		t.Fatal("总分离散应判定分歧")
	}
	for _, d := range out.Disputed {
		if d.Criterion == "feasibility" {
			t.Error("仅单方评分的评分项不应进入争议排名")
		}
	}
}

// [自证通过] internal/service/discrepancy_test.go
