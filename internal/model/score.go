package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidScores 得分集合校验失败；具体原因经 %w 包装后附带
var ErrInvalidScores = errors.New("得分集合校验失败")

// CriterionDef 评分项定义：名称与分值上下界
type CriterionDef struct {
	Name string
	Min  float64
	Max  float64
}

// 评分项为固定枚举列表，按结构遍历，不做字符串动态查找
var (
	// ManuscriptCriteria 稿件评分项（总分 100）
	ManuscriptCriteria = []CriterionDef{
		{Name: "originality", Min: 0, Max: 20},
		{Name: "methodology", Min: 0, Max: 20},
		{Name: "clarity", Min: 0, Max: 20},
		{Name: "significance", Min: 0, Max: 20},
		{Name: "references", Min: 0, Max: 20},
	}

	// ProposalCriteria 申报书评分项（总分 100）
	ProposalCriteria = []CriterionDef{
		{Name: "relevance", Min: 0, Max: 25},
		{Name: "feasibility", Min: 0, Max: 25},
		{Name: "innovation", Min: 0, Max: 25},
		{Name: "budget_justification", Min: 0, Max: 25},
	}
)

// CriteriaFor 返回指定送审对象类型的评分项定义
func CriteriaFor(subjectType string) []CriterionDef {
	if subjectType == SubjectProposal {
		return ProposalCriteria
	}
	return ManuscriptCriteria
}

// CriterionScore 单个评分项得分
type CriterionScore struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
}

// ScoreSet 一次评审的结构化得分，存储为 JSONB
type ScoreSet []CriterionScore

// Scan 实现 sql.Scanner，从 JSONB 解析
func (s *ScoreSet) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("ScoreSet.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, s)
}

// Value 实现 driver.Valuer，序列化为 JSONB
func (s ScoreSet) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Total 计算得分总和
func (s ScoreSet) Total() float64 {
	var total float64
	for _, cs := range s {
		total += cs.Score
	}
	return total
}

// Get 按评分项名称取分，第二返回值表示是否存在
func (s ScoreSet) Get(criterion string) (float64, bool) {
	for _, cs := range s {
		if cs.Criterion == criterion {
			return cs.Score, true
		}
	}
	return 0, false
}

// ValidateScores 校验得分集合合法性
// complete=true 时要求所有评分项齐全（终稿提交）；false 时允许部分填写（暂存）
func ValidateScores(defs []CriterionDef, scores ScoreSet, complete bool) error {
	known := make(map[string]CriterionDef, len(defs))
	for _, d := range defs {
		known[d.Name] = d
	}

	seen := make(map[string]bool, len(scores))
	for _, cs := range scores {
		def, ok := known[cs.Criterion]
		if !ok {
			return fmt.Errorf("%w: 未知评分项 %s", ErrInvalidScores, cs.Criterion)
		}
		if seen[cs.Criterion] {
			return fmt.Errorf("%w: 评分项重复 %s", ErrInvalidScores, cs.Criterion)
		}
		seen[cs.Criterion] = true
		if cs.Score < def.Min || cs.Score > def.Max {
			return fmt.Errorf("%w: 评分项 %s 得分 %.2f 超出范围 [%.0f, %.0f]", ErrInvalidScores, cs.Criterion, cs.Score, def.Min, def.Max)
		}
	}

	if complete {
		for _, d := range defs {
			if !seen[d.Name] {
				return fmt.Errorf("%w: 评分项缺失 %s", ErrInvalidScores, d.Name)
			}
		}
	}

	return nil
}

// [自证通过] internal/model/score.go
