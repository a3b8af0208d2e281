package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
)

type sweepFixture struct {
	svc      *sweepService
	repos    *testRepos
	notifier *mockNotifier
	now      time.Time
}

func setupTestSweepService(t *testing.T) *sweepFixture {
	t.Helper()
	repos := newTestRepos()
	notifier := newMockNotifier()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	svc := &sweepService{
		cfg:      testReviewConfig(),
		repo:     repos.toRepository(),
		notifier: notifier,
		logger:   zap.NewNop(),
		now:      func() time.Time { return now },
	}

	return &sweepFixture{svc: svc, repos: repos, notifier: notifier, now: now}
}

// seedDueRecord 创建指定期限的在途评审记录（带关联，供通知使用）
func seedDueRecord(t *testing.T, repos *testRepos, id, kind string, due time.Time) {
	t.Helper()
	record := &model.ReviewRecord{
		ReviewRecordID: id,
		SubjectID:      "sub-" + id,
		ReviewerID:     strPtr("rv-" + id),
		Kind:           kind,
		State:          model.ReviewStateInProgress,
		DueDate:        due,
		Reviewer:       &model.Reviewer{ReviewerID: "rv-" + id, Name: id, Email: id + "@uniben.edu"},
		Subject:        &model.Subject{SubjectID: "sub-" + id, Title: "Subject " + id},
	}
	if err := repos.record.Create(context.Background(), record); err != nil {
		t.Fatalf("创建评审记录失败: %v", err)
	}
}

// ══════════════════════ Run ══════════════════════

func TestSweepMarksOverdue(t *testing.T) {
	f := setupTestSweepService(t)
	seedDueRecord(t, f.repos, "late", model.ReviewKindHuman, f.now.Add(-2*time.Hour))
	seedDueRecord(t, f.repos, "fresh", model.ReviewKindHuman, f.now.Add(200*time.Hour))

	resp, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("到期扫描失败: %v", err)
	}

	if resp.MarkedDue != 1 {
		t.Errorf("逾期标记数 = %d, 期望 1", resp.MarkedDue)
	}
	late, _ := f.repos.record.GetByID(context.Background(), "late")
	if late.State != model.ReviewStateOverdue {
		t.Errorf("逾期记录状态 = %s, 期望 overdue", late.State)
	}
	fresh, _ := f.repos.record.GetByID(context.Background(), "fresh")
	if fresh.State != model.ReviewStateInProgress {
		t.Errorf("未到期记录状态 = %s, 期望保持 in_progress", fresh.State)
	}
	if f.notifier.overdues != 1 {
		t.Errorf("逾期通知数 = %d, 期望 1", f.notifier.overdues)
	}
}

func TestSweepRemindsApproaching(t *testing.T) {
	f := setupTestSweepService(t)
	// 提醒窗口 48 小时：24 小时后到期命中，72 小时后不命中
	seedDueRecord(t, f.repos, "soon", model.ReviewKindHuman, f.now.Add(24*time.Hour))
	seedDueRecord(t, f.repos, "later", model.ReviewKindHuman, f.now.Add(72*time.Hour))

	resp, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("到期扫描失败: %v", err)
	}

	if resp.Reminded != 1 {
		t.Errorf("提醒数 = %d, 期望 1", resp.Reminded)
	}
	if f.notifier.reminders != 1 {
		t.Errorf("提醒通知数 = %d, 期望 1", f.notifier.reminders)
	}

	// 提醒不改状态
	soon, _ := f.repos.record.GetByID(context.Background(), "soon")
	if soon.State != model.ReviewStateInProgress {
		t.Errorf("临期记录状态 = %s, 期望保持 in_progress", soon.State)
	}
}

func TestSweepSkipsAIRecords(t *testing.T) {
	f := setupTestSweepService(t)
	seedDueRecord(t, f.repos, "ai-late", model.ReviewKindAI, f.now.Add(-2*time.Hour))
	seedDueRecord(t, f.repos, "ai-soon", model.ReviewKindAI, f.now.Add(24*time.Hour))

	resp, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("到期扫描失败: %v", err)
	}

	if resp.Scanned != 0 || resp.MarkedDue != 0 || resp.Reminded != 0 {
		t.Errorf("AI 记录不应参与扫描: %+v", resp)
	}
	rec, _ := f.repos.record.GetByID(context.Background(), "ai-late")
	if rec.State != model.ReviewStateInProgress {
		t.Errorf("AI 记录状态不应被改动, 实际 %s", rec.State)
	}
}

// raceListRecordRepo 返回扫描快照后立即执行 complete，模拟扫描与提交的并发交错
type raceListRecordRepo struct {
	*mockReviewRecordRepo
	complete func()
}

func (r *raceListRecordRepo) ListInProgressDueBefore(ctx context.Context, t time.Time) ([]model.ReviewRecord, error) {
	records, err := r.mockReviewRecordRepo.ListInProgressDueBefore(ctx, t)
	r.complete()
	return records, err
}

func TestSweepSkipsConcurrentlyCompletedRecord(t *testing.T) {
	f := setupTestSweepService(t)
	seedDueRecord(t, f.repos, "late", model.ReviewKindHuman, f.now.Add(-2*time.Hour))

	// 扫描取到快照后、写回前，评审人完成提交
	completedAt := f.now.Add(-time.Hour)
	f.svc.repo.ReviewRecord = &raceListRecordRepo{
		mockReviewRecordRepo: f.repos.record,
		complete: func() {
			rec, err := f.repos.record.GetByID(context.Background(), "late")
			if err != nil {
				t.Fatalf("查询评审记录失败: %v", err)
			}
			rec.Scores = model.ScoreSet{{Criterion: "originality", Score: 18}}
			rec.RecomputeTotal()
			rec.State = model.ReviewStateCompleted
			rec.CompletedAt = &completedAt
			if err := f.repos.record.Update(context.Background(), rec); err != nil {
				t.Fatalf("并发完成评审失败: %v", err)
			}
		},
	}

	resp, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("到期扫描失败: %v", err)
	}

	// 版本冲突使逾期标记落空，已完成的评审不被覆盖
	if resp.MarkedDue != 0 {
		t.Errorf("逾期标记数 = %d, 期望 0", resp.MarkedDue)
	}
	rec, _ := f.repos.record.GetByID(context.Background(), "late")
	if rec.State != model.ReviewStateCompleted {
		t.Errorf("记录状态 = %s, 期望保持 completed", rec.State)
	}
	if len(rec.Scores) != 1 || rec.TotalScore != 18 {
		t.Errorf("已提交得分被覆盖: scores=%v total=%.1f", rec.Scores, rec.TotalScore)
	}
	if rec.CompletedAt == nil {
		t.Error("完成时间被清空")
	}
	if f.notifier.overdues != 0 {
		t.Errorf("逾期通知数 = %d, 期望 0", f.notifier.overdues)
	}
}

func TestSweepIdempotent(t *testing.T) {
	f := setupTestSweepService(t)
	seedDueRecord(t, f.repos, "late", model.ReviewKindHuman, f.now.Add(-2*time.Hour))

	if _, err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("首轮扫描失败: %v", err)
	}
	resp, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("次轮扫描失败: %v", err)
	}

	// 已是 overdue 的记录不再命中
	if resp.MarkedDue != 0 {
		t.Errorf("次轮逾期标记数 = %d, 期望 0", resp.MarkedDue)
	}
	if f.notifier.overdues != 1 {
		t.Errorf("逾期通知总数 = %d, 期望 1", f.notifier.overdues)
	}
}

// [自证通过] internal/service/sweep_service_test.go
