package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"kaushal-ai-api/internal/domain/entity"
	"kaushal-ai-api/internal/domain/repository"
	"kaushal-ai-api/internal/interfaces/http/dto"
	"kaushal-ai-api/pkg/logger"
)

// DraftHandler 草稿查询处理器
type DraftHandler struct {
	postRepo repository.PostRepository
}

// NewDraftHandler 创建草稿查询处理器
func NewDraftHandler(postRepo repository.PostRepository) *DraftHandler {
	return &DraftHandler{postRepo: postRepo}
}

// List 查询用户的草稿列表
// @Summary 查询草稿列表
// @Description 按创建时间倒序返回用户的草稿帖子
// @Tags Drafts
// @Produce json
// @Param user_id path int true "用户 ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.DraftResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/users/{user_id}/drafts [get]
func (h *DraftHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := parseUserID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := repository.NewPagination(page, pageSize)

	result, err := h.postRepo.ListByUser(ctx, userID, entity.PostStatusDraft, pagination)
	if err != nil {
		logger.Error(ctx, "failed to list drafts", err)
		dto.InternalError(c, "failed to list drafts")
		return
	}

	meta := dto.NewPageMeta(result.Page, result.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.FromPosts(result.Items), meta)
}

// Get 查询单条草稿
// @Summary 查询草稿
// @Tags Drafts
// @Produce json
// @Param id path string true "草稿 ID"
// @Success 200 {object} dto.Response[dto.DraftResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/drafts/{id} [get]
func (h *DraftHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	id := c.Param("id")
	if id == "" {
		dto.BadRequest(c, "draft id is required")
		return
	}

	post, err := h.postRepo.GetByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "failed to get draft", err)
		dto.InternalError(c, "failed to get draft")
		return
	}
	if post == nil {
		dto.NotFound(c, "draft not found")
		return
	}

	dto.Success(c, dto.FromPost(post))
}
