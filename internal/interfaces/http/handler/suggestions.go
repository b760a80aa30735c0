package handler

import (
	"github.com/gin-gonic/gin"

	"kaushal-ai-api/internal/application/engine"
	"kaushal-ai-api/internal/interfaces/http/dto"
	"kaushal-ai-api/pkg/logger"
)

// SuggestionsHandler 选题建议处理器
type SuggestionsHandler struct {
	svc     *engine.SuggestionsService
	enabled bool
}

// NewSuggestionsHandler 创建选题建议处理器
func NewSuggestionsHandler(svc *engine.SuggestionsService, enabled bool) *SuggestionsHandler {
	return &SuggestionsHandler{svc: svc, enabled: enabled}
}

// Topics 返回用户的选题建议
// @Summary 获取选题建议
// @Description 根据用户行业偏好生成 LinkedIn 发帖选题
// @Tags Suggestions
// @Produce json
// @Param user_id path int true "用户 ID"
// @Success 200 {object} dto.Response[dto.SuggestionsResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/users/{user_id}/suggestions [get]
func (h *SuggestionsHandler) Topics(c *gin.Context) {
	ctx := c.Request.Context()

	if !h.enabled || h.svc == nil {
		dto.NotFound(c, "suggestions are disabled")
		return
	}

	userID, err := parseUserID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	topics, err := h.svc.Topics(ctx, userID)
	if err != nil {
		logger.Error(ctx, "failed to build topic suggestions", err)
		dto.InternalError(c, "failed to build suggestions")
		return
	}

	dto.Success(c, dto.SuggestionsResponse{UserID: userID, Topics: topics})
}
