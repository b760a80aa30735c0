// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"kaushal-ai-api/internal/application/engine"
	"kaushal-ai-api/internal/domain/entity"
	"kaushal-ai-api/internal/domain/repository"
	"kaushal-ai-api/internal/interfaces/http/dto"
	"kaushal-ai-api/pkg/logger"
)

// MessageHandler 聊天消息处理器
type MessageHandler struct {
	orchestrator *engine.Orchestrator
	userRepo     repository.UserRepository
}

// NewMessageHandler 创建聊天消息处理器
func NewMessageHandler(orchestrator *engine.Orchestrator, userRepo repository.UserRepository) *MessageHandler {
	return &MessageHandler{
		orchestrator: orchestrator,
		userRepo:     userRepo,
	}
}

// Handle 处理一条入站消息
// @Summary 处理聊天消息
// @Description 接收文本或图片说明消息，返回本轮回复（草稿或建议）
// @Tags Messages
// @Accept json
// @Produce json
// @Param body body dto.MessageRequest true "入站消息"
// @Success 200 {object} dto.Response[dto.MessageResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/messages [post]
func (h *MessageHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	// 首次见到的用户自动登记，后续轮次更新基础资料
	user := entity.NewUser(req.UserID, req.Username, req.FirstName, req.LastName)
	if err := h.userRepo.Upsert(ctx, user); err != nil {
		logger.Warn(ctx, "failed to upsert user", "error", err.Error())
	}

	result, err := h.orchestrator.HandleMessage(ctx, req.ToEngineMessage())
	if err != nil {
		if errors.Is(err, engine.ErrQueueFull) {
			dto.TooManyRequests(c, "too many pending messages, please wait for the current one to finish")
			return
		}
		logger.Error(ctx, "failed to handle message", err)
		dto.InternalError(c, "failed to handle message")
		return
	}

	dto.Success(c, dto.FromTurnResult(result))
}
