package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"kaushal-ai-api/internal/config"
	"kaushal-ai-api/internal/domain/repository"
	"kaushal-ai-api/internal/infrastructure/linkedin"
	"kaushal-ai-api/internal/interfaces/http/dto"
	"kaushal-ai-api/pkg/logger"
	"kaushal-ai-api/pkg/utils"
)

// AuthHandler LinkedIn OAuth 处理器
type AuthHandler struct {
	oauth    *linkedin.OAuthClient
	states   *utils.StateTokenManager
	userRepo repository.UserRepository
	stateTTL time.Duration
}

// NewAuthHandler 创建 OAuth 处理器
func NewAuthHandler(oauth *linkedin.OAuthClient, states *utils.StateTokenManager, userRepo repository.UserRepository, cfg *config.LinkedInConfig) *AuthHandler {
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AuthHandler{
		oauth:    oauth,
		states:   states,
		userRepo: userRepo,
		stateTTL: ttl,
	}
}

// Connect 生成 LinkedIn 授权跳转地址
// @Summary 发起 LinkedIn 连接
// @Description 为用户生成带签名 state 的授权地址
// @Tags Auth
// @Produce json
// @Param user_id path int true "用户 ID"
// @Success 200 {object} dto.Response[dto.ConnectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/users/{user_id}/linkedin/connect [get]
func (h *AuthHandler) Connect(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := parseUserID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	state, err := h.states.Generate(userID, h.stateTTL)
	if err != nil {
		logger.Error(ctx, "failed to generate oauth state", err)
		dto.InternalError(c, "failed to start linkedin connection")
		return
	}

	dto.Success(c, dto.ConnectResponse{AuthURL: h.oauth.AuthURL(state)})
}

// Callback 处理 LinkedIn 授权回调
// @Summary LinkedIn 授权回调
// @Description 校验 state、换取令牌并记录用户档案
// @Tags Auth
// @Produce json
// @Param code query string true "授权码"
// @Param state query string true "签名 state"
// @Success 200 {object} dto.Response[dto.CallbackResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/linkedin/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		dto.BadRequest(c, "code and state are required")
		return
	}

	// state 是带 TTL 的签名令牌，过期或被篡改都在这里拦下
	userID, err := h.states.Parse(state)
	if err != nil {
		logger.Warn(ctx, "invalid oauth state", "error", err.Error())
		dto.Unauthorized(c, "invalid or expired state")
		return
	}

	token, err := h.oauth.ExchangeCode(ctx, code)
	if err != nil {
		logger.Error(ctx, "failed to exchange authorization code", err)
		dto.InternalError(c, "failed to complete linkedin connection")
		return
	}

	info, err := h.oauth.FetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		logger.Error(ctx, "failed to fetch linkedin profile", err)
		dto.InternalError(c, "failed to fetch linkedin profile")
		return
	}

	if err := h.userRepo.MarkConnected(ctx, userID, info.Name, info.Email); err != nil {
		logger.Error(ctx, "failed to mark user connected", err)
		dto.InternalError(c, "failed to save linkedin connection")
		return
	}

	logger.Info(ctx, "linkedin connected", "user_id", userID)
	dto.Success(c, dto.CallbackResponse{
		UserID:    userID,
		Name:      info.Name,
		Email:     info.Email,
		Connected: true,
	})
}

// Status 查询用户连接状态
// @Summary 查询连接状态
// @Tags Auth
// @Produce json
// @Param user_id path int true "用户 ID"
// @Success 200 {object} dto.Response[dto.UserStatusResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/users/{user_id}/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := parseUserID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "failed to get user status")
		return
	}
	if user == nil {
		dto.NotFound(c, "user not found")
		return
	}

	resp := dto.UserStatusResponse{
		UserID:        user.ID,
		Connected:     user.IsConnected(),
		LinkedInName:  user.LinkedInName,
		LinkedInEmail: user.LinkedInEmail,
	}
	if user.ConnectedAt != nil {
		resp.ConnectedAt = user.ConnectedAt.Format(time.RFC3339)
	}
	dto.Success(c, resp)
}
