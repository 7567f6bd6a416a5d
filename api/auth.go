package api

import (
	"palmera/guard"
	"palmera/middleware"
	"palmera/session"

	"github.com/gin-gonic/gin"
)

// AuthHandler 登录、注册、确认与注销
type AuthHandler struct {
	provider *session.Provider
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(provider *session.Provider) *AuthHandler {
	return &AuthHandler{provider: provider}
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email" example:"duena@palmera.es"`
	Password string `json:"password" binding:"required" example:"secreto1"`
}

type SignUpRequest struct {
	Email           string `json:"email" binding:"required,email" example:"tamar@palmera.es"`
	Password        string `json:"password" binding:"required" example:"secreto1"`
	ConfirmPassword string `json:"confirm_password" binding:"required" example:"secreto1"`
	FullName        string `json:"full_name" example:"Tamar López"`
	ManicuristName  string `json:"manicurist_name" example:"Tamar"`
}

type ConfirmRequest struct {
	Email string `json:"email" binding:"required,email" example:"tamar@palmera.es"`
	Code  string `json:"code" binding:"required,len=6" example:"123456"`
}

type SignOutResponse struct {
	Redirect string `json:"redirect" example:"/auth"`
}

// SignIn 登录
// @Summary 登录
// @Description 邮箱密码登录，成功后写入会话 Cookie 并返回令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body SignInRequest true "登录信息"
// @Success 200 {object} Response{data=session.Session} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "邮箱或密码错误 / 邮箱未确认"
// @Failure 403 {object} Response "账户已停用"
// @Router /api/v1/auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	s, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "登录失败")
		return
	}
	setSessionCookie(c, s.Token, s.ExpiresAt)
	SuccessWithMessage(c, "Sesión iniciada", s)
}

// SignUp 注册
// @Summary 注册
// @Description 创建未确认的账户并发送验证码邮件
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "注册信息"
// @Success 201 {object} Response{data=session.PendingVerification} "等待邮箱确认"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "邮箱已注册"
// @Failure 422 {object} Response "密码不合法"
// @Router /api/v1/auth/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	pending, err := h.provider.SignUp(c.Request.Context(), session.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        req.FullName,
		ManicuristName:  req.ManicuristName,
	})
	if err != nil {
		respondError(c, err, "注册失败")
		return
	}
	Created(c, pending.Message, pending)
}

// Confirm 确认邮箱
// @Summary 确认邮箱
// @Description 校验注册验证码并激活账户
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ConfirmRequest true "验证码"
// @Success 200 {object} Response "确认成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "验证码无效或已过期"
// @Router /api/v1/auth/confirm [post]
func (h *AuthHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.provider.ConfirmEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, err, "确认邮箱失败")
		return
	}
	SuccessWithMessage(c, "Email confirmado. Ya puedes iniciar sesión.", nil)
}

// SignOut 注销
// @Summary 注销
// @Description 注销当前令牌、清除会话 Cookie，返回跳转地址
// @Tags 认证
// @Produce json
// @Success 200 {object} Response{data=SignOutResponse} "已注销"
// @Router /api/v1/auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	if token := middleware.TokenFromRequest(c); token != "" {
		_ = h.provider.SignOut(c.Request.Context(), token)
	}
	clearSessionCookie(c)
	SuccessWithMessage(c, "Sesión cerrada", SignOutResponse{Redirect: guard.AuthPath})
}

// Session 当前会话
// @Summary 当前会话
// @Description 返回当前身份与角色资料
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=session.Identity} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	Success(c, middleware.GetIdentity(c))
}
