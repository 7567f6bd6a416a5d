// Package session 登录身份与会话生命周期
//
// Provider 由 main 创建并注入到 HTTP 层，Start/Close 管理后台清理协程。
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"palmera/metrics"
	"palmera/models"
	"palmera/store"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ProfileRepository 用户资料存取
type ProfileRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	FindByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
	RoleOf(ctx context.Context, userID string) (models.Role, error)
	Register(ctx context.Context, p *models.UserProfile) error
	Confirm(ctx context.Context, userID string) error
}

// VerificationRepository 验证码存取
type VerificationRepository interface {
	Create(ctx context.Context, v *models.EmailVerification) error
	Consume(ctx context.Context, email, purpose, code string) error
}

// Mailer 发送验证码邮件
type Mailer interface {
	SendVerificationCode(to, code string) error
}

// Options Provider 参数
type Options struct {
	Profiles      ProfileRepository
	Verifications VerificationRepository
	Mailer        Mailer
	Secret        string
	TokenTTL      time.Duration
	CodeTTL       time.Duration
	SweepInterval time.Duration
	BcryptCost    int
	Logger        zerolog.Logger
}

// Identity 已认证的身份
type Identity struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   Profile   `json:"profile"`
}

// Session 登录结果
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Identity  Identity  `json:"identity"`
}

// SignUpInput 注册参数
type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	ManicuristName  string
}

// PendingVerification 注册后等待邮箱确认
type PendingVerification struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

// PendingMessage 注册成功提示
const PendingMessage = "Hemos enviado un email de confirmación. Por favor, revisa tu bandeja de entrada y confirma tu cuenta."

// Provider 登录、注册、注销与令牌解析
type Provider struct {
	profiles      ProfileRepository
	verifications VerificationRepository
	mailer        Mailer
	tokens        *TokenIssuer
	revoked       *Revocations
	resolver      *Resolver
	codeTTL       time.Duration
	sweepInterval time.Duration
	bcryptCost    int
	log           zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewProvider 创建 Provider
func NewProvider(opts Options) *Provider {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = 15 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 10 * time.Minute
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	log := opts.Logger.With().Str("component", "session").Logger()
	return &Provider{
		profiles:      opts.Profiles,
		verifications: opts.Verifications,
		mailer:        opts.Mailer,
		tokens:        NewTokenIssuer(opts.Secret, opts.TokenTTL),
		revoked:       NewRevocations(),
		resolver:      NewResolver(opts.Profiles, log),
		codeTTL:       opts.CodeTTL,
		sweepInterval: opts.SweepInterval,
		bcryptCost:    opts.BcryptCost,
		log:           log,
	}
}

// Resolver 角色解析器
func (p *Provider) Resolver() *Resolver {
	return p.resolver
}

// Start 启动注销列表清理协程
func (p *Provider) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := p.revoked.Sweep(now); n > 0 {
					p.log.Debug().Int("count", n).Msg("已清理过期的注销记录")
				}
			}
		}
	}()
}

// Close 停止后台协程，可重复调用
func (p *Provider) Close() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SignIn 邮箱密码登录
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	s, err := p.signIn(ctx, email, password)
	metrics.AuthAttemptsTotal.WithLabelValues("sign_in", resultLabel(err)).Inc()
	return s, err
}

func (p *Provider) signIn(ctx context.Context, email, password string) (*Session, error) {
	profile, err := p.profiles.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户资料失败: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !profile.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	resolved, err := p.resolver.Resolve(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	if !resolved.IsActive {
		return nil, ErrInactiveUser
	}

	token, claims, err := p.tokens.Issue(profile.UserID, profile.Email)
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("user_id", profile.UserID).Msg("用户登录")
	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Identity: Identity{
			UserID:    profile.UserID,
			Email:     profile.Email,
			TokenID:   claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
			Profile:   resolved,
		},
	}, nil
}

// SignUp 注册并发送验证码；已注册但未确认的邮箱会重新发送验证码
func (p *Provider) SignUp(ctx context.Context, in SignUpInput) (*PendingVerification, error) {
	pending, err := p.signUp(ctx, in)
	metrics.AuthAttemptsTotal.WithLabelValues("sign_up", resultLabel(err)).Inc()
	return pending, err
}

func (p *Provider) signUp(ctx context.Context, in SignUpInput) (*PendingVerification, error) {
	email := store.NormalizeEmail(in.Email)
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len([]rune(in.Password)) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	existing, err := p.profiles.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.EmailConfirmed:
		return nil, ErrAlreadyRegistered
	case err == nil:
		// 未确认：重新发送验证码
	case errors.Is(err, store.ErrNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), p.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("密码加密失败: %w", err)
		}
		profile := &models.UserProfile{
			Email:          email,
			PasswordHash:   string(hash),
			FullName:       strings.TrimSpace(in.FullName),
			ManicuristName: strings.TrimSpace(in.ManicuristName),
		}
		if err := p.profiles.Register(ctx, profile); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return nil, ErrAlreadyRegistered
			}
			return nil, fmt.Errorf("创建用户资料失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("查询用户资料失败: %w", err)
	}

	code, err := models.GenerateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("生成验证码失败: %w", err)
	}
	v := &models.EmailVerification{
		Email:     email,
		Code:      code,
		Purpose:   models.VerificationSignUp,
		ExpiresAt: time.Now().Add(p.codeTTL),
	}
	if err := p.verifications.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("保存验证码失败: %w", err)
	}
	if p.mailer != nil {
		if err := p.mailer.SendVerificationCode(email, code); err != nil {
			return nil, fmt.Errorf("发送验证码失败: %w", err)
		}
	} else {
		p.log.Warn().Str("email", email).Msg("邮件未启用，验证码未发送")
		p.log.Debug().Str("email", email).Str("code", code).Msg("注册验证码")
	}

	return &PendingVerification{Email: email, ExpiresAt: v.ExpiresAt, Message: PendingMessage}, nil
}

// ConfirmEmail 校验验证码并激活账户
func (p *Provider) ConfirmEmail(ctx context.Context, email, code string) error {
	err := p.confirm(ctx, email, code)
	metrics.AuthAttemptsTotal.WithLabelValues("confirm", resultLabel(err)).Inc()
	return err
}

func (p *Provider) confirm(ctx context.Context, email, code string) error {
	if err := p.verifications.Consume(ctx, email, models.VerificationSignUp, strings.TrimSpace(code)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("校验验证码失败: %w", err)
	}
	profile, err := p.profiles.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("查询用户资料失败: %w", err)
	}
	return p.profiles.Confirm(ctx, profile.UserID)
}

// SignOut 注销令牌；无效令牌视为已注销
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil
	}
	p.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	p.log.Info().Str("user_id", claims.UserID).Msg("用户注销")
	return nil
}

// Resolve 解析令牌并加载角色资料
func (p *Provider) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if p.revoked.IsRevoked(claims.ID) {
		return nil, ErrInvalidToken
	}
	profile, err := p.resolver.Resolve(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		Profile:   profile,
	}, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailNotConfirmed):
		return "email_not_confirmed"
	case errors.Is(err, ErrInactiveUser):
		return "inactive"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrWeakPassword), errors.Is(err, ErrPasswordMismatch):
		return "invalid_input"
	default:
		return "error"
	}
}
