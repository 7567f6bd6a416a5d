package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"palmera/models"
	"palmera/report"
	"palmera/store"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSummarySpec 每天 21:00
const DefaultSummarySpec = "0 21 * * *"

// IncomeLister 收入列表
type IncomeLister interface {
	List(ctx context.Context, f store.Filter) ([]models.IncomeRecord, error)
}

// ExpenseLister 支出列表
type ExpenseLister interface {
	List(ctx context.Context, f store.Filter) ([]models.ExpenseRecord, error)
}

// MemberLister 用户列表
type MemberLister interface {
	List(ctx context.Context) ([]store.ProfileWithRole, error)
}

// SummaryMailer 发送每日汇总
type SummaryMailer interface {
	SendDailySummary(to []string, d report.Dashboard, day string) error
}

// SchedulerOptions 定时任务参数
type SchedulerOptions struct {
	Spec     string
	Income   IncomeLister
	Expenses ExpenseLister
	Members  MemberLister
	Mailer   SummaryMailer
	Location *time.Location
	Logger   zerolog.Logger
}

// Scheduler 每日汇总邮件
type Scheduler struct {
	opts SchedulerOptions
	cron *cron.Cron
	now  func() time.Time
	log  zerolog.Logger

	mu      sync.Mutex
	started bool
}

// NewScheduler 创建定时任务
func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.Spec == "" {
		opts.Spec = DefaultSummarySpec
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	log := opts.Logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		opts: opts,
		cron: cron.New(cron.WithLocation(opts.Location)),
		now:  time.Now,
		log:  log,
	}
}

// Start 注册任务并启动
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if _, err := s.cron.AddFunc(s.opts.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.RunDailySummary(ctx); err != nil {
			s.log.Error().Err(err).Msg("每日汇总发送失败")
		}
	}); err != nil {
		return fmt.Errorf("无效的定时表达式 %q: %w", s.opts.Spec, err)
	}
	s.cron.Start()
	s.started = true
	s.log.Info().Str("spec", s.opts.Spec).Msg("定时任务已启动")
	return nil
}

// Stop 停止调度并等待正在执行的任务
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("等待定时任务结束超时")
	}
}

// RunDailySummary 汇总全部用户本月数据并发送给已激活的管理员
func (s *Scheduler) RunDailySummary(ctx context.Context) error {
	if s.opts.Mailer == nil {
		return errors.New("未配置邮件服务")
	}
	now := s.now().In(s.opts.Location)
	month := report.Month(now)
	f := store.Filter{From: month.From, To: month.To}

	income, err := s.opts.Income.List(ctx, f)
	if err != nil {
		return fmt.Errorf("查询收入失败: %w", err)
	}
	expenses, err := s.opts.Expenses.List(ctx, f)
	if err != nil {
		return fmt.Errorf("查询支出失败: %w", err)
	}
	members, err := s.opts.Members.List(ctx)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}

	recipients := SummaryRecipients(members)
	if len(recipients) == 0 {
		s.log.Info().Msg("没有可接收汇总的管理员")
		return nil
	}
	d := report.BuildDashboard(now, income, expenses)
	day := now.Format("02/01/2006")
	if err := s.opts.Mailer.SendDailySummary(recipients, d, day); err != nil {
		return err
	}
	s.log.Info().Int("recipients", len(recipients)).Str("month_income", d.MonthIncome.String()).Msg("每日汇总已发送")
	return nil
}

// SummaryRecipients 已确认邮箱且激活的管理员
func SummaryRecipients(members []store.ProfileWithRole) []string {
	var out []string
	for _, m := range members {
		if m.Role == models.RoleAdmin && m.IsActive && m.EmailConfirmed {
			out = append(out, m.Email)
		}
	}
	return out
}
