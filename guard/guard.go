// Package guard 页面导航守卫
//
// 每次导航从 Loading 开始，解析会话与角色后进入 Authorized 或 Unauthorized。
// 权限不足不返回 403，而是重定向到默认内页。
package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// 固定路径
const (
	AuthPath    = "/auth"
	DefaultPath = "/income/new"
)

// ErrResolveTimeout 会话解析超时
var ErrResolveTimeout = errors.New("tiempo de espera agotado al verificar la sesión")

// ErrInvalidTransition 非法状态迁移
var ErrInvalidTransition = errors.New("transición de estado no válida")

// State 守卫状态
type State int

const (
	Loading State = iota
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText 以名称输出
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Machine 单次导航的状态机
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine 初始为 Loading
func NewMachine() *Machine {
	return &Machine{state: Loading}
}

// State 当前状态
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Authorize Loading → Authorized
func (m *Machine) Authorize() error {
	return m.transition(Authorized)
}

// Deny Loading → Unauthorized
func (m *Machine) Deny() error {
	return m.transition(Unauthorized)
}

func (m *Machine) transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Loading {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}

// Route 页面路由
type Route struct {
	Path      string `json:"path"`
	Public    bool   `json:"public"`
	AdminOnly bool   `json:"admin_only"`
}

// DefaultRoutes 应用页面表
func DefaultRoutes() []Route {
	return []Route{
		{Path: AuthPath, Public: true},
		{Path: "/"},
		{Path: "/income"},
		{Path: "/income/new"},
		{Path: "/expenses"},
		{Path: "/expense/new"},
		{Path: "/reports", AdminOnly: true},
		{Path: "/staff", AdminOnly: true},
		{Path: "/services", AdminOnly: true},
		{Path: "/settings", AdminOnly: true},
		{Path: "/admin", AdminOnly: true},
		{Path: "/admin/reports", AdminOnly: true},
	}
}

// Subject 已解析的访问者
type Subject struct {
	UserID string
	Admin  bool
}

// IdentitySource 解析当前访问者；未登录返回 (nil, nil)
type IdentitySource interface {
	Identify(ctx context.Context) (*Subject, error)
}

// IdentityFunc 函数适配器
type IdentityFunc func(ctx context.Context) (*Subject, error)

// Identify 实现 IdentitySource
func (f IdentityFunc) Identify(ctx context.Context) (*Subject, error) {
	return f(ctx)
}

// Outcome 守卫结果
type Outcome string

const (
	Allow    Outcome = "allow"
	Redirect Outcome = "redirect"
	NotFound Outcome = "not_found"
	Failed   Outcome = "failed"
)

// Decision 一次导航的判定
type Decision struct {
	Outcome Outcome `json:"outcome"`
	Target  string  `json:"target,omitempty"`
	Path    string  `json:"path"`
	State   State   `json:"state"`
	Err     error   `json:"-"`
}

// Guard 按路由表判定导航
type Guard struct {
	routes  []Route
	timeout time.Duration
}

// New 创建守卫；timeout 限制会话解析时间
func New(routes []Route, timeout time.Duration) *Guard {
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Guard{routes: routes, timeout: timeout}
}

// Routes 路由表
func (g *Guard) Routes() []Route {
	return g.routes
}

// Match 查找路由
func (g *Guard) Match(path string) (Route, bool) {
	for _, r := range g.routes {
		if matchPath(path, r.Path) {
			return r, true
		}
	}
	return Route{}, false
}

// Evaluate 判定一次导航
func (g *Guard) Evaluate(ctx context.Context, path string, src IdentitySource) Decision {
	path = normalizePath(path)
	m := NewMachine()
	d := Decision{Path: path}

	route, ok := g.Match(path)
	if !ok {
		d.Outcome = NotFound
		d.State = m.State()
		return d
	}
	if route.Public {
		_ = m.Authorize()
		d.Outcome = Allow
		d.State = m.State()
		return d
	}

	subject, err := g.identify(ctx, src)
	if err != nil {
		d.Outcome = Failed
		d.Err = err
		d.State = m.State()
		return d
	}

	if subject == nil {
		_ = m.Deny()
		d.Outcome = Redirect
		d.Target = AuthPath
		d.State = m.State()
		return d
	}

	_ = m.Authorize()
	d.State = m.State()
	if route.AdminOnly && !subject.Admin {
		d.Outcome = Redirect
		d.Target = DefaultPath
		return d
	}
	d.Outcome = Allow
	return d
}

// identify 在超时内解析访问者，来源不响应 ctx 时同样按超时处理
func (g *Guard) identify(ctx context.Context, src IdentitySource) (*Subject, error) {
	if src == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		subject *Subject
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := src.Identify(ctx)
		ch <- result{s, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return nil, ErrResolveTimeout
		}
		return r.subject, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrResolveTimeout
		}
		return nil, ctx.Err()
	}
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return p
}

// matchPath 检查实际路径是否匹配 pattern（支持 :id 等占位符）
// /admin/users/123 匹配 /admin/users/:id
func matchPath(actual, pattern string) bool {
	a := splitPath(normalizePath(actual))
	p := splitPath(normalizePath(pattern))
	if len(a) != len(p) {
		return false
	}
	for i := range a {
		if len(p[i]) > 0 && p[i][0] == ':' {
			if a[i] == "" {
				return false
			}
			continue
		}
		if a[i] != p[i] {
			return false
		}
	}
	return true
}

func splitPath(s string) []string {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}
