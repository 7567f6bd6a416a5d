package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims JWT 声明
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer 签发与解析 HS256 令牌
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer 创建签发器
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue 签发令牌，每个令牌带唯一 ID 以便注销
func (t *TokenIssuer) Issue(userID, email string) (string, *Claims, error) {
	now := t.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    "palmera",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("签发 token 失败: %w", err)
	}
	return token, claims, nil
}

// Parse 校验签名与有效期
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名算法: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revocations 已注销令牌 ID，保存到令牌过期为止
type Revocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewRevocations 创建注销列表
func NewRevocations() *Revocations {
	return &Revocations{entries: make(map[string]time.Time)}
}

// Revoke 注销令牌直到 until
func (r *Revocations) Revoke(id string, until time.Time) {
	r.mu.Lock()
	r.entries[id] = until
	r.mu.Unlock()
}

// IsRevoked 是否已注销
func (r *Revocations) IsRevoked(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Sweep 清理已过期的记录，返回清理数量
func (r *Revocations) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, until := range r.entries {
		if now.After(until) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Len 当前记录数
func (r *Revocations) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
