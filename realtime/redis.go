package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultRedisTimeout = 5 * time.Second

// RedisConfig Redis 连接参数
type RedisConfig struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// ConnectRedis 建立 Redis 连接并 ping 校验
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// redisConn RedisBridge 依赖的客户端能力
type redisConn interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	PSubscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisBridge 通过 Redis pub/sub 在多个实例之间转发变更通知
// 频道格式 <prefix>:<table>；自身发出的消息按 Origin 过滤
type RedisBridge struct {
	conn   redisConn
	hub    *Hub
	prefix string
	origin string
	log    zerolog.Logger
}

// NewRedisBridge 创建转发器，需再调用 hub.SetForwarder 与 Run
func NewRedisBridge(conn redisConn, hub *Hub, prefix string, log zerolog.Logger) *RedisBridge {
	if prefix == "" {
		prefix = "palmera:changes"
	}
	return &RedisBridge{
		conn:   conn,
		hub:    hub,
		prefix: strings.TrimSuffix(prefix, ":"),
		origin: uuid.NewString(),
		log:    log.With().Str("component", "realtime.redis").Logger(),
	}
}

// Origin 当前实例标识
func (b *RedisBridge) Origin() string {
	return b.origin
}

// Channel 表对应的频道名
func (b *RedisBridge) Channel(table string) string {
	return b.prefix + ":" + table
}

// Forward 实现 Forwarder，发布失败只记录日志
func (b *RedisBridge) Forward(change Change) {
	if change.Origin != "" && change.Origin != b.origin {
		return
	}
	change.Origin = b.origin
	payload, err := json.Marshal(change)
	if err != nil {
		b.log.Error().Err(err).Msg("序列化变更失败")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRedisTimeout)
	defer cancel()
	if err := b.conn.Publish(ctx, b.Channel(change.Table), payload).Err(); err != nil {
		b.log.Warn().Err(err).Str("table", change.Table).Msg("发布变更到 Redis 失败")
	}
}

// Run 订阅所有表的频道，把其他实例的变更投递到本地 Hub，直到 ctx 结束
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.conn.PSubscribe(ctx, b.prefix+":*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	b.log.Info().Str("pattern", b.prefix+":*").Msg("已订阅 Redis 变更频道")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

// handle 处理一条远端消息，返回是否已投递
func (b *RedisBridge) handle(payload string) bool {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		b.log.Warn().Err(err).Msg("无法解析 Redis 变更消息")
		return false
	}
	if change.Table == "" || change.Origin == b.origin {
		return false
	}
	b.hub.Deliver(change)
	return true
}
