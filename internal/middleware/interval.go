package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IntervalGate 按会话强制两次请求之间的最小间隔，是客户端 2 秒限制的服务端版本。
// 每个 key 持有一个容量为 1 的令牌桶；interval 为 0 时不做任何限制。
type IntervalGate struct {
	mu       sync.Mutex
	interval time.Duration
	limit    rate.Limit
	visitors map[string]*visitor
	sweptAt  time.Time
	now      func() time.Time
}

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewIntervalGate 创建限流闸门。
func NewIntervalGate(interval time.Duration) *IntervalGate {
	return &IntervalGate{
		interval: interval,
		limit:    rate.Every(interval),
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Enabled 表示闸门是否生效。
func (g *IntervalGate) Enabled() bool {
	return g != nil && g.interval > 0
}

// Allow 判断 key 是否可以发起新请求；被接受的请求会消耗令牌。
// 返回值 wait 为需要继续等待的时长。
func (g *IntervalGate) Allow(key string) (ok bool, wait time.Duration) {
	if !g.Enabled() {
		return true, 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweep(now)

	v, found := g.visitors[key]
	if !found {
		v = &visitor{limiter: rate.NewLimiter(g.limit, 1)}
		g.visitors[key] = v
	}
	v.seen = now

	if v.limiter.AllowN(now, 1) {
		return true, 0
	}
	missing := 1 - v.limiter.TokensAt(now)
	return false, time.Duration(missing / float64(g.limit) * float64(time.Second))
}

// idleAfter 之后令牌桶必然已满，删除它与保留它效果相同。
func (g *IntervalGate) idleAfter() time.Duration {
	if idle := 10 * g.interval; idle > time.Minute {
		return idle
	}
	return time.Minute
}

// sweep 每隔 idleAfter 清理一次长时间未活动的 key。
func (g *IntervalGate) sweep(now time.Time) {
	idle := g.idleAfter()
	if now.Sub(g.sweptAt) < idle {
		return
	}
	g.sweptAt = now
	for key, v := range g.visitors {
		if now.Sub(v.seen) >= idle {
			delete(g.visitors, key)
		}
	}
}

func (g *IntervalGate) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.visitors)
}
