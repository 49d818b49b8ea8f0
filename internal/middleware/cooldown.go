package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"shop_autotag/internal/model"
)

// ==================== 手动触发冷却 ====================

// ActionType 需要冷却的手动操作
type ActionType string

const (
	ActionPastData ActionType = "past_data"
	ActionBatch    ActionType = "batch"
)

// DefaultIntervals 默认冷却间隔
var DefaultIntervals = map[ActionType]time.Duration{
	ActionPastData: 5 * time.Minute,
	ActionBatch:    10 * time.Second,
}

var actionLabels = map[ActionType]string{
	ActionPastData: "历史数据回填",
	ActionBatch:    "分批打标",
}

// contextKeyCooldown 本次请求占用的冷却槽位
const contextKeyCooldown = "cooldown_slot"

// cooldownSlot 冷却粒度：店铺 + 操作，分批打标再细分到实体类型
type cooldownSlot struct {
	shop       string
	action     ActionType
	entityType model.EntityType
}

// triggerCooldown 记录每个槽位最近一次放行的时间
type triggerCooldown struct {
	mu   sync.Mutex
	last map[cooldownSlot]time.Time
	now  func() time.Time
}

func newTriggerCooldown(now func() time.Time) *triggerCooldown {
	return &triggerCooldown{last: make(map[cooldownSlot]time.Time), now: now}
}

var cooldowns = newTriggerCooldown(time.Now)

// take 放行时记录时间；仍在冷却中返回剩余时间
func (t *triggerCooldown) take(slot cooldownSlot, interval time.Duration) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[slot]; ok {
		if wait := interval - now.Sub(last); wait > 0 {
			return wait, false
		}
	}
	t.last[slot] = now
	t.evict(now)
	return 0, true
}

// evict 清理已经过了最长冷却间隔的槽位，调用方持有锁
func (t *triggerCooldown) evict(now time.Time) {
	var longest time.Duration
	for _, d := range DefaultIntervals {
		if d > longest {
			longest = d
		}
	}
	for slot, last := range t.last {
		if now.Sub(last) > longest {
			delete(t.last, slot)
		}
	}
}

func (t *triggerCooldown) give(slot cooldownSlot) {
	t.mu.Lock()
	delete(t.last, slot)
	t.mu.Unlock()
}

// ShopCooldown 店铺手动触发冷却，挂在 SessionAuth 之后
// 分批打标按路径中的实体类型分别冷却；interval 为 0 时使用默认值
func ShopCooldown(action ActionType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = DefaultIntervals[action]
	}

	return func(c *gin.Context) {
		shop := GetShop(c)
		if shop == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "未识别店铺"})
			c.Abort()
			return
		}

		slot := cooldownSlot{shop: shop, action: action}
		if raw := c.Param("entityType"); raw != "" {
			// 无效类型交给控制器返回 400
			if et, err := model.ParseEntityType(raw); err == nil {
				slot.entityType = et
			}
		}

		wait, ok := cooldowns.take(slot, interval)
		if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": cooldownMessage(action, wait),
				"data": gin.H{
					"retry_after": int(wait.Seconds()),
					"action":      action,
				},
			})
			c.Abort()
			return
		}

		c.Set(contextKeyCooldown, slot)
		c.Next()
	}
}

// ReleaseCooldown 操作没有真正开始时归还本次请求占用的冷却 (例如 409)
func ReleaseCooldown(c *gin.Context) {
	if v, ok := c.Get(contextKeyCooldown); ok {
		cooldowns.give(v.(cooldownSlot))
	}
}

// cooldownMessage 429 提示文案
func cooldownMessage(action ActionType, d time.Duration) string {
	label := actionLabels[action]
	if label == "" {
		label = "操作"
	}
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%s冷却中，请 %d 秒后重试", label, seconds)
	}
	minutes, rest := seconds/60, seconds%60
	if rest == 0 {
		return fmt.Sprintf("%s冷却中，请 %d 分钟后重试", label, minutes)
	}
	return fmt.Sprintf("%s冷却中，请 %d 分 %d 秒后重试", label, minutes, rest)
}
