package middleware

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testShop = "demo.myshopify.com"

func init() {
	gin.SetMode(gin.TestMode)
}

func useTestSessionConfig(t *testing.T) {
	prev := GetSessionConfig()
	SetSessionConfig(&SessionConfig{APIKey: "api-key", APISecret: "app-secret", Leeway: time.Second})
	t.Cleanup(func() { SetSessionConfig(prev) })
}

// ==================== Session Token ====================

func TestSessionAuth(t *testing.T) {
	useTestSessionConfig(t)

	r := gin.New()
	r.GET("/me", SessionAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shop": GetShop(c)})
	})

	valid, err := GenerateSessionToken(testShop, time.Minute)
	require.NoError(t, err)
	expired, err := GenerateSessionToken(testShop, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"缺少认证头", "", http.StatusUnauthorized},
		{"格式错误", "Token " + valid, http.StatusUnauthorized},
		{"已过期", "Bearer " + expired, http.StatusUnauthorized},
		{"签名错误", "Bearer " + valid + "x", http.StatusUnauthorized},
		{"正常", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), testShop)
			}
		})
	}
}

func TestParseSessionToken_WrongAudience(t *testing.T) {
	useTestSessionConfig(t)
	token, err := GenerateSessionToken(testShop, time.Minute)
	require.NoError(t, err)

	SetSessionConfig(&SessionConfig{APIKey: "other-app", APISecret: "app-secret"})
	_, err = ParseSessionToken(token)
	assert.Error(t, err)
}

func TestSessionClaims_ShopDomain(t *testing.T) {
	c := &SessionClaims{Dest: "https://demo.myshopify.com"}
	shop, err := c.ShopDomain()
	require.NoError(t, err)
	assert.Equal(t, testShop, shop)

	_, err = (&SessionClaims{Dest: "not a url"}).ShopDomain()
	assert.Error(t, err)
}

// ==================== Webhook 签名 ====================

func TestWebhookAuth(t *testing.T) {
	const secret = "app-secret"
	body := []byte(`{"id":1001,"total_price":"150.00"}`)

	r := gin.New()
	r.POST("/hook", WebhookAuth(secret), func(c *gin.Context) {
		raw, _ := io.ReadAll(c.Request.Body)
		c.JSON(http.StatusOK, gin.H{"shop": GetShop(c), "len": len(raw)})
	})

	send := func(sig, shop string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
		req.Header.Set(HeaderWebhookHMAC, sig)
		if shop != "" {
			req.Header.Set(HeaderWebhookShop, shop)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send(WebhookSignature(secret, body), testShop)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), testShop)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"len":%d`, len(body)), "请求体需要放回")

	assert.Equal(t, http.StatusUnauthorized, send(WebhookSignature("wrong", body), testShop).Code)
	assert.Equal(t, http.StatusUnauthorized, send("", testShop).Code)
	assert.Equal(t, http.StatusBadRequest, send(WebhookSignature(secret, body), "").Code)
}

func TestVerifyWebhook_EmptySecret(t *testing.T) {
	body := []byte("{}")
	assert.False(t, VerifyWebhook("", body, WebhookSignature("", body)))
}

// ==================== 冷却 ====================

// useTestCooldowns 每个测试独立的冷却表与可控时钟
func useTestCooldowns(t *testing.T) *time.Time {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	prev := cooldowns
	cooldowns = newTriggerCooldown(func() time.Time { return now })
	t.Cleanup(func() { cooldowns = prev })
	return &now
}

func TestShopCooldown(t *testing.T) {
	now := useTestCooldowns(t)

	conflict := false
	r := gin.New()
	r.POST("/start",
		func(c *gin.Context) { c.Set(ContextKeyShop, testShop) },
		ShopCooldown(ActionPastData, time.Minute),
		func(c *gin.Context) {
			if conflict {
				ReleaseCooldown(c)
				c.Status(http.StatusConflict)
				return
			}
			c.Status(http.StatusAccepted)
		},
	)

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/start", nil))
		return w
	}

	assert.Equal(t, http.StatusAccepted, do().Code)
	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"retry_after":60`)

	*now = now.Add(61 * time.Second)
	conflict = true
	assert.Equal(t, http.StatusConflict, do().Code)
	// 409 归还了冷却，可以立即重试
	conflict = false
	assert.Equal(t, http.StatusAccepted, do().Code)
}

func TestShopCooldown_PerEntityType(t *testing.T) {
	useTestCooldowns(t)

	r := gin.New()
	r.POST("/batch/:entityType",
		func(c *gin.Context) { c.Set(ContextKeyShop, testShop) },
		ShopCooldown(ActionBatch, 0),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	do := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("/batch/order"))
	assert.Equal(t, http.StatusTooManyRequests, do("/batch/orders"), "同一实体类型的不同写法共用冷却")
	assert.Equal(t, http.StatusOK, do("/batch/customer"))
}

func TestTriggerCooldown_Evicts(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tc := newTriggerCooldown(func() time.Time { return now })

	old := cooldownSlot{shop: "old.myshopify.com", action: ActionPastData}
	_, ok := tc.take(old, time.Minute)
	require.True(t, ok)

	now = now.Add(DefaultIntervals[ActionPastData] + time.Second)
	_, ok = tc.take(cooldownSlot{shop: testShop, action: ActionBatch}, time.Second)
	require.True(t, ok)

	_, kept := tc.last[old]
	assert.False(t, kept)
	assert.Len(t, tc.last, 1)
}

func TestCooldownMessage(t *testing.T) {
	assert.Equal(t, "历史数据回填冷却中，请 30 秒后重试", cooldownMessage(ActionPastData, 30*time.Second))
	assert.Equal(t, "分批打标冷却中，请 2 分钟后重试", cooldownMessage(ActionBatch, 2*time.Minute))
	assert.Equal(t, "操作冷却中，请 1 分 5 秒后重试", cooldownMessage("other", 65*time.Second))
}

// ==================== 租户回调 ====================

type tenantRow struct {
	ID   int64 `gorm:"primaryKey"`
	Shop string
	Name string
}

func TestRegisterTenantCallbacks(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tenantRow{}))
	require.NoError(t, RegisterTenantCallbacks(db))

	ctx := WithShop(context.Background(), testShop)
	row := &tenantRow{Name: "a"}
	require.NoError(t, db.WithContext(ctx).Create(row).Error)
	assert.Equal(t, testShop, row.Shop)

	explicit := &tenantRow{Name: "b", Shop: "other.myshopify.com"}
	require.NoError(t, db.WithContext(ctx).Create(explicit).Error)
	assert.Equal(t, "other.myshopify.com", explicit.Shop, "已有值不覆盖")
}
