package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== Session Token 配置 ====================

// SessionConfig 嵌入式应用 Session Token 校验配置
type SessionConfig struct {
	APIKey    string        // aud
	APISecret string        // HS256 签名密钥
	Leeway    time.Duration // 允许的时钟偏差
}

var sessionConfig = &SessionConfig{Leeway: 5 * time.Second}

// SetSessionConfig 设置 Session Token 配置
func SetSessionConfig(cfg *SessionConfig) {
	sessionConfig = cfg
}

// GetSessionConfig 获取 Session Token 配置
func GetSessionConfig() *SessionConfig {
	return sessionConfig
}

// ==================== Claims 定义 ====================

// SessionClaims 平台签发的 Session Token 声明
// dest 为店铺地址 (https://xxx.myshopify.com)
type SessionClaims struct {
	Dest string `json:"dest"`
	SID  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// ShopDomain 从 dest 中取出店铺域名
func (c *SessionClaims) ShopDomain() (string, error) {
	u, err := url.Parse(c.Dest)
	if err != nil || u.Host == "" {
		return "", errors.New("invalid dest claim")
	}
	return u.Host, nil
}

// ==================== Token 生成 ====================

// GenerateSessionToken 生成 Session Token (本地调试与测试)
func GenerateSessionToken(shop string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Dest: "https://" + shop,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shop + "/admin",
			Audience:  jwt.ClaimStrings{sessionConfig.APIKey},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(sessionConfig.APISecret))
}

// ==================== Token 解析 ====================

// ParseSessionToken 校验签名、有效期与 aud
func ParseSessionToken(tokenString string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(sessionConfig.Leeway),
	}
	if sessionConfig.APIKey != "" {
		opts = append(opts, jwt.WithAudience(sessionConfig.APIKey))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(sessionConfig.APISecret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyShop   = "shop"
	ContextKeyClaims = "claims"
)

// SessionAuth Session Token 认证中间件，店铺取自 dest
func SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "认证格式错误，应为 Bearer {token}",
			})
			c.Abort()
			return
		}

		claims, err := ParseSessionToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Token 无效或已过期",
			})
			c.Abort()
			return
		}

		shop, err := claims.ShopDomain()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Token 中缺少店铺信息",
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyShop, shop)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// ==================== 辅助函数 ====================

// GetShop 从 Context 获取当前店铺域名
func GetShop(c *gin.Context) string {
	if shop, exists := c.Get(ContextKeyShop); exists {
		return shop.(string)
	}
	return ""
}

// GetSessionClaims 从 Context 获取完整 Claims
func GetSessionClaims(c *gin.Context) *SessionClaims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		return claims.(*SessionClaims)
	}
	return nil
}
