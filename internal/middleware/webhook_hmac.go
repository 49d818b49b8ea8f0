package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Webhook 请求头
const (
	HeaderWebhookHMAC  = "X-Shopify-Hmac-Sha256"
	HeaderWebhookShop  = "X-Shopify-Shop-Domain"
	HeaderWebhookTopic = "X-Shopify-Topic"
)

// maxWebhookBody webhook 请求体上限
const maxWebhookBody = 5 << 20

// WebhookSignature 计算请求体签名 (base64 HMAC-SHA256)
func WebhookSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook 校验签名
func VerifyWebhook(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := WebhookSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookAuth 校验 webhook 签名并注入店铺域名
// 请求体读取后会重新放回，后续 handler 可以正常绑定
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "读取请求体失败"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !VerifyWebhook(secret, body, c.GetHeader(HeaderWebhookHMAC)) {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "webhook 签名校验失败"})
			c.Abort()
			return
		}

		shop := strings.TrimSpace(c.GetHeader(HeaderWebhookShop))
		if shop == "" {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "缺少店铺域名"})
			c.Abort()
			return
		}

		c.Set(ContextKeyShop, shop)
		c.Next()
	}
}
