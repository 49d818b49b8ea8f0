package shopify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound 查询对象不存在
var ErrNotFound = errors.New("shopify: resource not found")

// APIError 非 2xx 响应 (429 除外)
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify api error (status %d): %s", e.StatusCode, e.Body)
}

// ThrottledError 远端限流: HTTP 429 或 GraphQL THROTTLED
// 实现 net.RateLimited，会被 RetryClient 重试
type ThrottledError struct {
	After time.Duration
}

func (e *ThrottledError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("shopify throttled, retry after %s", e.After)
	}
	return "shopify throttled"
}

// RetryAfter 远端建议的等待时间
func (e *ThrottledError) RetryAfter() time.Duration {
	return e.After
}

// GraphQLError 顶层 errors 数组
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "shopify graphql error: " + strings.Join(e.Messages, "; ")
}

// UserError mutation 返回的 userErrors
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// UserErrors 写入被业务校验拒绝
type UserErrors []UserError

func (e UserErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ue := range e {
		if len(ue.Field) > 0 {
			msgs = append(msgs, strings.Join(ue.Field, ".")+": "+ue.Message)
		} else {
			msgs = append(msgs, ue.Message)
		}
	}
	return "shopify user errors: " + strings.Join(msgs, "; ")
}

// parseRetryAfter Retry-After 头为秒数 (可能带小数)
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
