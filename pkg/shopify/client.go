package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"shop_autotag/internal/model"
	"shop_autotag/internal/rule"
	"shop_autotag/pkg/net"
	"shop_autotag/pkg/paging"
)

// DefaultAPIVersion Admin API 版本
const DefaultAPIVersion = "2024-10"

// Config 单个店铺的客户端配置
type Config struct {
	ShopDomain  string // xxx.myshopify.com
	AccessToken string
	APIVersion  string
	// Endpoint 覆盖 GraphQL 地址 (测试用)，为空时按店铺域名拼接
	Endpoint string
	Timeout  time.Duration
}

// Client GraphQL Admin API 客户端
// 所有请求都经过同一个 net.Executor (限流 + 429 重试)
type Client struct {
	http     *resty.Client
	endpoint string
	exec     net.Executor
	logger   *zap.Logger
}

// NewClient 创建店铺客户端
func NewClient(cfg Config, exec net.Executor, logger *zap.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.ShopDomain, cfg.APIVersion)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Shopify-Access-Token", cfg.AccessToken)

	return &Client{
		http:     httpClient,
		endpoint: endpoint,
		exec:     exec,
		logger:   logger.With(zap.String("shop", cfg.ShopDomain)),
	}
}

// ==================== 列表 ====================

// ListEntities 拉取一页实体并转换为快照
func (c *Client) ListEntities(ctx context.Context, entityType model.EntityType, cursor string, limit int) (paging.Page[rule.Snapshot], error) {
	vars := map[string]any{"first": limit}
	if cursor != "" {
		vars["after"] = cursor
	}

	var page paging.Page[rule.Snapshot]
	switch entityType {
	case model.EntityOrder:
		var data ordersData
		if err := c.query(ctx, ordersQuery, vars, &data); err != nil {
			return page, err
		}
		for i := range data.Orders.Nodes {
			page.Items = append(page.Items, data.Orders.Nodes[i].toSnapshot())
		}
		page.NextCursor = data.Orders.PageInfo.nextCursor()

	case model.EntityCustomer:
		var data customersData
		if err := c.query(ctx, customersQuery, vars, &data); err != nil {
			return page, err
		}
		for i := range data.Customers.Nodes {
			page.Items = append(page.Items, data.Customers.Nodes[i].toSnapshot())
		}
		page.NextCursor = data.Customers.PageInfo.nextCursor()

	case model.EntityProduct:
		var data productsData
		if err := c.query(ctx, productsQuery, vars, &data); err != nil {
			return page, err
		}
		for i := range data.Products.Nodes {
			page.Items = append(page.Items, data.Products.Nodes[i].toSnapshot())
		}
		page.NextCursor = data.Products.PageInfo.nextCursor()

	default:
		return page, fmt.Errorf("list entities: unsupported entity type %q", entityType)
	}

	return page, nil
}

// CountEntities 实体总数
func (c *Client) CountEntities(ctx context.Context, entityType model.EntityType) (int, error) {
	var (
		q   string
		key string
	)
	switch entityType {
	case model.EntityOrder:
		q, key = ordersCountQuery, "ordersCount"
	case model.EntityCustomer:
		q, key = customersCountQuery, "customersCount"
	case model.EntityProduct:
		q, key = productsCountQuery, "productsCount"
	default:
		return 0, fmt.Errorf("count entities: unsupported entity type %q", entityType)
	}

	var data map[string]*countData
	if err := c.query(ctx, q, nil, &data); err != nil {
		return 0, err
	}
	cd := data[key]
	if cd == nil {
		return 0, nil
	}
	return int(cd.Count), nil
}

// ==================== 写入 ====================

// UpdateTags 覆盖写入实体标签
func (c *Client) UpdateTags(ctx context.Context, entityType model.EntityType, id string, tags string) error {
	var (
		mutation string
		field    string
	)
	switch entityType {
	case model.EntityOrder:
		mutation, field = orderUpdateMutation, "orderUpdate"
	case model.EntityCustomer:
		mutation, field = customerUpdateMutation, "customerUpdate"
	case model.EntityProduct:
		mutation, field = productUpdateMutation, "productUpdate"
	default:
		return fmt.Errorf("update tags: unsupported entity type %q", entityType)
	}

	vars := map[string]any{
		"input": map[string]any{
			"id":   id,
			"tags": rule.ParseTags(tags).Items(),
		},
	}

	var data map[string]*mutationPayload
	if err := c.query(ctx, mutation, vars, &data); err != nil {
		return fmt.Errorf("%s %s: %w", field, id, err)
	}
	if payload := data[field]; payload != nil && len(payload.UserErrors) > 0 {
		return fmt.Errorf("%s %s: %w", field, id, payload.UserErrors)
	}
	return nil
}

// ==================== 单个对象 ====================

// ProductTitle 查询商品标题
func (c *Client) ProductTitle(ctx context.Context, productID string) (string, error) {
	var data productTitleData
	if err := c.query(ctx, productTitleQuery, map[string]any{"id": productID}, &data); err != nil {
		return "", err
	}
	if data.Product == nil {
		return "", fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return data.Product.Title, nil
}

// ==================== 底层请求 ====================

// query 发送 GraphQL 请求并解码 data
func (c *Client) query(ctx context.Context, q string, vars map[string]any, out any) error {
	return c.exec.Do(ctx, func(ctx context.Context) error {
		return c.send(ctx, q, vars, out)
	})
}

func (c *Client) send(ctx context.Context, q string, vars map[string]any, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(graphqlRequest{Query: q, Variables: vars}).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("shopify request: %w", err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return &ThrottledError{After: parseRetryAfter(resp.Header().Get("Retry-After"))}
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 512)}
	}

	var env graphqlEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if env.throttled() {
		c.logger.Debug("[Shopify] GraphQL 查询成本超限")
		return &ThrottledError{After: parseRetryAfter(resp.Header().Get("Retry-After"))}
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return &GraphQLError{Messages: msgs}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
