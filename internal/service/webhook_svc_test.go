package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/model"
)

func newTestWebhookService(repos *testRepos, provider PlatformProvider) *WebhookService {
	recorder := NewActivityService(repos.activity, nil)
	return NewWebhookService(repos.rules, repos.shops, provider, recorder, nil)
}

func TestWebhookService_OrderCreatedAppliesTag(t *testing.T) {
	repos := newTestRepos(t)
	repos.addRule(t, model.EntityOrder, model.CondTotalGreaterThan, "100", "high-value")
	repos.addRule(t, model.EntityCustomer, model.CondHasEmail, "Yes", "has-email")

	platform := newFakePlatform()
	svc := newTestWebhookService(repos, &fakeProvider{platform: platform})
	ctx := context.Background()

	res, err := svc.HandleOrderCreated(ctx, testShop, &dto.OrderWebhook{ID: 1001, TotalPrice: "150.00"})
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, []string{"high-value"}, res.AppliedTags)
	assert.Equal(t, "high-value", platform.updates["gid://shopify/Order/1001"])

	assert.EqualValues(t, 1, repos.count(t, &model.TagActivity{}))
	usage, err := repos.activity.GetUsage(ctx, testShop, "high-value")
	require.NoError(t, err)
	assert.EqualValues(t, 1, usage.Count)
}

func TestWebhookService_NoMatchNoWrite(t *testing.T) {
	repos := newTestRepos(t)
	repos.addRule(t, model.EntityOrder, model.CondTotalGreaterThan, "100", "high-value")

	platform := newFakePlatform()
	svc := newTestWebhookService(repos, &fakeProvider{platform: platform})

	res, err := svc.HandleOrderCreated(context.Background(), testShop, &dto.OrderWebhook{ID: 1002, TotalPrice: "50.00"})
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, 0, platform.updateCalls)
	assert.EqualValues(t, 0, repos.count(t, &model.TagActivity{}))
}

func TestWebhookService_WriteFailureSurfaces(t *testing.T) {
	repos := newTestRepos(t)
	repos.addRule(t, model.EntityOrder, model.CondTotalGreaterThan, "100", "high-value")

	platform := newFakePlatform()
	platform.failIDs["gid://shopify/Order/7"] = true
	svc := newTestWebhookService(repos, &fakeProvider{platform: platform})

	_, err := svc.HandleOrderCreated(context.Background(), testShop, &dto.OrderWebhook{ID: 7, TotalPrice: "500"})
	require.Error(t, err)

	var writeErr *TagWriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "Failed to update order tags", writeErr.Message())
	assert.EqualValues(t, 0, repos.count(t, &model.TagActivity{}))
}

func TestWebhookService_InvalidPayload(t *testing.T) {
	repos := newTestRepos(t)
	svc := newTestWebhookService(repos, &fakeProvider{platform: newFakePlatform()})

	_, err := svc.HandleProductCreated(context.Background(), testShop, &dto.ProductWebhook{Title: "x"})
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestWebhookService_CustomerLocation(t *testing.T) {
	repos := newTestRepos(t)
	repos.addRule(t, model.EntityCustomer, model.CondCustomerLocation, "US", "domestic")

	platform := newFakePlatform()
	svc := newTestWebhookService(repos, &fakeProvider{platform: platform})
	ctx := context.Background()

	ca := &dto.CustomerWebhook{ID: 1}
	ca.DefaultAddress = &struct {
		CountryCode string `json:"country_code"`
	}{CountryCode: "CA"}
	res, err := svc.HandleCustomerCreated(ctx, testShop, ca)
	require.NoError(t, err)
	assert.False(t, res.Updated)

	us := &dto.CustomerWebhook{ID: 2}
	us.DefaultAddress = &struct {
		CountryCode string `json:"country_code"`
	}{CountryCode: "US"}
	res, err = svc.HandleCustomerCreated(ctx, testShop, us)
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, "domestic", platform.updates["gid://shopify/Customer/2"])
}

func TestWebhookService_TitleReferenceResolved(t *testing.T) {
	repos := newTestRepos(t)
	repos.addRule(t, model.EntityProduct, model.CondTitleContains, "42", "gift")

	platform := newFakePlatform()
	platform.titles["gid://shopify/Product/42"] = "Gift Card"
	svc := newTestWebhookService(repos, &fakeProvider{platform: platform})

	res, err := svc.HandleProductCreated(context.Background(), testShop,
		&dto.ProductWebhook{ID: 9, Title: "Premium gift card bundle", Tags: "new"})
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, "new, gift", platform.updates["gid://shopify/Product/9"])
}

func TestWebhookService_AppUninstalled(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, repos.shops.Create(ctx, &model.Shop{
		Domain: testShop, AccessToken: "shpat_x", Status: model.ShopStatusActive, InstalledAt: time.Now(),
	}))

	svc := newTestWebhookService(repos, &fakeProvider{platform: newFakePlatform()})
	require.NoError(t, svc.HandleAppUninstalled(ctx, testShop))

	shop, err := repos.shops.GetByDomain(ctx, testShop)
	require.NoError(t, err)
	assert.False(t, shop.IsActive())
}
