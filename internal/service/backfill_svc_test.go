package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop_autotag/internal/model"
	"shop_autotag/internal/rule"
)

func newTestBackfillService(repos *testRepos, provider PlatformProvider) *BackfillService {
	recorder := NewActivityService(repos.activity, nil)
	return NewBackfillService(repos.settings, repos.rules, provider, recorder, 2, nil)
}

func loadProgress(t *testing.T, repos *testRepos) (*model.MerchantSettings, model.PastDataProgress) {
	t.Helper()
	s, err := repos.settings.GetOrCreate(context.Background(), testShop)
	require.NoError(t, err)
	p, err := s.Progress()
	require.NoError(t, err)
	return s, p
}

func TestBackfillService_RunCompletesAllKinds(t *testing.T) {
	repos := newTestRepos(t)
	repos.addRule(t, model.EntityOrder, model.CondTotalGreaterThan, "100", "high-value")
	repos.addRule(t, model.EntityCustomer, model.CondCustomerLocation, "US", "domestic")

	platform := newFakePlatform()
	platform.add(order(1, "150", ""), order(2, "20", ""), order(3, "300", ""))
	platform.add(
		&rule.CustomerSnapshot{ID: "gid://shopify/Customer/1", DefaultAddress: &rule.Address{CountryCode: "US"}},
		&rule.CustomerSnapshot{ID: "gid://shopify/Customer/2", DefaultAddress: &rule.Address{CountryCode: "CA"}},
	)
	platform.add(&rule.ProductSnapshot{ID: "gid://shopify/Product/1", Title: "Hat"})

	svc := newTestBackfillService(repos, &fakeProvider{platform: platform})
	ctx := context.Background()

	require.NoError(t, svc.Prepare(ctx, testShop))
	settings, progress := loadProgress(t, repos)
	assert.True(t, settings.PastDataOptIn)
	assert.True(t, settings.PastDataProcessing)
	assert.Equal(t, model.PastDataInProgress, progress.Status)

	require.NoError(t, svc.Run(ctx, testShop))

	settings, progress = loadProgress(t, repos)
	assert.False(t, settings.PastDataProcessing)
	assert.Equal(t, model.PastDataCompleted, progress.Status)
	assert.Equal(t, 100, progress.Percent)

	assert.Equal(t, map[string]string{
		"gid://shopify/Order/1":    "high-value",
		"gid://shopify/Order/3":    "high-value",
		"gid://shopify/Customer/1": "domestic",
	}, platform.updates)
	assert.EqualValues(t, 3, repos.count(t, &model.TagActivity{}))

	// 订单分两页，客户、商品各一页；商品没有规则，不写回
	assert.Equal(t, []string{"", "2", "", ""}, platform.listCursors)
	assert.NotContains(t, platform.updates, "gid://shopify/Product/1")
}

func TestBackfillService_StaleProcessingFlagDoesNotLockShop(t *testing.T) {
	repos := newTestRepos(t)
	provider := &fakeProvider{platform: newFakePlatform()}
	ctx := context.Background()

	// 上一个进程在回填途中退出
	first := newTestBackfillService(repos, provider)
	require.NoError(t, first.Prepare(ctx, testShop))
	require.NoError(t, repos.settings.SaveProgress(ctx, testShop, true, model.InProgress(40, time.Now())))

	second := newTestBackfillService(repos, provider)
	require.NoError(t, second.Prepare(ctx, testShop))

	settings, progress := loadProgress(t, repos)
	assert.True(t, settings.PastDataProcessing)
	assert.Equal(t, model.PastDataInProgress, progress.Status)
	assert.Equal(t, 0, progress.Percent, "重新开始从 0 计")
}

func TestBackfillService_RecoverInterrupted(t *testing.T) {
	repos := newTestRepos(t)
	provider := &fakeProvider{platform: newFakePlatform()}
	ctx := context.Background()

	first := newTestBackfillService(repos, provider)
	require.NoError(t, first.Prepare(ctx, testShop))
	require.NoError(t, repos.settings.SaveProgress(ctx, testShop, true, model.InProgress(40, time.Now())))
	// 已完成的店铺不受影响
	require.NoError(t, repos.settings.SaveProgress(ctx, "done.myshopify.com", false, model.CompletedProgress(time.Now())))

	second := newTestBackfillService(repos, provider)
	n, err := second.RecoverInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	settings, progress := loadProgress(t, repos)
	assert.False(t, settings.PastDataProcessing)
	assert.Equal(t, model.PastDataError, progress.Status)
	assert.Equal(t, 40, progress.Percent)
	assert.Equal(t, "interrupted by restart", progress.Detail)

	done, err := repos.settings.GetOrCreate(ctx, "done.myshopify.com")
	require.NoError(t, err)
	doneProgress, err := done.Progress()
	require.NoError(t, err)
	assert.Equal(t, model.PastDataCompleted, doneProgress.Status)

	n, err = second.RecoverInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBackfillService_WriteFailureHalts(t *testing.T) {
	repos := newTestRepos(t)
	repos.addRule(t, model.EntityOrder, model.CondTotalGreaterThan, "100", "high-value")

	platform := newFakePlatform()
	platform.add(order(1, "150", ""), order(2, "150", ""), order(3, "150", ""))
	platform.failIDs["gid://shopify/Order/2"] = true

	svc := newTestBackfillService(repos, &fakeProvider{platform: platform})
	ctx := context.Background()
	require.NoError(t, svc.Prepare(ctx, testShop))

	err := svc.Run(ctx, testShop)
	require.Error(t, err)

	settings, progress := loadProgress(t, repos)
	assert.False(t, settings.PastDataProcessing)
	assert.Equal(t, model.PastDataError, progress.Status)
	assert.Contains(t, progress.Detail, "platform rejected update")
	assert.Equal(t, 2, platform.updateCalls, "失败后不再处理后续实体")

	// 失败后可以重新开始
	require.NoError(t, svc.Prepare(ctx, testShop))
}

func TestBackfillService_FetchFailureSetsError(t *testing.T) {
	repos := newTestRepos(t)
	repos.addRule(t, model.EntityOrder, model.CondTotalGreaterThan, "100", "high-value")

	platform := newFakePlatform()
	platform.add(order(1, "150", ""))
	platform.fetchErr = errors.New("boom")

	svc := newTestBackfillService(repos, &fakeProvider{platform: platform})
	require.Error(t, svc.Run(context.Background(), testShop))

	_, progress := loadProgress(t, repos)
	assert.Equal(t, model.PastDataError, progress.Status)
}

func TestBackfillService_NoRulesStaysIdle(t *testing.T) {
	repos := newTestRepos(t)
	provider := &fakeProvider{platform: newFakePlatform()}
	svc := newTestBackfillService(repos, provider)
	ctx := context.Background()

	require.NoError(t, svc.Prepare(ctx, testShop))
	require.NoError(t, svc.Run(ctx, testShop))

	settings, progress := loadProgress(t, repos)
	assert.False(t, settings.PastDataProcessing)
	assert.Equal(t, model.PastDataIdle, progress.Status)
	assert.Equal(t, 0, provider.calls)
}

func TestProgressTracker(t *testing.T) {
	p := &progressTracker{total: 4}
	p.add(1)
	assert.Equal(t, 25, p.percent())
	p.add(3)
	assert.Equal(t, 99, p.percent(), "运行中不到 100")

	// 实际数量超过统计数量时总数随之增长
	p.add(2)
	assert.Equal(t, 6, p.total)

	empty := &progressTracker{}
	assert.Equal(t, 0, empty.percent())
}
