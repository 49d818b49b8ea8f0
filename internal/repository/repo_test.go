package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shop_autotag/internal/model"
)

const testShop = "demo.myshopify.com"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Shop{}, &model.Rule{},
		&model.MerchantSettings{}, &model.BatchState{},
		&model.TagActivity{}, &model.TagUsage{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// ==================== RuleRepository ====================

func TestRuleRepo_CreateAndListOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRuleRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, tag := range []string{"first", "second", "third"} {
		r := &model.Rule{
			Shop: testShop, Name: tag, AppliesTo: model.EntityOrder,
			Condition: model.CondTotalGreaterThan, ConditionValue: "1", Tag: tag,
			IsActive: true, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, r))
		assert.NotEmpty(t, r.ID, "应自动生成 UUID")
	}
	other := &model.Rule{
		Shop: "other.myshopify.com", Name: "x", AppliesTo: model.EntityOrder,
		Condition: model.CondTotalGreaterThan, ConditionValue: "1", Tag: "x", IsActive: true,
	}
	require.NoError(t, repo.Create(ctx, other))

	active, err := repo.ListActiveByType(ctx, testShop, model.EntityOrder)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "first", active[0].Tag)
	assert.Equal(t, "third", active[2].Tag)

	list, total, err := repo.List(ctx, RuleFilter{Shop: testShop})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, "third", list[0].Tag, "管理列表按创建时间倒序")
}

func TestRuleRepo_DeleteScopedByShop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRuleRepository(db)
	ctx := context.Background()

	r := &model.Rule{
		Shop: testShop, Name: "n", AppliesTo: model.EntityProduct,
		Condition: model.CondVendorIs, ConditionValue: "acme", Tag: "acme", IsActive: true,
	}
	require.NoError(t, repo.Create(ctx, r))

	err := repo.Delete(ctx, "intruder.myshopify.com", r.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.Delete(ctx, testShop, r.ID))
	_, err = repo.GetByID(ctx, testShop, r.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRuleRepo_ListActiveSkipsInactive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRuleRepository(db)
	ctx := context.Background()

	on := &model.Rule{Shop: testShop, Name: "on", AppliesTo: model.EntityCustomer,
		Condition: model.CondHasEmail, ConditionValue: "Yes", Tag: "on", IsActive: true}
	off := &model.Rule{Shop: testShop, Name: "off", AppliesTo: model.EntityCustomer,
		Condition: model.CondHasEmail, ConditionValue: "Yes", Tag: "off", IsActive: true}
	require.NoError(t, repo.Create(ctx, on))
	require.NoError(t, repo.Create(ctx, off))
	require.NoError(t, db.Model(&model.Rule{}).Where("id = ?", off.ID).Update("is_active", false).Error)

	rules, err := repo.ListActive(ctx, testShop)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "on", rules[0].Tag)
}

// ==================== SettingsRepository ====================

func TestSettingsRepo_GetOrCreateDefaultsIdle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	s, err := repo.GetOrCreate(ctx, testShop)
	require.NoError(t, err)
	assert.False(t, s.PastDataOptIn)

	p, err := s.Progress()
	require.NoError(t, err)
	assert.Equal(t, model.PastDataIdle, p.Status)

	again, err := repo.GetOrCreate(ctx, testShop)
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
}

func TestSettingsRepo_SaveProgress(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SetOptIn(ctx, testShop, true))
	require.NoError(t, repo.SaveProgress(ctx, testShop, true, model.InProgress(40, time.Now())))

	s, err := repo.GetOrCreate(ctx, testShop)
	require.NoError(t, err)
	assert.True(t, s.PastDataOptIn)
	assert.True(t, s.PastDataProcessing)
	p, err := s.Progress()
	require.NoError(t, err)
	assert.Equal(t, 40, p.Percent)

	invalid := model.PastDataProgress{Status: "paused"}
	assert.Error(t, repo.SaveProgress(ctx, testShop, false, invalid))
}

// ==================== BatchStateRepository ====================

func TestBatchStateRepo_SaveUpsertsAndLists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBatchStateRepository(db)
	ctx := context.Background()

	missing, err := repo.Get(ctx, testShop, model.EntityOrder)
	require.NoError(t, err)
	assert.Nil(t, missing)

	cursor := "CURSOR_1"
	state := &model.BatchState{Shop: testShop, EntityType: model.EntityOrder}
	require.NoError(t, state.Apply(&cursor, model.BatchProgress{Processed: 25, BatchSize: 25}))
	require.NoError(t, repo.Save(ctx, state))

	unfinished, err := repo.ListUnfinished(ctx, model.EntityOrder)
	require.NoError(t, err)
	require.Len(t, unfinished, 1)
	assert.Equal(t, "CURSOR_1", *unfinished[0].Cursor)

	require.NoError(t, state.Apply(nil, model.BatchProgress{Processed: 3, BatchSize: 3, Done: true}))
	require.NoError(t, repo.Save(ctx, state))

	var count int64
	db.Model(&model.BatchState{}).Count(&count)
	assert.EqualValues(t, 1, count, "同一 (shop, entity_type) 只有一条")

	got, err := repo.Get(ctx, testShop, model.EntityOrder)
	require.NoError(t, err)
	assert.Nil(t, got.Cursor)
	p, err := got.GetProgress()
	require.NoError(t, err)
	assert.True(t, p.Done)
	assert.Equal(t, 3, p.Processed)

	unfinished, err = repo.ListUnfinished(ctx, model.EntityOrder)
	require.NoError(t, err)
	assert.Empty(t, unfinished)
}

func TestBatchStateRepo_Reset(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBatchStateRepository(db)
	ctx := context.Background()

	cursor := "C"
	state := &model.BatchState{Shop: testShop, EntityType: model.EntityProduct}
	require.NoError(t, state.Apply(&cursor, model.BatchProgress{Processed: 1, BatchSize: 1}))
	require.NoError(t, repo.Save(ctx, state))

	require.NoError(t, repo.Reset(ctx, testShop, model.EntityProduct))

	got, err := repo.Get(ctx, testShop, model.EntityProduct)
	require.NoError(t, err)
	assert.Nil(t, got.Cursor)
	p, err := got.GetProgress()
	require.NoError(t, err)
	assert.Nil(t, p)
}

// ==================== ActivityRepository ====================

func TestActivityRepo_IncrementUsage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	t1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	require.NoError(t, repo.IncrementUsage(ctx, testShop, "vip", t1))
	usage, err := repo.GetUsage(ctx, testShop, "vip")
	require.NoError(t, err)
	assert.EqualValues(t, 1, usage.Count)

	require.NoError(t, repo.IncrementUsage(ctx, testShop, "vip", t2))
	require.NoError(t, repo.IncrementUsage(ctx, "other.myshopify.com", "vip", t2))

	usage, err = repo.GetUsage(ctx, testShop, "vip")
	require.NoError(t, err)
	assert.EqualValues(t, 2, usage.Count)
	assert.True(t, usage.LastUsed.Equal(t2))

	list, err := repo.ListUsage(ctx, testShop)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestActivityRepo_RecentActivity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateActivity(ctx, &model.TagActivity{
			Shop: testShop, EntityType: model.EntityOrder, EntityID: "gid://shopify/Order/1",
			Tag: "t", RuleID: "r", AppliedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := repo.ListRecentActivity(ctx, testShop, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].AppliedAt.After(list[1].AppliedAt))
}

// ==================== ShopRepository ====================

func TestShopRepo_GetAndUninstall(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShopRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Shop{
		Domain: testShop, AccessToken: "shpat_x", Status: model.ShopStatusActive, InstalledAt: time.Now(),
	}))

	shop, err := repo.GetByDomain(ctx, testShop)
	require.NoError(t, err)
	assert.True(t, shop.IsActive())

	require.NoError(t, repo.MarkUninstalled(ctx, testShop))
	shop, err = repo.GetByDomain(ctx, testShop)
	require.NoError(t, err)
	assert.False(t, shop.IsActive())
	assert.NotNil(t, shop.UninstalledAt)
}
