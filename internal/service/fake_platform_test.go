package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shop_autotag/internal/model"
	"shop_autotag/internal/repository"
	"shop_autotag/internal/rule"
	"shop_autotag/pkg/paging"
)

const testShop = "demo.myshopify.com"

// ==================== 测试辅助 ====================

func setupTaggingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	// 每个连接都是独立的内存库，并发测试必须共用一个
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Shop{}, &model.Rule{},
		&model.MerchantSettings{}, &model.BatchState{},
		&model.TagActivity{}, &model.TagUsage{},
	); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// testRepos 测试用仓储集合
type testRepos struct {
	db       *gorm.DB
	rules    repository.RuleRepository
	states   repository.BatchStateRepository
	settings repository.SettingsRepository
	activity repository.ActivityRepository
	shops    repository.ShopRepository
}

func newTestRepos(t *testing.T) *testRepos {
	db := setupTaggingTestDB(t)
	return &testRepos{
		db:       db,
		rules:    repository.NewRuleRepository(db),
		states:   repository.NewBatchStateRepository(db),
		settings: repository.NewSettingsRepository(db),
		activity: repository.NewActivityRepository(db),
		shops:    repository.NewShopRepository(db),
	}
}

func (r *testRepos) addRule(t *testing.T, appliesTo model.EntityType, condition, value, tag string) *model.Rule {
	t.Helper()
	rl := &model.Rule{
		Shop:           testShop,
		Name:           tag,
		AppliesTo:      appliesTo,
		Condition:      condition,
		ConditionValue: value,
		Tag:            tag,
		IsActive:       true,
	}
	if err := r.rules.Create(context.Background(), rl); err != nil {
		t.Fatalf("创建规则失败: %v", err)
	}
	return rl
}

func (r *testRepos) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := r.db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	return n
}

// ==================== 假平台 ====================

type fakePlatform struct {
	mu       sync.Mutex
	items    map[model.EntityType][]rule.Snapshot
	titles   map[string]string
	failIDs  map[string]bool
	fetchErr error

	// entered/gate 非空时 ListEntities 先发信号再等待放行
	entered chan struct{}
	gate    chan struct{}

	listCursors []string
	updates     map[string]string
	updateCalls int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		items:   make(map[model.EntityType][]rule.Snapshot),
		titles:  make(map[string]string),
		failIDs: make(map[string]bool),
		updates: make(map[string]string),
	}
}

func (f *fakePlatform) add(snaps ...rule.Snapshot) {
	for _, s := range snaps {
		f.items[s.Kind()] = append(f.items[s.Kind()], s)
	}
}

func (f *fakePlatform) ListEntities(_ context.Context, et model.EntityType, cursor string, limit int) (paging.Page[rule.Snapshot], error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCursors = append(f.listCursors, cursor)
	if f.fetchErr != nil {
		return paging.Page[rule.Snapshot]{}, f.fetchErr
	}

	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	all := f.items[et]
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := paging.Page[rule.Snapshot]{Items: all[start:end]}
	if end < len(all) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakePlatform) CountEntities(_ context.Context, et model.EntityType) (int, error) {
	return len(f.items[et]), nil
}

func (f *fakePlatform) UpdateTags(_ context.Context, _ model.EntityType, id string, tags string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.failIDs[id] {
		return errors.New("platform rejected update")
	}
	f.updates[id] = tags
	return nil
}

func (f *fakePlatform) ProductTitle(_ context.Context, id string) (string, error) {
	title, ok := f.titles[id]
	if !ok {
		return "", errors.New("not found")
	}
	return title, nil
}

type fakeProvider struct {
	platform *fakePlatform
	err      error
	calls    int
}

func (p *fakeProvider) ForShop(_ context.Context, _ string) (Platform, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.platform, nil
}

func order(id int, total, tags string) *rule.OrderSnapshot {
	return &rule.OrderSnapshot{
		ID:          "gid://shopify/Order/" + strconv.Itoa(id),
		TotalPrice:  total,
		Tags:        tags,
		OrderNumber: 1000 + id,
	}
}
