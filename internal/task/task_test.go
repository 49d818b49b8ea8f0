package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop_autotag/internal/api/dto"
	"shop_autotag/internal/model"
)

// ==================== 测试替身 ====================

type fakeBatches struct {
	mu      sync.Mutex
	pending map[model.EntityType][]string
	calls   map[string][]model.EntityType
	failFor map[string]bool
	busyFor map[string]bool
	block   chan struct{}
}

func newFakeBatches() *fakeBatches {
	return &fakeBatches{
		pending: make(map[model.EntityType][]string),
		calls:   make(map[string][]model.EntityType),
		failFor: make(map[string]bool),
		busyFor: make(map[string]bool),
	}
}

func (f *fakeBatches) ListShopsToContinue(_ context.Context, et model.EntityType) ([]string, error) {
	return f.pending[et], nil
}

func (f *fakeBatches) ContinueShop(_ context.Context, shop string, et model.EntityType) dto.ShopBatchResult {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls[shop] = append(f.calls[shop], et)
	f.mu.Unlock()

	if f.busyFor[shop] {
		return dto.ShopBatchResult{Shop: shop, Success: true, Busy: true}
	}
	if f.failFor[shop] {
		return dto.ShopBatchResult{Shop: shop, Error: "boom"}
	}
	return dto.ShopBatchResult{Shop: shop, Success: true}
}

type fakeBackfill struct {
	prepareErr error
	runs       atomic.Int32
	recovers   atomic.Int32
	release    chan struct{}
}

func (f *fakeBackfill) Prepare(context.Context, string) error { return f.prepareErr }

func (f *fakeBackfill) RecoverInterrupted(context.Context) (int, error) {
	f.recovers.Add(1)
	return 1, nil
}

func (f *fakeBackfill) Run(ctx context.Context, _ string) error {
	f.runs.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ==================== BatchContinueTask ====================

func TestBatchContinueTask_RunOnce(t *testing.T) {
	batches := newFakeBatches()
	batches.pending[model.EntityOrder] = []string{"a.myshopify.com", "b.myshopify.com"}
	batches.pending[model.EntityProduct] = []string{"a.myshopify.com"}
	batches.failFor["b.myshopify.com"] = true

	task := NewBatchContinueTask(batches, "", nil)
	task.SetConcurrency(2)

	res := task.RunOnce(context.Background())
	assert.Equal(t, RoundResult{Shops: 2, Succeeded: 2, Failed: 1}, res)
	assert.Equal(t, []model.EntityType{model.EntityOrder, model.EntityProduct}, batches.calls["a.myshopify.com"])
	assert.Equal(t, []model.EntityType{model.EntityOrder}, batches.calls["b.myshopify.com"])
}

func TestBatchContinueTask_BusyCountsAsSkipped(t *testing.T) {
	batches := newFakeBatches()
	batches.pending[model.EntityOrder] = []string{"a.myshopify.com"}
	batches.busyFor["a.myshopify.com"] = true

	task := NewBatchContinueTask(batches, "", nil)
	res := task.RunOnce(context.Background())
	assert.Equal(t, RoundResult{Shops: 1, Skipped: 1}, res)
}

func TestBatchContinueTask_SkipsInflightShop(t *testing.T) {
	batches := newFakeBatches()
	batches.pending[model.EntityOrder] = []string{"a.myshopify.com"}

	task := NewBatchContinueTask(batches, "", nil)
	task.inflight.Store("a.myshopify.com", struct{}{})

	res := task.RunOnce(context.Background())
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Shops)
	assert.Empty(t, batches.calls)

	task.inflight.Delete("a.myshopify.com")
	res = task.RunOnce(context.Background())
	assert.Equal(t, 1, res.Succeeded)
}

func TestBatchContinueTask_ConcurrentRoundsDoNotOverlap(t *testing.T) {
	batches := newFakeBatches()
	batches.pending[model.EntityOrder] = []string{"a.myshopify.com"}
	batches.block = make(chan struct{})

	task := NewBatchContinueTask(batches, "", nil)

	done := make(chan RoundResult)
	go func() { done <- task.RunOnce(context.Background()) }()

	require.Eventually(t, func() bool {
		_, ok := task.inflight.Load("a.myshopify.com")
		return ok
	}, time.Second, 5*time.Millisecond)

	second := task.RunOnce(context.Background())
	assert.Equal(t, 1, second.Skipped)

	close(batches.block)
	first := <-done
	assert.Equal(t, 1, first.Succeeded)
}

// ==================== BackfillRunner ====================

func TestBackfillRunner_RejectsDuplicate(t *testing.T) {
	backfill := &fakeBackfill{release: make(chan struct{})}
	runner := NewBackfillRunner(backfill, nil)
	ctx := context.Background()

	require.NoError(t, runner.Start(ctx, "a.myshopify.com"))
	assert.True(t, runner.Running("a.myshopify.com"))
	assert.ErrorIs(t, runner.Start(ctx, "a.myshopify.com"), ErrBackfillRunning)

	close(backfill.release)
	runner.Wait()
	assert.False(t, runner.Running("a.myshopify.com"))
	assert.EqualValues(t, 1, backfill.runs.Load())
}

func TestBackfillRunner_PrepareErrorNotStarted(t *testing.T) {
	prepErr := errors.New("already in progress")
	backfill := &fakeBackfill{prepareErr: prepErr}
	runner := NewBackfillRunner(backfill, nil)

	err := runner.Start(context.Background(), "a.myshopify.com")
	assert.ErrorIs(t, err, prepErr)
	assert.False(t, runner.Running("a.myshopify.com"))

	runner.Wait()
	assert.EqualValues(t, 0, backfill.runs.Load())
}

func TestBackfillRunner_StopCancels(t *testing.T) {
	backfill := &fakeBackfill{release: make(chan struct{})}
	runner := NewBackfillRunner(backfill, nil)

	require.NoError(t, runner.Start(context.Background(), "a.myshopify.com"))
	runner.Stop()
	assert.False(t, runner.Running("a.myshopify.com"))
}

// ==================== TaskManager ====================

func TestTaskManager_Disabled(t *testing.T) {
	tm := NewTaskManager(&TaskManagerDeps{}, nil, nil)

	assert.ErrorIs(t, tm.TriggerBackfill(context.Background(), "a.myshopify.com"), ErrTaskDisabled)
	_, err := tm.TriggerBatchContinue(context.Background())
	assert.ErrorIs(t, err, ErrTaskDisabled)
	assert.Equal(t, map[string]bool{"batch_continue": false, "backfill": false}, tm.Status())
}

func TestTaskManager_StartRecoversInterruptedBackfills(t *testing.T) {
	backfill := &fakeBackfill{}
	tm := NewTaskManager(&TaskManagerDeps{Backfill: backfill}, nil, nil)

	tm.Start()
	defer tm.Stop()
	assert.EqualValues(t, 1, backfill.recovers.Load())
}

func TestTaskManager_Triggers(t *testing.T) {
	batches := newFakeBatches()
	batches.pending[model.EntityCustomer] = []string{"a.myshopify.com"}
	backfill := &fakeBackfill{}

	tm := NewTaskManager(&TaskManagerDeps{Batches: batches, Backfill: backfill}, nil, nil)
	ctx := context.Background()

	res, err := tm.TriggerBatchContinue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)

	require.NoError(t, tm.TriggerBackfill(ctx, "a.myshopify.com"))
	tm.backfill.Wait()
	assert.EqualValues(t, 1, backfill.runs.Load())
}
