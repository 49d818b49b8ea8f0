package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePastDataProgress(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    PastDataStatus
		percent int
		wantErr bool
	}{
		{"空值视为 idle", "", PastDataIdle, 0, false},
		{"null 视为 idle", "null", PastDataIdle, 0, false},
		{"进行中", `{"status":"in_progress","percent":40}`, PastDataInProgress, 40, false},
		{"已完成", `{"status":"completed","percent":100}`, PastDataCompleted, 100, false},
		{"失败带原因", `{"status":"error","percent":12,"detail":"boom"}`, PastDataError, 12, false},
		{"未知状态", `{"status":"running","percent":10}`, PastDataIdle, 0, true},
		{"完成但不到 100", `{"status":"completed","percent":80}`, PastDataIdle, 0, true},
		{"百分比越界", `{"status":"in_progress","percent":140}`, PastDataIdle, 0, true},
		{"非 JSON", `not-json`, PastDataIdle, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePastDataProgress([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, p.Status)
			assert.Equal(t, tt.percent, p.Percent)
		})
	}
}

func TestPastDataProgress_Constructors(t *testing.T) {
	now := time.Now()

	assert.NoError(t, IdleProgress().Validate())
	assert.Equal(t, 100, InProgress(150, now).Percent)
	assert.Equal(t, 0, InProgress(-3, now).Percent)
	assert.NoError(t, CompletedProgress(now).Validate())

	failed := FailedProgress(30, "fetch failed", now)
	assert.Equal(t, PastDataError, failed.Status)
	assert.Equal(t, 30, failed.Percent)
	assert.NoError(t, failed.Validate())
}

func TestMerchantSettings_ProgressRoundTrip(t *testing.T) {
	s := &MerchantSettings{Shop: "a.myshopify.com"}

	p, err := s.Progress()
	require.NoError(t, err)
	assert.Equal(t, PastDataIdle, p.Status)

	require.NoError(t, s.SetProgress(InProgress(55, time.Now())))
	p, err = s.Progress()
	require.NoError(t, err)
	assert.Equal(t, 55, p.Percent)

	bad := PastDataProgress{Status: PastDataIdle, Detail: "x"}
	assert.Error(t, s.SetProgress(bad))
}

func TestBatchState_DoneImpliesNoCursor(t *testing.T) {
	s := &BatchState{Shop: "a.myshopify.com", EntityType: EntityOrder}
	cursor := "abc"

	err := s.Apply(&cursor, BatchProgress{Processed: 25, BatchSize: 25, Done: true})
	assert.ErrorIs(t, err, ErrDoneWithCursor)

	require.NoError(t, s.Apply(&cursor, BatchProgress{Processed: 25, BatchSize: 25}))
	assert.True(t, s.InProgress())

	require.NoError(t, s.Apply(nil, BatchProgress{Processed: 3, BatchSize: 3, Done: true}))
	assert.False(t, s.InProgress())

	p, err := s.GetProgress()
	require.NoError(t, err)
	assert.True(t, p.Done)
	assert.Nil(t, s.Cursor)
}

func TestParseEntityType(t *testing.T) {
	for _, in := range []string{"Order", "order", "orders", " ORDERS "} {
		et, err := ParseEntityType(in)
		require.NoError(t, err, in)
		assert.Equal(t, EntityOrder, et)
	}

	et, err := ParseEntityType("customers")
	require.NoError(t, err)
	assert.Equal(t, EntityCustomer, et)

	_, err = ParseEntityType("collection")
	assert.Error(t, err)
}

func TestIsValidCondition(t *testing.T) {
	assert.True(t, IsValidCondition(EntityOrder, CondTotalGreaterThan))
	assert.True(t, IsValidCondition(EntityCustomer, CondCustomerLocation))
	assert.True(t, IsValidCondition(EntityProduct, CondSKUStartsWith))
	assert.False(t, IsValidCondition(EntityProduct, CondTotalGreaterThan))
	assert.False(t, IsValidCondition(EntityOrder, "unknown"))
}
