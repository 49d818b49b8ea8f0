package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type migrateRow struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func TestInitDB_SQLite(t *testing.T) {
	db, err := InitDB("sqlite://:memory:", nil, &migrateRow{})
	require.NoError(t, err)

	require.NoError(t, db.Create(&migrateRow{Name: "a"}).Error)

	var count int64
	require.NoError(t, db.Model(&migrateRow{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDialector(t *testing.T) {
	assert.Equal(t, "sqlite", dialector("sqlite://x.db").Name())
	assert.Equal(t, "postgres", dialector("host=localhost user=app dbname=app").Name())
}
