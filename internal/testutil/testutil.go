// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/db"
	"github.com/Skotchmaster/flower_shop/internal/models"
)

// NewDB returns a migrated in-memory SQLite database closed with the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func Product(t *testing.T, gdb *gorm.DB, title, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{Title: title, Price: decimal.RequireFromString(price), Stock: stock, Active: true}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

func SpecialItem(t *testing.T, gdb *gorm.DB, title, price string) models.SpecialItem {
	t.Helper()
	s := models.SpecialItem{Title: title, Price: decimal.RequireFromString(price), Active: true}
	require.NoError(t, gdb.Create(&s).Error)
	return s
}

func TimeSlot(t *testing.T, gdb *gorm.DB, name, start, end string, active bool) models.DeliveryTimeSlot {
	t.Helper()
	s := models.DeliveryTimeSlot{Name: name, StartTime: start, EndTime: end, Active: active}
	require.NoError(t, gdb.Create(&s).Error)
	return s
}
