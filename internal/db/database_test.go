package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/flower_shop/internal/models"
)

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "", "")
	require.Error(t, err)
}

func TestDialector(t *testing.T) {
	assert.Equal(t, "postgres", dialector("postgres://x", DriverPQ).Name())
	assert.Equal(t, "postgres", dialector("postgres://x", "").Name())
}

func TestOpenSQLite_Migrate(t *testing.T) {
	gdb, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Migrate(gdb))

	for _, table := range []string{
		"admin_users", "categories", "delivery_time_slots", "order_items", "orders",
		"product_images", "products", "special_items", "store_settings",
	} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}

	slot := models.DeliveryTimeSlot{Name: "Morning", StartTime: "08:00", EndTime: "12:00", Active: true}
	require.NoError(t, gdb.Create(&slot).Error)
	assert.NotEmpty(t, slot.ID)
}
